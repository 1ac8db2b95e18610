/*
 * Copyright (c) 2025, Feathery, Inc. (https://feathery.io).
 *
 * Feathery, Inc. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package navigation implements the step-transition state machine: condition
// resolution, the back-navigation map, terminal detection, and the
// idempotent completion flag.
package navigation

import (
	"github.com/feathery-org/formflow/internal/form/composer"
	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/log"
)

const loggerComponentName = "StepNavigator"

// AuthGate lets an authentication scheme substitute navigation targets and
// declare steps non-final (mid-flow onboarding gate). Both methods may be
// no-ops.
type AuthGate interface {
	// OverrideNext returns a substitute next step key evaluated before the
	// step's own conditions; empty means no override.
	OverrideNext(step *model.Step, trigger *model.Trigger) string
	// NonTerminal reports whether the step must not fire completion even
	// though it has no outgoing conditions.
	NonTerminal(step *model.Step) bool
}

// Navigator is the state machine over step keys. States are the form's step
// keys plus an implicit "no step loaded" initial state and two absorbing
// terminal outcomes, finished and off.
type Navigator struct {
	form      *model.Form
	authGate  AuthGate
	current   string
	backNav   map[string]string
	status    constants.SessionStatus
	offReason constants.OffReason
	completed bool
}

// NewNavigator creates a navigator for the given form. The auth gate is
// optional.
func NewNavigator(form *model.Form, authGate AuthGate) *Navigator {
	return &Navigator{
		form:     form,
		authGate: authGate,
		backNav:  make(map[string]string),
		status:   constants.SessionStatusActive,
	}
}

// CurrentStepKey returns the key of the loaded step, empty before the first
// step is entered.
func (n *Navigator) CurrentStepKey() string {
	return n.current
}

// CurrentStep returns the loaded step, or nil.
func (n *Navigator) CurrentStep() *model.Step {
	return n.form.StepByKey(n.current)
}

// SetCurrent records the loaded step key. Called only from the engine's
// step-entry procedure.
func (n *Navigator) SetCurrent(key string) {
	n.current = key
}

// Status returns the session status of the state machine.
func (n *Navigator) Status() constants.SessionStatus {
	return n.status
}

// OffReason returns the reason the session was turned off, when it was.
func (n *Navigator) OffReason() constants.OffReason {
	return n.offReason
}

// TurnOff moves the machine into the absorbing off state.
func (n *Navigator) TurnOff(reason constants.OffReason) {
	if n.status == constants.SessionStatusActive {
		n.status = constants.SessionStatusOff
		n.offReason = reason
	}
}

// ResolveNext evaluates, in order, the auth-gate override and then the
// step's ordered conditions against current field values and trigger
// metadata. The first matching condition wins; an empty result means no
// forced navigation. A condition that fails to evaluate is skipped.
func (n *Navigator) ResolveNext(step *model.Step, trigger *model.Trigger, values map[string]interface{}) string {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if n.authGate != nil {
		if override := n.authGate.OverrideNext(step, trigger); override != "" {
			return override
		}
	}

	env := map[string]interface{}{
		composer.ConditionEnvFields:  values,
		composer.ConditionEnvTrigger: triggerEnv(trigger),
	}
	for i := range step.NextConditions {
		condition := &step.NextConditions[i]
		if condition.Program == nil {
			return condition.NextStepKey
		}
		match, err := composer.EvalCondition(condition.Program, env)
		if err != nil {
			logger.Error("Next condition evaluation failed; skipping",
				log.String(log.LoggerKeyStepKey, step.Key), log.Error(err))
			continue
		}
		if match {
			return condition.NextStepKey
		}
	}
	return ""
}

// triggerEnv exposes trigger metadata to condition expressions.
func triggerEnv(trigger *model.Trigger) map[string]interface{} {
	if trigger == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"id":          trigger.ID,
		"type":        string(trigger.Type),
		"text":        trigger.Text,
		"repeatIndex": trigger.RepeatIndex,
	}
}

// RecordTransition updates the back-navigation map for a forward,
// non-replaying navigation. When the transition is itself a silent
// programmatic redirect, the new step's back target is the grandparent of
// the navigation chain, so going back skips the redirecting step.
func (n *Navigator) RecordTransition(from, to string, redirect bool) {
	previous := from
	if redirect {
		if grandparent, ok := n.backNav[from]; ok {
			previous = grandparent
		}
	}
	if previous != "" && previous != to {
		n.backNav[to] = previous
	}
}

// BackTarget reads the back-navigation map for the current step. The map is
// never written here; a missing target makes BACK a no-op.
func (n *Navigator) BackTarget() (string, bool) {
	target, ok := n.backNav[n.current]
	return target, ok
}

// BackNav returns a copy of the back-navigation map for persistence.
func (n *Navigator) BackNav() map[string]string {
	snapshot := make(map[string]string, len(n.backNav))
	for key, value := range n.backNav {
		snapshot[key] = value
	}
	return snapshot
}

// RestoreBackNav replaces the back-navigation map from persisted session state.
func (n *Navigator) RestoreBackNav(backNav map[string]string) {
	n.backNav = make(map[string]string, len(backNav))
	for key, value := range backNav {
		n.backNav[key] = value
	}
}

// Terminal reports whether the step ends the form: it has no outgoing
// conditions and the auth scheme does not declare it non-final.
func (n *Navigator) Terminal(step *model.Step) bool {
	if !step.Terminal() {
		return false
	}
	if n.authGate != nil && n.authGate.NonTerminal(step) {
		return false
	}
	return true
}

// MarkCompleted flips the completion flag and reports whether this call was
// the first. Entering a terminal step twice fires completion at most once.
func (n *Navigator) MarkCompleted() bool {
	if n.completed {
		return false
	}
	n.completed = true
	n.status = constants.SessionStatusFinished
	return true
}

// Completed returns the idempotent completion flag.
func (n *Navigator) Completed() bool {
	return n.completed
}

// Reset returns the machine to its initial state for a fresh submission.
func (n *Navigator) Reset() {
	n.current = ""
	n.backNav = make(map[string]string)
	n.status = constants.SessionStatusActive
	n.offReason = ""
	n.completed = false
}

// RestoreCompleted restores the completion flag from persisted session state.
func (n *Navigator) RestoreCompleted(completed bool) {
	n.completed = completed
	if completed {
		n.status = constants.SessionStatusFinished
	}
}
