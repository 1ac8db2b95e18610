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

// Package rules executes user-authored, event-scoped logic rules in a
// sandboxed JavaScript runtime with read-only field bindings and a
// capability-scoped API object. Failures are isolated per rule.
package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/dop251/goja"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/log"
)

const (
	loggerComponentName = "LogicRuleRunner"

	fieldsBindingKey = "fields"
	apiBindingKey    = "feathery"
	eventBindingKey  = "event"
)

// Capabilities is the engine surface exposed to rule code. Every method is
// safe to call from inside a rule; mutations are queued and applied through
// the engine's standard update path, never directly.
type Capabilities interface {
	// FieldValue reads the current value of a field, nil when unknown.
	FieldValue(key string) interface{}
	// SetFieldValues queues field mutations for the standard update path.
	SetFieldValues(changes map[string]interface{})
	// GoToStep requests navigation to the given step after the event
	// pipeline completes.
	GoToStep(stepKey string)
	// CurrentStepKey returns the key of the loaded step.
	CurrentStepKey() string
	// SetFieldOptions patches the option list of a field in place.
	SetFieldOptions(fieldKey string, options []string)
	// SetFieldProperties patches arbitrary properties of a field in place.
	SetFieldProperties(fieldKey string, properties map[string]interface{})
}

// Flusher pushes pending field mutations to the persistence boundary after
// an event's rules complete.
type Flusher interface {
	FlushPending()
}

// Invocation is one event occurrence a rule set runs against. Rule code sees
// it as the read-only `event` object.
type Invocation struct {
	// Event is the lifecycle event being dispatched.
	Event constants.Event
	// Phase selects the before or after phase of an action event; empty
	// matches every phase.
	Phase constants.RulePhase
	// ElementID is the initiating element, empty when the event has none.
	ElementID string
	// ActionTypes lists the chain's action types for action events.
	ActionTypes []constants.ActionType
	// Pending reports whether the chain is still suspended on an external
	// flow handoff.
	Pending bool
}

// RuleSet is the ordered, pre-filtered rule collection for one form. Rules
// are compiled once at construction; a rule whose code does not compile is
// dropped with a log entry and never reaches the runtime.
type RuleSet struct {
	rules   []compiledRule
	timeout time.Duration
}

type compiledRule struct {
	rule    *model.LogicRule
	program *goja.Program
}

// NewRuleSet compiles the given rules. Compilation failures are logged and
// the offending rule is excluded, mirroring the pre-filtering of disabled
// rules at composition.
func NewRuleSet(sources []*model.LogicRule, timeout time.Duration) *RuleSet {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	compiled := make([]compiledRule, 0, len(sources))
	for _, source := range sources {
		program, err := goja.Compile(source.Name, source.Code, true)
		if err != nil {
			logger.Error("Rule code failed to compile; rule excluded",
				log.String(log.LoggerKeyRuleName, source.Name), log.Error(err))
			continue
		}
		compiled = append(compiled, compiledRule{rule: source, program: program})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].rule.Index < compiled[j].rule.Index
	})
	return &RuleSet{rules: compiled, timeout: timeout}
}

// Run executes every rule matching the invocation's event, phase, and scope,
// sequentially in declaration order, and reports whether any ran. An empty
// phase matches every phase; a rule without a declared phase runs in the
// before phase. A failing rule is logged and does not stop its siblings.
// After all rules for a non-change event complete, pending field mutations
// are flushed; change events skip the flush for throughput.
func (s *RuleSet) Run(inv Invocation, caps Capabilities, flusher Flusher) bool {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	stepKey := caps.CurrentStepKey()
	ranAny := false
	for i := range s.rules {
		compiled := &s.rules[i]
		if compiled.rule.TriggerEvent != inv.Event || !compiled.rule.InScope(stepKey, inv.ElementID) {
			continue
		}
		rulePhase := compiled.rule.Phase
		if rulePhase == "" {
			rulePhase = constants.RulePhaseBefore
		}
		if inv.Phase != "" && rulePhase != inv.Phase {
			continue
		}
		ranAny = true
		if err := s.runOne(compiled, inv, caps); err != nil {
			logger.Error("Logic rule failed",
				log.String(log.LoggerKeyRuleName, compiled.rule.Name),
				log.String("event", string(inv.Event)), log.Error(err))
		}
	}

	if ranAny && inv.Event != constants.EventChange && flusher != nil {
		flusher.FlushPending()
	}
	return ranAny
}

// runOne runs a single rule in a fresh runtime. The field binding table is a
// read-only snapshot; writes go through the capability API only.
func (s *RuleSet) runOne(rule *compiledRule, inv Invocation, caps Capabilities) (err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("rule panicked: %v", caught)
		}
	}()

	vm := goja.New()
	if err := vm.Set(fieldsBindingKey, newFieldBindings(vm, caps)); err != nil {
		return err
	}
	if err := vm.Set(apiBindingKey, newAPIObject(vm, caps)); err != nil {
		return err
	}
	if err := vm.Set(eventBindingKey, newEventObject(inv)); err != nil {
		return err
	}

	var timer *time.Timer
	if s.timeout > 0 {
		timer = time.AfterFunc(s.timeout, func() {
			vm.Interrupt("rule execution timeout")
		})
		defer timer.Stop()
	}

	_, err = vm.RunProgram(rule.program)
	return err
}

// newEventObject renders the invocation as the plain `event` object handed to
// rule code.
func newEventObject(inv Invocation) map[string]interface{} {
	actionTypes := make([]string, len(inv.ActionTypes))
	for i, actionType := range inv.ActionTypes {
		actionTypes[i] = string(actionType)
	}
	return map[string]interface{}{
		"type":        string(inv.Event),
		"elementId":   inv.ElementID,
		"actionTypes": actionTypes,
		"pending":     inv.Pending,
	}
}
