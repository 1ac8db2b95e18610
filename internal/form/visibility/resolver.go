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

// Package visibility computes which field and container positions are
// currently shown, and which fields conditional-visibility rules depend on.
package visibility

import (
	"fmt"

	"github.com/feathery-org/formflow/internal/form/composer"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/log"
)

const loggerComponentName = "VisibilityResolver"

// Position holds the computed shown/hidden state of one element instance.
type Position struct {
	// ElementID identifies the element the position belongs to.
	ElementID string
	// Visible reports whether the instance is currently shown.
	Visible bool
	// RepeatIndex is the repetition of the instance, -1 outside repeats.
	RepeatIndex int
}

// PositionKey builds the map key of an element instance.
func PositionKey(elementID string, repeatIndex int) string {
	if repeatIndex < 0 {
		return elementID
	}
	return fmt.Sprintf("%s.%d", elementID, repeatIndex)
}

// ValueReader is the read surface the resolver needs from the field store.
type ValueReader interface {
	Values() map[string]interface{}
	Field(key string) *model.Field
	RepetitionCount(container *model.Container) int
}

// Resolver computes visibility positions for the active step.
type Resolver struct{}

// NewResolver creates a visibility resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ComputeVisible is a deterministic pure function of the step's element tree
// and the current field values. It is recomputed on every relevant field
// change and on step change. A hide rule that fails to evaluate leaves its
// element visible so a bad expression cannot blank out the form.
func (r *Resolver) ComputeVisible(step *model.Step, values ValueReader) map[string]Position {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	hideRules := make(map[string][]*model.HideRule)
	for i := range step.HideRules {
		rule := &step.HideRules[i]
		hideRules[rule.ElementID] = append(hideRules[rule.ElementID], rule)
	}

	fieldValues := values.Values()
	positions := make(map[string]Position)

	hidden := func(elementID string, repeatIndex int) bool {
		for _, rule := range hideRules[elementID] {
			env := map[string]interface{}{
				composer.ConditionEnvFields:      fieldValues,
				composer.ConditionEnvRepeatIndex: repeatIndex,
			}
			result, err := composer.EvalCondition(rule.Program, env)
			if err != nil {
				logger.Error("Hide rule evaluation failed; leaving element visible",
					log.String(log.LoggerKeyElementID, elementID), log.Error(err))
				continue
			}
			if result {
				return true
			}
		}
		return false
	}

	record := func(elementID string, repeatIndex int) {
		positions[PositionKey(elementID, repeatIndex)] = Position{
			ElementID:   elementID,
			Visible:     !hidden(elementID, repeatIndex),
			RepeatIndex: repeatIndex,
		}
	}

	for _, field := range step.Fields {
		if container := step.RepeatingContainerFor(field.Key); container != nil {
			count := values.RepetitionCount(container)
			for i := 0; i < count; i++ {
				record(field.ID, i)
			}
			continue
		}
		record(field.ID, -1)
	}
	for _, button := range step.Buttons {
		record(button.ID, -1)
	}
	recordContainers(step.Containers, record)

	return positions
}

func recordContainers(containers []model.Container, record func(string, int)) {
	for i := range containers {
		record(containers[i].ID, -1)
		recordContainers(containers[i].Children, record)
	}
}

// DependencySet returns the field keys referenced by any hide rule of the
// step. A value change touching this set needs a visibility recompute even
// when no immediate re-render was requested.
func (r *Resolver) DependencySet(step *model.Step) map[string]bool {
	deps := make(map[string]bool)
	for i := range step.HideRules {
		for _, key := range step.HideRules[i].FieldKeys {
			deps[key] = true
		}
	}
	return deps
}

// HiddenFieldKeys returns the keys of fields whose every position is
// invisible in the given position map. Used by the clear-hidden-fields
// policy to reset them through the store's standard update path.
func (r *Resolver) HiddenFieldKeys(step *model.Step, positions map[string]Position) []string {
	var keys []string
	for _, field := range step.Fields {
		anyVisible := false
		found := false
		for _, position := range positions {
			if position.ElementID != field.ID {
				continue
			}
			found = true
			if position.Visible {
				anyVisible = true
				break
			}
		}
		if found && !anyVisible {
			keys = append(keys, field.Key)
		}
	}
	return keys
}
