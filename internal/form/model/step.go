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

package model

import (
	"github.com/expr-lang/expr/vm"
)

// Button represents a clickable element carrying an ordered action list.
type Button struct {
	// ID is the element identifier of the button within its step.
	ID string
	// Text is the rendered button label.
	Text string
	// Submit gives the button submit semantics: validation and step submission
	// run before its action chain.
	Submit bool
	// Actions is the declared, immutable action list executed on click.
	Actions []Action
}

// Container represents a structural element of the step's grid tree. A repeated
// container renders its children N times, each with an independent slot in
// array-valued fields.
type Container struct {
	// ID is the element identifier of the container within its step.
	ID string
	// Repeated marks the container as rendering its children once per repetition.
	Repeated bool
	// FieldKeys lists the keys of fields owned by this container.
	FieldKeys []string
	// Children are nested containers.
	Children []Container
}

// HideRule is a conditional-visibility rule attached to one element position.
type HideRule struct {
	// ElementID identifies the field, button, or container the rule hides.
	ElementID string
	// Source is the raw predicate expression, kept for diagnostics.
	Source string
	// Program is the compiled predicate; the element is hidden when it
	// evaluates to true.
	Program *vm.Program
	// FieldKeys are the field keys the predicate references, used for
	// dependency-based recompute.
	FieldKeys []string
}

// NextCondition is one ordered predicate→target rule of a step's navigation.
type NextCondition struct {
	// NextStepKey is the step entered when the predicate matches.
	NextStepKey string
	// Source is the raw predicate expression, kept for diagnostics.
	Source string
	// Program is the compiled predicate; nil matches unconditionally.
	Program *vm.Program
	// FieldKeys are the field keys the predicate references.
	FieldKeys []string
}

// Step is one screen of the multi-step form. Steps are immutable at runtime
// except for in-place field patches issued by logic rules, after which the
// step is re-published in the form's step map.
type Step struct {
	// ID is the backend identifier of the step.
	ID string
	// Key is the human-readable step key used for navigation.
	Key string
	// Fields is the ordered field list declared by the step.
	Fields []*Field
	// Buttons is the button list declared by the step.
	Buttons []*Button
	// Containers is the container/grid tree of the step.
	Containers []Container
	// HideRules are the conditional-visibility rules for the step's elements.
	HideRules []HideRule
	// NextConditions are the ordered navigation rules; first match wins.
	NextConditions []NextCondition
}

// FieldByKey returns the step's field with the given key, or nil.
func (s *Step) FieldByKey(key string) *Field {
	for _, field := range s.Fields {
		if field.Key == key {
			return field
		}
	}
	return nil
}

// ButtonByID returns the step's button with the given element ID, or nil.
func (s *Step) ButtonByID(id string) *Button {
	for _, button := range s.Buttons {
		if button.ID == id {
			return button
		}
	}
	return nil
}

// ContainerByID returns the step's container with the given element ID,
// searching the container tree depth first, or nil.
func (s *Step) ContainerByID(id string) *Container {
	return findContainerByID(s.Containers, id)
}

func findContainerByID(containers []Container, id string) *Container {
	for i := range containers {
		container := &containers[i]
		if container.ID == id {
			return container
		}
		if found := findContainerByID(container.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// Terminal reports whether the step has no outgoing navigation conditions.
func (s *Step) Terminal() bool {
	return len(s.NextConditions) == 0
}

// RepeatingContainerFor returns the repeated container owning the given field
// key, searching the container tree depth first.
func (s *Step) RepeatingContainerFor(fieldKey string) *Container {
	return findRepeatingContainer(s.Containers, fieldKey)
}

func findRepeatingContainer(containers []Container, fieldKey string) *Container {
	for i := range containers {
		container := &containers[i]
		if container.Repeated {
			for _, key := range container.FieldKeys {
				if key == fieldKey {
					return container
				}
			}
		}
		if found := findRepeatingContainer(container.Children, fieldKey); found != nil {
			return found
		}
	}
	return nil
}

// Form is the immutable session-scoped description of the whole form.
type Form struct {
	// ID is the backend identifier of the form.
	ID string
	// Key is the form key used when fetching the definition.
	Key string
	// FirstStepKey is the entry step of the form.
	FirstStepKey string
	// Steps maps step key to step definition.
	Steps map[string]*Step
	// Rules are the enabled, pre-filtered logic rules in declaration order.
	Rules []*LogicRule
}

// StepByKey returns the form's step with the given key, or nil.
func (f *Form) StepByKey(key string) *Step {
	if f == nil || f.Steps == nil {
		return nil
	}
	return f.Steps[key]
}

// ReplaceStep re-publishes a step in the step map after an in-place patch.
func (f *Form) ReplaceStep(step *Step) {
	if f.Steps == nil {
		f.Steps = make(map[string]*Step)
	}
	f.Steps[step.Key] = step
}
