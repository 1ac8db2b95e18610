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

// Package fieldstore owns the canonical mapping from field key to current
// value. All mutations go through Update so dependent recomputation
// (visibility, validation) is always triggered; external code never writes
// values directly.
package fieldstore

import (
	"reflect"
	"strconv"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/log"
)

const loggerComponentName = "FieldValueStore"

// UpdateOptions control the side effects of a store update.
type UpdateOptions struct {
	// Rerender requests an immediate visible re-render for the update.
	Rerender bool
	// ClearErrors clears inline errors for the changed fields.
	ClearErrors bool
	// TriggerErrors allows the update to schedule validation when the
	// session-wide auto-validate flag is set.
	TriggerErrors bool
}

// Hooks connect the store to its dependents. All hooks are optional.
type Hooks struct {
	// OnRerender is invoked when a re-render is needed; immediate is false
	// for deferred, coalesced renders of visibility-dependent changes.
	OnRerender func(immediate bool)
	// OnValidate is invoked when a changed value should be re-validated.
	OnValidate func()
	// OnClearErrors is invoked with the changed keys when ClearErrors is set.
	OnClearErrors func(keys []string)
	// OnChange is invoked with the applied changes after every effective update.
	OnChange func(changes map[string]interface{})
	// DependencyKeys returns the field keys referenced by the current step's
	// hide rules, used to decide between deferred re-render and none.
	DependencyKeys func() map[string]bool
}

// Store is the canonical field-value container of one form session.
type Store struct {
	fields       map[string]*model.Field
	values       map[string]interface{}
	autoValidate bool
	sealed       bool
	hooks        Hooks
}

// NewStore creates an empty store with the given hooks.
func NewStore(hooks Hooks) *Store {
	return &Store{
		fields: make(map[string]*model.Field),
		values: make(map[string]interface{}),
		hooks:  hooks,
	}
}

// Seal builds the field binding table from every step of the form. It runs
// once per session; later calls are no-ops.
func (s *Store) Seal(form *model.Form) {
	if s.sealed {
		return
	}
	for _, step := range form.Steps {
		for _, field := range step.Fields {
			s.fields[field.Key] = field
			if _, ok := s.values[field.Key]; !ok {
				if field.Repeated {
					s.values[field.Key] = []interface{}{field.DefaultValue()}
				} else {
					s.values[field.Key] = field.DefaultValue()
				}
			}
		}
	}

	// Reserved cart binding used by the commerce actions. Not declared by
	// any step but mutated through the same update path.
	if _, ok := s.fields[constants.CartFieldKey]; !ok {
		s.fields[constants.CartFieldKey] = &model.Field{
			Key:  constants.CartFieldKey,
			Type: constants.FieldTypeHidden,
		}
		s.values[constants.CartFieldKey] = map[string]interface{}{}
	}

	s.sealed = true
}

// Restore overlays persisted values onto the sealed bindings without firing
// hooks. Undeclared keys are dropped.
func (s *Store) Restore(values map[string]interface{}) {
	for key, value := range values {
		field, ok := s.fields[key]
		if !ok {
			continue
		}
		s.values[key] = s.coerce(field, value)
	}
}

// Field returns the declared field for a key, or nil for unknown keys.
func (s *Store) Field(key string) *model.Field {
	return s.fields[key]
}

// Value returns the current value for a key.
func (s *Store) Value(key string) (interface{}, bool) {
	value, ok := s.values[key]
	return value, ok
}

// Values returns a snapshot copy of all current values.
func (s *Store) Values() map[string]interface{} {
	snapshot := make(map[string]interface{}, len(s.values))
	for key, value := range s.values {
		snapshot[key] = value
	}
	return snapshot
}

// SetAutoValidate flips the session-wide auto-validate flag, set after the
// first failed submission of the active step.
func (s *Store) SetAutoValidate(autoValidate bool) {
	s.autoValidate = autoValidate
}

// AutoValidate returns the session-wide auto-validate flag.
func (s *Store) AutoValidate() bool {
	return s.autoValidate
}

// ResetAll restores every binding to its type default without firing hooks.
// Used when a fresh submission replaces the session state wholesale.
func (s *Store) ResetAll() {
	for key, field := range s.fields {
		switch {
		case key == constants.CartFieldKey:
			s.values[key] = map[string]interface{}{}
		case field.Repeated:
			s.values[key] = []interface{}{field.DefaultValue()}
		default:
			s.values[key] = field.DefaultValue()
		}
	}
	s.autoValidate = false
}

// Update applies the given changes and returns whether any stored value
// actually changed. A call where every incoming value equals the stored value
// returns false and triggers no recomputation.
func (s *Store) Update(changes map[string]interface{}, opts UpdateOptions) bool {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	applied := make(map[string]interface{}, len(changes))
	anyPreviouslyEmpty := false
	for key, incoming := range changes {
		field, ok := s.fields[key]
		if !ok {
			logger.Warn("Ignoring update for undeclared field", log.String(log.LoggerKeyFieldKey, key))
			continue
		}
		coerced := s.coerce(field, incoming)
		current := s.values[key]
		if reflect.DeepEqual(current, coerced) {
			continue
		}
		if isEmptyValue(current) {
			anyPreviouslyEmpty = true
		}
		applied[key] = coerced
	}

	if len(applied) == 0 {
		return false
	}

	for key, value := range applied {
		s.values[key] = value
	}

	if opts.ClearErrors && s.hooks.OnClearErrors != nil {
		keys := make([]string, 0, len(applied))
		for key := range applied {
			keys = append(keys, key)
		}
		s.hooks.OnClearErrors(keys)
	}

	// A value filling a previously empty slot re-renders unconditionally so
	// placeholders disappear immediately.
	if s.hooks.OnRerender != nil {
		switch {
		case anyPreviouslyEmpty || opts.Rerender:
			s.hooks.OnRerender(true)
		case s.touchesDependency(applied):
			s.hooks.OnRerender(false)
		}
	}

	if s.autoValidate && opts.TriggerErrors && s.hooks.OnValidate != nil {
		s.hooks.OnValidate()
	}

	if s.hooks.OnChange != nil {
		s.hooks.OnChange(applied)
	}
	return true
}

// ResetToDefault resets a field to its type default through the standard
// update path.
func (s *Store) ResetToDefault(key string, opts UpdateOptions) bool {
	field, ok := s.fields[key]
	if !ok {
		return false
	}
	var value interface{}
	if field.Repeated {
		count := len(toList(s.values[key]))
		if count == 0 {
			count = 1
		}
		list := make([]interface{}, count)
		for i := range list {
			list[i] = field.DefaultValue()
		}
		value = list
	} else {
		value = field.DefaultValue()
	}
	return s.Update(map[string]interface{}{key: value}, opts)
}

// touchesDependency reports whether any changed key participates in a
// visibility dependency.
func (s *Store) touchesDependency(applied map[string]interface{}) bool {
	if s.hooks.DependencyKeys == nil {
		return false
	}
	deps := s.hooks.DependencyKeys()
	for key := range applied {
		if deps[key] {
			return true
		}
	}
	return false
}

// coerce applies the per-type coercion rules to an incoming value.
func (s *Store) coerce(field *model.Field, incoming interface{}) interface{} {
	switch field.Type {
	case constants.FieldTypeInteger:
		return coerceNumeric(incoming)
	case constants.FieldTypeCheckbox:
		if field.AlwaysChecked {
			return true
		}
		return incoming
	case constants.FieldTypeFile:
		if field.Repeated {
			// A repeated file slot holds at most one upload; unwrap each
			// slot's single-element list to its element or nil.
			if slots, ok := incoming.([]interface{}); ok {
				unwrapped := make([]interface{}, len(slots))
				for i, slot := range slots {
					unwrapped[i] = unwrapSingleUpload(slot)
				}
				return unwrapped
			}
		}
		return unwrapSingleUpload(incoming)
	}

	if list, ok := incoming.([]interface{}); ok && field.Type != constants.FieldTypeHidden {
		normalized := make([]interface{}, len(list))
		for i, item := range list {
			if item == nil {
				normalized[i] = ""
			} else {
				normalized[i] = item
			}
		}
		return normalized
	}
	return incoming
}

// coerceNumeric parses an incoming value to a number unless it is empty.
func coerceNumeric(incoming interface{}) interface{} {
	switch value := incoming.(type) {
	case string:
		if value == "" {
			return value
		}
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		return value
	case int:
		return float64(value)
	case int64:
		return float64(value)
	default:
		return incoming
	}
}

// isEmptyValue reports whether a stored value counts as empty for the
// unconditional re-render rule.
func isEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		for _, item := range v {
			if !isEmptyValue(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// unwrapSingleUpload collapses a single-element upload list to its element,
// an empty list to nil, and leaves everything else untouched.
func unwrapSingleUpload(value interface{}) interface{} {
	list, ok := value.([]interface{})
	if !ok {
		return value
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	default:
		return list
	}
}

func toList(value interface{}) []interface{} {
	if list, ok := value.([]interface{}); ok {
		return list
	}
	return nil
}
