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

// Package model defines the runtime data model for the form orchestration engine.
package model

import (
	"github.com/feathery-org/formflow/internal/form/constants"
)

// Field represents a servar binding: a named, typed value slot bound to one or
// more rendered elements. Fields are owned by the step that declares them and
// are immutable at runtime except for option/property patches issued by logic rules.
type Field struct {
	// ID is the element identifier of the field within its step.
	ID string
	// Key is the value-slot key, unique within a form.
	Key string
	// Type is the declared field type.
	Type constants.FieldType
	// Repeated marks the field as owned by a repeating container.
	Repeated bool
	// Required marks the field as failing validation when empty.
	Required bool
	// AlwaysChecked forces a checkbox field to true on every update.
	AlwaysChecked bool
	// MaxLength bounds the length of text values; zero means unbounded.
	MaxLength int
	// Options is the declared option list for select-like fields.
	Options []string
	// Properties carries renderer metadata the engine does not interpret.
	Properties map[string]interface{}
}

// DefaultValue returns the type default a field resets to when cleared.
func (f *Field) DefaultValue() interface{} {
	switch f.Type {
	case constants.FieldTypeCheckbox:
		if f.AlwaysChecked {
			return true
		}
		return false
	case constants.FieldTypeInteger:
		return nil
	case constants.FieldTypeFile, constants.FieldTypePayment:
		return nil
	default:
		return ""
	}
}

// PatchOptions replaces the field's option list in place. Used by logic-rule
// mutators; the owning step is re-published in the step map afterwards.
func (f *Field) PatchOptions(options []string) {
	f.Options = append([]string(nil), options...)
}

// PatchProperties merges renderer properties into the field in place.
func (f *Field) PatchProperties(properties map[string]interface{}) {
	if f.Properties == nil {
		f.Properties = make(map[string]interface{}, len(properties))
	}
	for key, value := range properties {
		f.Properties[key] = value
	}
}
