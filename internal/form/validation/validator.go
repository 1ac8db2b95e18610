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

package validation

import (
	"fmt"
	"strconv"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/form/visibility"
)

// Result is the outcome of one validation run.
type Result struct {
	// Invalid reports whether any visible position failed validation.
	Invalid bool
	// InlineErrors maps field key (key.N for repeated positions) to the
	// first failure message of that position.
	InlineErrors map[string]string
}

// Validate checks the step's fields against the current values, considering
// only currently visible positions. Hidden positions never produce errors.
func Validate(step *model.Step, positions map[string]visibility.Position, values map[string]interface{}) Result {
	result := Result{InlineErrors: make(map[string]string)}

	for _, field := range step.Fields {
		for _, position := range positions {
			if position.ElementID != field.ID || !position.Visible {
				continue
			}
			value := positionValue(values[field.Key], position.RepeatIndex)
			if message := validateValue(field, value); message != "" {
				result.Invalid = true
				result.InlineErrors[errorKey(field.Key, position.RepeatIndex)] = message
			}
		}
	}
	return result
}

// errorKey builds the inline-error map key for a position.
func errorKey(fieldKey string, repeatIndex int) string {
	if repeatIndex < 0 {
		return fieldKey
	}
	return fmt.Sprintf("%s.%d", fieldKey, repeatIndex)
}

// positionValue selects the repetition slot of an array-valued field.
func positionValue(value interface{}, repeatIndex int) interface{} {
	if repeatIndex < 0 {
		return value
	}
	list, ok := value.([]interface{})
	if !ok || repeatIndex >= len(list) {
		return nil
	}
	return list[repeatIndex]
}

// validateValue returns the first constraint violation message, or empty.
func validateValue(field *model.Field, value interface{}) string {
	if field.Required && isEmpty(value) {
		return "This field is required"
	}
	if isEmpty(value) {
		return ""
	}

	switch field.Type {
	case constants.FieldTypeInteger:
		switch v := value.(type) {
		case float64, int, int64:
		case string:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return "Enter a valid number"
			}
		default:
			return "Enter a valid number"
		}
	case constants.FieldTypeText:
		if text, ok := value.(string); ok && field.MaxLength > 0 && len(text) > field.MaxLength {
			return fmt.Sprintf("Must be at most %d characters", field.MaxLength)
		}
	case constants.FieldTypeSelect:
		if text, ok := value.(string); ok && len(field.Options) > 0 {
			for _, option := range field.Options {
				if option == text {
					return ""
				}
			}
			return "Select a valid option"
		}
	}
	return ""
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return false
	case []interface{}:
		return len(v) == 0
	default:
		return false
	}
}
