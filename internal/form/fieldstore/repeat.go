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

package fieldstore

import (
	"github.com/feathery-org/formflow/internal/form/model"
)

// RepetitionCount returns the rendered repetition count of a repeating
// container, which equals the value length of every field it owns.
func (s *Store) RepetitionCount(container *model.Container) int {
	count := 0
	for _, key := range container.FieldKeys {
		list := toList(s.values[key])
		if len(list) > count {
			count = len(list)
		}
	}
	if count == 0 {
		count = 1
	}
	return count
}

// InsertRepeatedRow appends one repetition to the container: every owned
// field's value list grows by one default slot, keeping all lists in
// lock-step. The mutation goes through the standard update path.
func (s *Store) InsertRepeatedRow(container *model.Container, opts UpdateOptions) bool {
	count := s.RepetitionCount(container)
	changes := make(map[string]interface{}, len(container.FieldKeys))
	for _, key := range container.FieldKeys {
		field, ok := s.fields[key]
		if !ok {
			continue
		}
		list := paddedList(toList(s.values[key]), count, field)
		changes[key] = append(list, field.DefaultValue())
	}
	if len(changes) == 0 {
		return false
	}
	return s.Update(changes, opts)
}

// RemoveRepeatedRow removes the repetition at the given index from every
// owned field's value list. Out-of-range indexes are a no-op.
func (s *Store) RemoveRepeatedRow(container *model.Container, index int, opts UpdateOptions) bool {
	count := s.RepetitionCount(container)
	if index < 0 || index >= count || count <= 1 {
		return false
	}
	changes := make(map[string]interface{}, len(container.FieldKeys))
	for _, key := range container.FieldKeys {
		field, ok := s.fields[key]
		if !ok {
			continue
		}
		list := paddedList(toList(s.values[key]), count, field)
		next := make([]interface{}, 0, count-1)
		next = append(next, list[:index]...)
		next = append(next, list[index+1:]...)
		changes[key] = next
	}
	if len(changes) == 0 {
		return false
	}
	return s.Update(changes, opts)
}

// paddedList copies a value list padded with defaults up to count, restoring
// the lock-step invariant for lists that drifted short.
func paddedList(list []interface{}, count int, field *model.Field) []interface{} {
	next := make([]interface{}, 0, count+1)
	next = append(next, list...)
	for len(next) < count {
		next = append(next, field.DefaultValue())
	}
	return next
}
