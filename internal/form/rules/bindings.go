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

package rules

import (
	"github.com/dop251/goja"
)

// fieldBindings exposes field values to rule code as a read-only object.
// Property reads resolve against the live capability surface; writes and
// deletes are rejected so that rule code cannot bypass the store's update
// entrypoint.
type fieldBindings struct {
	vm   *goja.Runtime
	caps Capabilities
}

func newFieldBindings(vm *goja.Runtime, caps Capabilities) *goja.Object {
	return vm.NewDynamicObject(&fieldBindings{vm: vm, caps: caps})
}

func (b *fieldBindings) Get(key string) goja.Value {
	value := b.caps.FieldValue(key)
	if value == nil {
		return goja.Undefined()
	}
	return b.vm.ToValue(value)
}

func (b *fieldBindings) Set(key string, val goja.Value) bool {
	return false
}

func (b *fieldBindings) Has(key string) bool {
	return b.caps.FieldValue(key) != nil
}

func (b *fieldBindings) Delete(key string) bool {
	return false
}

func (b *fieldBindings) Keys() []string {
	return nil
}

// newAPIObject builds the capability-scoped API surface handed to each rule.
// Mutations route through the engine; nothing here touches state directly.
func newAPIObject(vm *goja.Runtime, caps Capabilities) *goja.Object {
	api := vm.NewObject()
	_ = api.Set("setFieldValues", func(changes map[string]interface{}) {
		caps.SetFieldValues(changes)
	})
	_ = api.Set("getFieldValue", func(key string) interface{} {
		return caps.FieldValue(key)
	})
	_ = api.Set("goToStep", func(stepKey string) {
		caps.GoToStep(stepKey)
	})
	_ = api.Set("getStepKey", func() string {
		return caps.CurrentStepKey()
	})
	_ = api.Set("setFieldOptions", func(fieldKey string, options []string) {
		caps.SetFieldOptions(fieldKey, options)
	})
	_ = api.Set("setFieldProperties", func(fieldKey string, properties map[string]interface{}) {
		caps.SetFieldProperties(fieldKey, properties)
	})
	return api
}
