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

package log

// Field represents a structured log field with a key and a value.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string log field.
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer log field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean log field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Any creates a log field for an arbitrary value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Error creates a log field for an error value.
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}
