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

// Package serviceerror defines the error structures the engine reports
// through its public surface and lifecycle callbacks.
package serviceerror

// ServiceErrorType classifies who is at fault for a failed operation.
type ServiceErrorType string

const (
	// ClientErrorType marks errors caused by the caller's input, such as an
	// unknown step key or malformed action parameters.
	ClientErrorType ServiceErrorType = "client_error"
	// ServerErrorType marks errors internal to the engine or its
	// collaborators.
	ServerErrorType ServiceErrorType = "server_error"
)

// ServiceError is the error structure every engine operation reports.
//
// Codes follow the FOE- convention: FOE-60xxx for client errors and
// FOE-65xxx for server errors, so embedders can branch on the numeric range
// without inspecting Type. Error carries the stable user-facing message;
// ErrorDescription carries the per-occurrence detail.
type ServiceError struct {
	Code             string           `json:"code"`
	Type             ServiceErrorType `json:"type"`
	Error            string           `json:"error"`
	ErrorDescription string           `json:"error_description,omitempty"`
}

// WithDescription returns a copy of the service error with the given description.
func (e ServiceError) WithDescription(description string) *ServiceError {
	e.ErrorDescription = description
	return &e
}

// IsClientError reports whether the error is attributable to the caller.
func (e *ServiceError) IsClientError() bool {
	return e != nil && e.Type == ClientErrorType
}

// IsServerError reports whether the error is internal to the engine.
func (e *ServiceError) IsServerError() bool {
	return e != nil && e.Type == ServerErrorType
}
