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

package constants

import (
	"github.com/feathery-org/formflow/internal/system/error/serviceerror"
)

// Client error structs

// ErrorInvalidStepKey is returned when a referenced step does not exist in the form.
var ErrorInvalidStepKey = serviceerror.ServiceError{
	Code:             "FOE-60001",
	Type:             serviceerror.ClientErrorType,
	Error:            "Invalid request",
	ErrorDescription: "Step key does not exist in the form definition",
}

// ErrorUnknownFieldKey is returned when an update references a field outside the sealed binding table.
var ErrorUnknownFieldKey = serviceerror.ServiceError{
	Code:             "FOE-60002",
	Type:             serviceerror.ClientErrorType,
	Error:            "Invalid request",
	ErrorDescription: "Field key is not declared by the form definition",
}

// ErrorUnsupportedActionType is returned when a chain contains an action outside the closed set.
var ErrorUnsupportedActionType = serviceerror.ServiceError{
	Code:             "FOE-60003",
	Type:             serviceerror.ClientErrorType,
	Error:            "Invalid request",
	ErrorDescription: "Unsupported action type in the action chain",
}

// ErrorInvalidActionParams is returned when an action's parameters fail to decode.
var ErrorInvalidActionParams = serviceerror.ServiceError{
	Code:             "FOE-60004",
	Type:             serviceerror.ClientErrorType,
	Error:            "Invalid request",
	ErrorDescription: "Action parameters do not match the expected shape",
}

// Server error structs

// ErrorFormNotInitialized is returned when the engine is used before a form is loaded.
var ErrorFormNotInitialized = serviceerror.ServiceError{
	Code:             "FOE-65001",
	Type:             serviceerror.ServerErrorType,
	Error:            "Something went wrong",
	ErrorDescription: "Form definition is not initialized or is nil",
}

// ErrorNoStepLoaded is returned when a trigger arrives before any step was entered.
var ErrorNoStepLoaded = serviceerror.ServiceError{
	Code:             "FOE-65002",
	Type:             serviceerror.ServerErrorType,
	Error:            "Something went wrong",
	ErrorDescription: "No step is currently loaded in the session",
}

// ErrorProviderNotRegistered is returned when an external-flow action has no installed provider.
var ErrorProviderNotRegistered = serviceerror.ServiceError{
	Code:             "FOE-65003",
	Type:             serviceerror.ServerErrorType,
	Error:            "Something went wrong",
	ErrorDescription: "No flow provider registered for the action type",
}

// ErrorConditionEvaluation is returned when a navigation or hide condition fails to evaluate.
var ErrorConditionEvaluation = serviceerror.ServiceError{
	Code:             "FOE-65004",
	Type:             serviceerror.ServerErrorType,
	Error:            "Something went wrong",
	ErrorDescription: "Error evaluating a condition expression",
}

// ErrorTransportFailure is returned when a backend transport call rejects.
var ErrorTransportFailure = serviceerror.ServiceError{
	Code:             "FOE-65005",
	Type:             serviceerror.ServerErrorType,
	Error:            "Something went wrong",
	ErrorDescription: "Backend transport operation failed",
}
