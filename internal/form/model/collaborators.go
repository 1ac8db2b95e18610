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
	"context"

	"github.com/feathery-org/formflow/internal/form/constants"
)

// FormTransport is the backend transport collaborator. The engine never
// interprets transport-layer error codes beyond succeeded / failed with message.
type FormTransport interface {
	// FetchForm retrieves the raw form definition for the given form key.
	// The engine never calls it; embedders use it to obtain the definition
	// they hand to the composer before creating a session.
	FetchForm(ctx context.Context, formKey string) ([]byte, error)
	// FetchSession retrieves the stored session state for the given form key.
	FetchSession(ctx context.Context, formKey string) (*SessionState, error)
	// SubmitStep submits the formatted field data of a completed step.
	SubmitStep(ctx context.Context, stepKey string, payload map[string]interface{}) error
	// RegisterEvent records a lifecycle event with the backend.
	RegisterEvent(ctx context.Context, event string, payload map[string]interface{}) error
	// SubmitCustom persists programmatically written field values.
	SubmitCustom(ctx context.Context, values map[string]interface{}) error
	// FlushCustomFields flushes any values buffered by SubmitCustom.
	FlushCustomFields(ctx context.Context) error
}

// SessionState is the stored state returned by FetchSession.
type SessionState struct {
	// CurrentStepKey is the step the session last left off on.
	CurrentStepKey string
	// FieldValues are the previously stored field values.
	FieldValues map[string]interface{}
	// BackNav is the persisted back-navigation map.
	BackNav map[string]string
	// Completed marks a session whose terminal step already fired completion.
	Completed bool
	// OffReason is set when the session is turned off before completion.
	OffReason constants.OffReason
}

// FlowStatus tags the outcome of a third-party flow handoff.
type FlowStatus string

const (
	// FlowOK indicates the provider flow succeeded.
	FlowOK FlowStatus = "OK"
	// FlowErr indicates the provider flow failed with a message.
	FlowErr FlowStatus = "ERR"
)

// FlowResult is the tagged result of a third-party flow handoff. Providers
// call exactly one of success or error; both collapse into this value.
type FlowResult struct {
	// Status tags the outcome.
	Status FlowStatus
	// Message carries the error message when Status is FlowErr.
	Message string
	// FieldUpdates are values the provider produced for the field store,
	// applied through the store's standard update path on resume.
	FieldUpdates map[string]interface{}
}

// FieldUpdater is the narrow write surface handed to flow providers so field
// mutations go through the store's update entrypoint, never a direct write.
type FieldUpdater interface {
	UpdateFields(changes map[string]interface{})
}

// FlowProvider is implemented by third-party integration wrappers (identity
// verification, bank link, payment, document generation). Trigger blocks until
// the provider flow concludes, which may span minutes when driven by an
// overlay outside the engine's control.
type FlowProvider interface {
	Trigger(ctx context.Context, params map[string]interface{}, updater FieldUpdater) FlowResult
}

// ProviderRegistry maps action types to installed flow providers.
type ProviderRegistry struct {
	providers map[constants.ActionType]FlowProvider
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[constants.ActionType]FlowProvider)}
}

// Register installs a provider for the given action type, replacing any
// previous registration.
func (r *ProviderRegistry) Register(actionType constants.ActionType, provider FlowProvider) {
	r.providers[actionType] = provider
}

// Get returns the provider registered for the action type.
func (r *ProviderRegistry) Get(actionType constants.ActionType) (FlowProvider, bool) {
	provider, ok := r.providers[actionType]
	return provider, ok
}

// CallbackContext is the context object passed to embedding-application
// lifecycle callbacks.
type CallbackContext struct {
	// StepKey is the currently loaded step.
	StepKey string
	// Trigger is the initiating entity, when the event has one.
	Trigger *Trigger
	// Fields is a snapshot of the current field values.
	Fields map[string]interface{}
	// ActionTypes lists the chain's action types for action events.
	ActionTypes []constants.ActionType
	// Pending reports whether the action chain is still suspended on an
	// external flow.
	Pending bool
	// Error carries the failure message for error events.
	Error string
	// OffReason is set on completion contexts of sessions turned off early.
	OffReason constants.OffReason
}

// Callbacks are the lifecycle hooks exposed to the embedding application.
// Nil members are skipped.
type Callbacks struct {
	OnLoad         func(ctx *CallbackContext)
	OnChange       func(ctx *CallbackContext)
	OnSubmit       func(ctx *CallbackContext)
	OnError        func(ctx *CallbackContext)
	OnView         func(ctx *CallbackContext)
	OnAction       func(ctx *CallbackContext)
	OnFormComplete func(ctx *CallbackContext)
	// OnURL hands a URL navigation to the embedding application.
	OnURL func(url string, newTab bool)
	// OnRerender asks the embedding application to re-render the visible
	// elements. Immediate renders bypass the coalescing quiet period.
	OnRerender func(immediate bool)
	// OnInlineErrors delivers the inline error map after a validation run.
	OnInlineErrors func(errors map[string]string)
}
