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

package action

import (
	"context"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/fieldstore"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/error/serviceerror"
)

// execute routes one synchronous action to its handler. External flow actions
// never reach here; runChain hands those to launchExternalFlow.
func (e *Executor) execute(ctx context.Context, cont *continuation, act model.Action) *serviceerror.ServiceError {
	switch act.Type {
	case constants.ActionStoreField:
		return e.handleStoreField(cont, act)
	case constants.ActionAddRepeatedRow:
		return e.handleAddRepeatedRow(cont, act)
	case constants.ActionRemoveRepeatedRow:
		return e.handleRemoveRepeatedRow(cont, act)
	case constants.ActionSelectProduct:
		return e.handleSelectProduct(act)
	case constants.ActionRemoveProduct:
		return e.handleRemoveProduct(act)
	case constants.ActionSendSMSMessage, constants.ActionSendSMSCode, constants.ActionVerifySMSCode,
		constants.ActionSendEmailCode, constants.ActionVerifyEmailCode, constants.ActionSendMagicLink:
		return e.handleProviderCall(ctx, act)
	case constants.ActionInviteCollaborator:
		return e.handleCollaboration(ctx, act, "collaborator_invite")
	case constants.ActionVerifyCollaborator:
		return e.handleCollaboration(ctx, act, "collaborator_verify")
	case constants.ActionRewindCollaboration:
		return e.handleCollaboration(ctx, act, "collaboration_rewind")
	case constants.ActionNewSubmission:
		return e.runtime.StartNewSubmission()
	case constants.ActionLogout:
		return e.runtime.Logout()
	case constants.ActionBack:
		return e.runtime.NavigateBack()
	case constants.ActionNext:
		return e.runtime.NavigateNext(cont.trigger)
	case constants.ActionURL:
		return e.handleURL(act)
	default:
		svcErr := constants.ErrorUnsupportedActionType
		svcErr.ErrorDescription = "unsupported action type: " + string(act.Type)
		return &svcErr
	}
}

// decodeParams decodes an action's raw parameter map into a typed struct.
// Decoding is weakly typed so definitions produced by loosely typed tooling
// still bind.
func decodeParams(params map[string]interface{}, out interface{}) *serviceerror.ServiceError {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err == nil {
		err = decoder.Decode(params)
	}
	if err != nil {
		svcErr := constants.ErrorInvalidActionParams
		svcErr.ErrorDescription = "action parameters do not decode: " + err.Error()
		return &svcErr
	}
	return nil
}

// handleStoreField writes a value through the store. With toggle set, storing
// a value equal to the field's current value resets the field to its type
// default instead of re-storing the same value.
func (e *Executor) handleStoreField(cont *continuation, act model.Action) *serviceerror.ServiceError {
	var params model.StoreFieldParams
	if svcErr := decodeParams(act.Params, &params); svcErr != nil {
		return svcErr
	}

	store := e.runtime.Store()
	if store.Field(params.FieldKey) == nil {
		svcErr := constants.ErrorUnknownFieldKey
		svcErr.ErrorDescription = "unknown field key: " + params.FieldKey
		return &svcErr
	}

	opts := fieldstore.UpdateOptions{ClearErrors: true, TriggerErrors: true}
	if params.Toggle {
		current, _ := store.Value(params.FieldKey)
		if reflect.DeepEqual(current, params.Value) {
			store.ResetToDefault(params.FieldKey, opts)
			return nil
		}
	}
	store.Update(map[string]interface{}{params.FieldKey: params.Value}, opts)
	return nil
}

// resolveContainer finds the repeating container an action targets, falling
// back to the triggering element when the parameters omit it.
func (e *Executor) resolveContainer(cont *continuation, params model.RepeatedRowParams) (*model.Container, *serviceerror.ServiceError) {
	step := e.runtime.CurrentStep()
	containerID := params.ContainerID
	if containerID == "" && cont.trigger.Type == constants.TriggerTypeContainer {
		containerID = cont.trigger.ID
	}
	container := step.ContainerByID(containerID)
	if container == nil || !container.Repeated {
		svcErr := constants.ErrorInvalidActionParams
		svcErr.ErrorDescription = "no repeating container for id: " + containerID
		return nil, &svcErr
	}
	return container, nil
}

func (e *Executor) handleAddRepeatedRow(cont *continuation, act model.Action) *serviceerror.ServiceError {
	var params model.RepeatedRowParams
	if svcErr := decodeParams(act.Params, &params); svcErr != nil {
		return svcErr
	}
	container, svcErr := e.resolveContainer(cont, params)
	if svcErr != nil {
		return svcErr
	}
	e.runtime.Store().InsertRepeatedRow(container, fieldstore.UpdateOptions{Rerender: true})
	return nil
}

func (e *Executor) handleRemoveRepeatedRow(cont *continuation, act model.Action) *serviceerror.ServiceError {
	var params model.RepeatedRowParams
	if svcErr := decodeParams(act.Params, &params); svcErr != nil {
		return svcErr
	}
	container, svcErr := e.resolveContainer(cont, params)
	if svcErr != nil {
		return svcErr
	}
	index := params.Index
	if act.Params["index"] == nil && cont.trigger.RepeatIndex >= 0 {
		index = cont.trigger.RepeatIndex
	}
	e.runtime.Store().RemoveRepeatedRow(container, index, fieldstore.UpdateOptions{Rerender: true})
	return nil
}

// cart reads the reserved cart binding as a product ID to quantity map.
func (e *Executor) cart() map[string]interface{} {
	value, _ := e.runtime.Store().Value(constants.CartFieldKey)
	current, _ := value.(map[string]interface{})
	cart := make(map[string]interface{}, len(current)+1)
	for id, quantity := range current {
		cart[id] = quantity
	}
	return cart
}

func (e *Executor) handleSelectProduct(act model.Action) *serviceerror.ServiceError {
	var params model.ProductParams
	if svcErr := decodeParams(act.Params, &params); svcErr != nil {
		return svcErr
	}
	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	cart := e.cart()
	cart[params.ProductID] = quantity
	e.runtime.Store().Update(map[string]interface{}{constants.CartFieldKey: cart},
		fieldstore.UpdateOptions{Rerender: true})
	return nil
}

func (e *Executor) handleRemoveProduct(act model.Action) *serviceerror.ServiceError {
	var params model.ProductParams
	if svcErr := decodeParams(act.Params, &params); svcErr != nil {
		return svcErr
	}
	cart := e.cart()
	delete(cart, params.ProductID)
	e.runtime.Store().Update(map[string]interface{}{constants.CartFieldKey: cart},
		fieldstore.UpdateOptions{Rerender: true})
	return nil
}

// handleProviderCall runs a communication action through its provider
// synchronously. These flows conclude within the chain, unlike the external
// handoffs that suspend it.
func (e *Executor) handleProviderCall(ctx context.Context, act model.Action) *serviceerror.ServiceError {
	provider, ok := e.runtime.Providers().Get(act.Type)
	if !ok {
		svcErr := constants.ErrorProviderNotRegistered
		svcErr.ErrorDescription = "no flow provider registered for action type: " + string(act.Type)
		return &svcErr
	}
	result := provider.Trigger(ctx, act.Params, e.runtime.FieldUpdater())
	if result.Status == model.FlowErr {
		svcErr := constants.ErrorTransportFailure
		svcErr.ErrorDescription = "provider call failed: " + result.Message
		return &svcErr
	}
	if len(result.FieldUpdates) > 0 {
		e.runtime.Store().Update(result.FieldUpdates, fieldstore.UpdateOptions{
			ClearErrors:   true,
			TriggerErrors: true,
		})
	}
	return nil
}

// handleCollaboration registers a collaboration event with the backend,
// resolving the collaborator email from the configured field.
func (e *Executor) handleCollaboration(ctx context.Context, act model.Action, event string) *serviceerror.ServiceError {
	var params model.CollaboratorParams
	if svcErr := decodeParams(act.Params, &params); svcErr != nil {
		return svcErr
	}

	payload := map[string]interface{}{"template_id": params.TemplateID}
	if params.EmailFieldKey != "" {
		if email, ok := e.runtime.Store().Value(params.EmailFieldKey); ok {
			payload["email"] = email
		}
	}
	if err := e.runtime.Transport().RegisterEvent(ctx, event, payload); err != nil {
		svcErr := constants.ErrorTransportFailure
		svcErr.ErrorDescription = "collaboration event failed: " + err.Error()
		return &svcErr
	}
	return nil
}

func (e *Executor) handleURL(act model.Action) *serviceerror.ServiceError {
	var params model.URLParams
	if svcErr := decodeParams(act.Params, &params); svcErr != nil {
		return svcErr
	}
	if params.URL == "" {
		svcErr := constants.ErrorInvalidActionParams
		svcErr.ErrorDescription = "URL action requires a url parameter"
		return &svcErr
	}
	e.runtime.OpenURL(params.URL, params.NewTab)
	return nil
}
