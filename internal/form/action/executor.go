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

// Package action implements the sequential action executor: per-element
// re-entrancy guarding, rank-ordered execution, the submit pre-step, and
// chain suspension/resume across external flow handoffs.
package action

import (
	"context"
	"sort"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/fieldstore"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/system/error/serviceerror"
	"github.com/feathery-org/formflow/internal/system/log"
)

const loggerComponentName = "ActionExecutor"

// Runtime is the engine surface the executor drives. Every method except
// Reenter is called with the session lock held; Reenter re-acquires it for
// continuations arriving from provider goroutines.
type Runtime interface {
	// Store returns the session's field value store.
	Store() *fieldstore.Store
	// CurrentStep returns the loaded step.
	CurrentStep() *model.Step
	// ValidateStep validates the visible fields of the loaded step and
	// reports whether they all pass. On failure the engine flips the
	// auto-validate flag and surfaces the inline errors.
	ValidateStep() bool
	// LaunchSubmit formats the loaded step's visible values and launches the
	// pending submit through the backend transport.
	LaunchSubmit(ctx context.Context, trigger *model.Trigger)
	// NavigateNext resolves and enters the next step for the trigger.
	NavigateNext(trigger *model.Trigger) *serviceerror.ServiceError
	// NavigateBack enters the back-navigation target, a no-op without one.
	NavigateBack() *serviceerror.ServiceError
	// NavigateTo enters the given step directly.
	NavigateTo(stepKey string) *serviceerror.ServiceError
	// OpenURL hands a URL navigation to the embedding application.
	OpenURL(url string, newTab bool)
	// StartNewSubmission resets the session for a fresh submission.
	StartNewSubmission() *serviceerror.ServiceError
	// Logout signs the user out and turns the session off.
	Logout() *serviceerror.ServiceError
	// Providers returns the installed flow providers.
	Providers() *model.ProviderRegistry
	// Transport returns the backend transport collaborator.
	Transport() model.FormTransport
	// FieldUpdater returns the narrow write surface handed to providers.
	FieldUpdater() model.FieldUpdater
	// ReportChainError reports an aborted chain through the error callback.
	ReportChainError(trigger *model.Trigger, svcErr *serviceerror.ServiceError)
	// ChainSuspended reports a chain handed off to an external flow provider,
	// still holding its guard until the provider's result arrives.
	ChainSuspended(trigger *model.Trigger, actionTypes []constants.ActionType)
	// ChainFinished runs the post-chain pipeline (after rules, recompute).
	ChainFinished(trigger *model.Trigger, actionTypes []constants.ActionType)
	// Reenter runs fn under the session lock. Used by provider goroutines to
	// resume a suspended chain.
	Reenter(fn func())
}

// continuation carries the state needed to resume a chain after an external
// flow handoff: the remaining rank-ordered actions plus the originating
// trigger and step identity.
type continuation struct {
	remaining []model.Action
	trigger   *model.Trigger
	types     []constants.ActionType
	stepID    string
	submit    bool
}

// Executor runs action chains. One executor serves one engine session and is
// always driven under that session's lock.
type Executor struct {
	runtime Runtime
	// inFlight holds the element IDs with an active chain, including chains
	// suspended on an external flow. Guarded by the session lock.
	inFlight map[string]bool
	// running is the element ID of the chain executing between suspension
	// points, empty otherwise. A chain's own navigation re-enters the step
	// lifecycle and must not abandon its own guard.
	running string
}

// NewExecutor creates an executor bound to the given runtime.
func NewExecutor(runtime Runtime) *Executor {
	return &Executor{
		runtime:  runtime,
		inFlight: make(map[string]bool),
	}
}

// Busy reports whether the element has an active or suspended chain.
func (e *Executor) Busy(elementID string) bool {
	return e.inFlight[elementID]
}

// AbandonStep drops guards belonging to a step that is no longer loaded.
// Late external-flow results for those elements become no-ops because the
// continuation's step identity no longer matches. The guard of the chain
// currently executing is spared: a step entry made by the chain's own
// navigation actions is not an abandonment.
func (e *Executor) AbandonStep() {
	e.inFlight = make(map[string]bool)
	if e.running != "" {
		e.inFlight[e.running] = true
	}
}

// Run executes the trigger's action chain. A second call for an element whose
// chain is still active is a no-op and reports false. The chain is sorted by
// the action rank table before execution, so declaration order never affects
// the outcome.
func (e *Executor) Run(ctx context.Context, trigger *model.Trigger, actions []model.Action, submit bool) bool {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if e.inFlight[trigger.ID] {
		logger.Debug("Element already has an active chain; ignoring trigger",
			log.String(log.LoggerKeyElementID, trigger.ID))
		return false
	}

	step := e.runtime.CurrentStep()
	if step == nil {
		e.runtime.ReportChainError(trigger, &constants.ErrorNoStepLoaded)
		return false
	}

	e.inFlight[trigger.ID] = true

	chain := sortChain(actions)

	if submit {
		if !e.runtime.ValidateStep() {
			logger.Debug("Submit validation failed; aborting chain",
				log.String(log.LoggerKeyElementID, trigger.ID))
			delete(e.inFlight, trigger.ID)
			return false
		}
		e.runtime.LaunchSubmit(ctx, trigger)
	}

	e.runChain(ctx, &continuation{
		remaining: chain,
		trigger:   trigger,
		types:     model.ChainActionTypes(chain),
		stepID:    step.ID,
		submit:    submit,
	})
	return true
}

// sortChain orders a copy of the action list by the rank table. The sort is
// stable so equal-ranked actions keep their declared order.
func sortChain(actions []model.Action) []model.Action {
	chain := make([]model.Action, len(actions))
	copy(chain, actions)
	sort.SliceStable(chain, func(i, j int) bool {
		return constants.ActionRank(chain[i].Type) < constants.ActionRank(chain[j].Type)
	})
	return chain
}

// runChain executes the continuation's remaining actions in order. An error
// aborts the rest of the chain, reports through the error callback, and
// releases the guard so the user may retry. An external flow handoff leaves
// the guard held and returns; the provider goroutine resumes the rest.
func (e *Executor) runChain(ctx context.Context, cont *continuation) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	e.running = cont.trigger.ID
	defer func() { e.running = "" }()

	for len(cont.remaining) > 0 {
		act := cont.remaining[0]
		cont.remaining = cont.remaining[1:]

		logger.Debug("Executing action", log.String(log.LoggerKeyActionType, string(act.Type)),
			log.String(log.LoggerKeyElementID, cont.trigger.ID))

		if constants.IsExternalFlowAction(act.Type) {
			if svcErr := e.launchExternalFlow(ctx, cont, act); svcErr != nil {
				e.abortChain(cont, svcErr)
				return
			}
			e.runtime.ChainSuspended(cont.trigger, cont.types)
			return
		}

		if svcErr := e.execute(ctx, cont, act); svcErr != nil {
			e.abortChain(cont, svcErr)
			return
		}
	}

	delete(e.inFlight, cont.trigger.ID)
	e.runtime.ChainFinished(cont.trigger, cont.types)
}

// abortChain drops the remaining actions, releases the guard, and reports
// the failure for this one chain.
func (e *Executor) abortChain(cont *continuation, svcErr *serviceerror.ServiceError) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))
	logger.Error("Action chain aborted", log.String(log.LoggerKeyElementID, cont.trigger.ID),
		log.String("errorCode", svcErr.Code), log.String("description", svcErr.ErrorDescription))

	delete(e.inFlight, cont.trigger.ID)
	e.runtime.ReportChainError(cont.trigger, svcErr)
}

// launchExternalFlow hands the chain to a flow provider. The provider call
// blocks, so it runs on its own goroutine while the guard stays held; the
// result re-enters the session lock and resumes the remaining actions.
func (e *Executor) launchExternalFlow(ctx context.Context, cont *continuation, act model.Action) *serviceerror.ServiceError {
	provider, ok := e.runtime.Providers().Get(act.Type)
	if !ok {
		svcErr := constants.ErrorProviderNotRegistered
		svcErr.ErrorDescription = "no flow provider registered for action type: " + string(act.Type)
		return &svcErr
	}

	// Earlier actions of this chain may have navigated; the handoff belongs
	// to the step it launches on, so the resume staleness check compares
	// against that step, not the one the chain started on.
	step := e.runtime.CurrentStep()
	if step == nil {
		return &constants.ErrorNoStepLoaded
	}
	cont.stepID = step.ID

	updater := e.runtime.FieldUpdater()
	go func() {
		result := provider.Trigger(ctx, act.Params, updater)
		e.runtime.Reenter(func() {
			e.resume(ctx, cont, result)
		})
	}()
	return nil
}

// resume continues a suspended chain with the provider's result. A stale
// continuation, one whose step is no longer loaded, is dropped and its guard
// has already been cleared by the step change.
func (e *Executor) resume(ctx context.Context, cont *continuation, result model.FlowResult) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	step := e.runtime.CurrentStep()
	if step == nil || step.ID != cont.stepID {
		logger.Debug("Dropping stale external flow result",
			log.String(log.LoggerKeyElementID, cont.trigger.ID))
		return
	}

	if result.Status == model.FlowErr {
		svcErr := constants.ErrorTransportFailure
		svcErr.ErrorDescription = "external flow failed: " + result.Message
		e.abortChain(cont, &svcErr)
		return
	}

	if len(result.FieldUpdates) > 0 {
		e.runtime.Store().Update(result.FieldUpdates, fieldstore.UpdateOptions{
			Rerender:    true,
			ClearErrors: true,
		})
	}

	e.runChain(ctx, cont)
}
