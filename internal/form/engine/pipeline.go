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

package engine

import (
	"context"
	"strings"

	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/fieldstore"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/form/rules"
	"github.com/feathery-org/formflow/internal/form/validation"
	"github.com/feathery-org/formflow/internal/system/error/serviceerror"
	"github.com/feathery-org/formflow/internal/system/log"
)

// stepEntry controls how a step entry updates the back-navigation map.
type stepEntry struct {
	// recordNav records the transition in the back-navigation map. Initial
	// entry and back navigation leave the map untouched.
	recordNav bool
	// redirect marks a silent programmatic transition; the new step's back
	// target becomes the grandparent of the navigation chain.
	redirect bool
}

// runActionsLocked is the event pipeline entry: before rules, then the
// executor chain. The after phase, recompute, and possible navigation run
// from ChainFinished once the chain completes, including after an external
// flow resume.
func (s *Session) runActionsLocked(ctx context.Context, trigger *model.Trigger, actions []model.Action, submit bool) {
	if s.navigator.Status() != constants.SessionStatusActive {
		return
	}
	s.ruleSet.Run(rules.Invocation{
		Event:       constants.EventAction,
		Phase:       constants.RulePhaseBefore,
		ElementID:   trigger.ID,
		ActionTypes: model.ChainActionTypes(actions),
	}, s.caps, s.caps)
	s.executor.Run(ctx, trigger, actions, submit)
}

// enterStepLocked is the sole step lifecycle entry. It cancels stale per-step
// work, updates the navigation state, recomputes visibility, fires the load
// lifecycle, and handles terminal completion exactly once.
func (s *Session) enterStepLocked(ctx context.Context, key string, entry stepEntry) *serviceerror.ServiceError {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName),
		log.String(log.LoggerKeySessionID, s.id))

	step := s.form.StepByKey(key)
	if step == nil {
		svcErr := constants.ErrorInvalidStepKey
		svcErr.ErrorDescription = "no step with key: " + key
		return &svcErr
	}
	if s.navigator.Status() == constants.SessionStatusOff {
		return nil
	}

	logger.Debug("Entering step", log.String(log.LoggerKeyStepKey, key))

	// Invalidate in-flight per-step work. Pending external flow results for
	// abandoned elements become no-ops.
	s.scheduler.Cancel()
	s.executor.AbandonStep()

	previous := s.navigator.CurrentStepKey()
	if entry.recordNav {
		s.navigator.RecordTransition(previous, key, entry.redirect)
	}
	s.navigator.SetCurrent(key)

	// Transient per-step state.
	s.fields.SetAutoValidate(false)
	s.inlineErrors = make(map[string]string)
	s.pendingNav = ""

	s.recomputeLocked()

	s.ruleSet.Run(rules.Invocation{Event: constants.EventLoad}, s.caps, s.caps)
	if s.applyPendingNavLocked(ctx) {
		return nil
	}
	s.fireCallback(s.callbacks.OnLoad, &model.CallbackContext{
		StepKey: key,
		Fields:  s.fields.Values(),
	})
	s.registerEventAsync(ctx, string(constants.EventLoad), map[string]interface{}{"step_key": key})

	if s.navigator.Terminal(step) && s.navigator.MarkCompleted() {
		s.ruleSet.Run(rules.Invocation{Event: constants.EventComplete}, s.caps, s.caps)
		s.fireCallback(s.callbacks.OnFormComplete, &model.CallbackContext{
			StepKey:   key,
			Fields:    s.fields.Values(),
			OffReason: s.navigator.OffReason(),
		})
		s.registerEventAsync(ctx, string(constants.EventComplete), map[string]interface{}{"step_key": key})
	}

	s.snapshotLocked()
	return nil
}

// recomputeLocked recomputes visibility for the loaded step and applies the
// clear-hidden-fields policy through the store's standard update path.
func (s *Session) recomputeLocked() {
	if s.recomputing {
		return
	}
	step := s.navigator.CurrentStep()
	if step == nil {
		return
	}
	s.recomputing = true
	defer func() { s.recomputing = false }()

	s.positions = s.resolver.ComputeVisible(step, s.fields)

	if s.cfg.Runtime.ClearHiddenFields {
		cleared := false
		for _, key := range s.resolver.HiddenFieldKeys(step, s.positions) {
			if s.fields.ResetToDefault(key, fieldstore.UpdateOptions{}) {
				cleared = true
			}
		}
		if cleared {
			s.positions = s.resolver.ComputeVisible(step, s.fields)
		}
	}
}

// runValidationLocked runs a debounced validation pass over the visible
// positions and publishes the inline error map.
func (s *Session) runValidationLocked() {
	step := s.navigator.CurrentStep()
	if step == nil {
		return
	}
	result := validation.Validate(step, s.positions, s.fields.Values())
	s.inlineErrors = result.InlineErrors
	s.publishInlineErrorsLocked()
}

// validateForSubmitLocked is the submit pre-step: validate everything
// visible, and on failure flip the auto-validate flag so subsequent edits
// re-validate eagerly.
func (s *Session) validateForSubmitLocked() bool {
	step := s.navigator.CurrentStep()
	if step == nil {
		return false
	}
	result := validation.Validate(step, s.positions, s.fields.Values())
	if !result.Invalid {
		return true
	}
	s.fields.SetAutoValidate(true)
	s.inlineErrors = result.InlineErrors
	s.publishInlineErrorsLocked()
	return false
}

func (s *Session) publishInlineErrorsLocked() {
	if s.callbacks.OnInlineErrors == nil {
		return
	}
	errs := make(map[string]string, len(s.inlineErrors))
	for key, message := range s.inlineErrors {
		errs[key] = message
	}
	s.callbacks.OnInlineErrors(errs)
}

// applyPendingNavLocked performs a navigation requested by rule code and
// reports whether one happened. Rule navigations are silent programmatic
// redirects for back-navigation purposes.
func (s *Session) applyPendingNavLocked(ctx context.Context) bool {
	if s.pendingNav == "" {
		return false
	}
	target := s.pendingNav
	s.pendingNav = ""
	if target == s.navigator.CurrentStepKey() {
		return false
	}
	if svcErr := s.enterStepLocked(ctx, target, stepEntry{recordNav: true, redirect: true}); svcErr != nil {
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).
			Error("Rule navigation failed", log.String(log.LoggerKeyStepKey, target),
				log.String("description", svcErr.ErrorDescription))
		return false
	}
	return true
}

// visibleValuesLocked returns the values of fields with at least one visible
// position, the payload shape of a step submit.
func (s *Session) visibleValuesLocked() map[string]interface{} {
	step := s.navigator.CurrentStep()
	payload := make(map[string]interface{})
	if step == nil {
		return payload
	}
	for _, field := range step.Fields {
		for _, position := range s.positions {
			if position.ElementID == field.ID && position.Visible {
				if value, ok := s.fields.Value(field.Key); ok {
					payload[field.Key] = value
				}
				break
			}
		}
	}
	return payload
}

// snapshotLocked persists the session snapshot when a session store is
// configured. Failures are logged; snapshots are best effort.
func (s *Session) snapshotLocked() {
	if s.snapshots == nil {
		return
	}
	state := &model.SessionState{
		CurrentStepKey: s.navigator.CurrentStepKey(),
		FieldValues:    s.fields.Values(),
		BackNav:        s.navigator.BackNav(),
		Completed:      s.navigator.Completed(),
		OffReason:      s.navigator.OffReason(),
	}
	if err := s.snapshots.StoreSessionSnapshot(s.id, s.form.ID, state); err != nil {
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).
			Warn("Session snapshot failed", log.Error(err))
	}
}

// registerEventAsync records a lifecycle event with the backend without
// blocking the pipeline.
func (s *Session) registerEventAsync(ctx context.Context, event string, payload map[string]interface{}) {
	if s.transport == nil {
		return
	}
	go func() {
		if err := s.transport.RegisterEvent(ctx, event, payload); err != nil {
			log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).
				Warn("Event registration failed", log.String("event", event), log.Error(err))
		}
	}()
}

// fireCallback invokes one lifecycle callback when set. Callbacks run with
// the session lock held and must not call back into the session.
func (s *Session) fireCallback(callback func(ctx *model.CallbackContext), cbCtx *model.CallbackContext) {
	if callback != nil {
		callback(cbCtx)
	}
}

// Store hooks. All fire inside the store's update entrypoint with the
// session lock held.

func (s *Session) onRerender(immediate bool) {
	if immediate {
		s.recomputeLocked()
		if s.callbacks.OnRerender != nil {
			s.callbacks.OnRerender(true)
		}
		return
	}
	s.scheduler.RequestRerender()
}

func (s *Session) onValidateRequested() {
	s.scheduler.RequestValidation()
}

func (s *Session) onClearErrors(keys []string) {
	for _, key := range keys {
		delete(s.inlineErrors, key)
		for errKey := range s.inlineErrors {
			if strings.HasPrefix(errKey, key+".") {
				delete(s.inlineErrors, errKey)
			}
		}
	}
}

func (s *Session) onStoreChange(changes map[string]interface{}) {
	if s.snapshots != nil {
		for key, value := range changes {
			s.snapshots.QueuePendingWrite(s.id, key, value)
		}
	}
	if !s.inChangeRules {
		s.inChangeRules = true
		s.ruleSet.Run(rules.Invocation{Event: constants.EventChange}, s.caps, s.caps)
		s.inChangeRules = false
	}
	s.fireCallback(s.callbacks.OnChange, &model.CallbackContext{
		StepKey: s.navigator.CurrentStepKey(),
		Fields:  changes,
	})
}

func (s *Session) dependencyKeys() map[string]bool {
	step := s.navigator.CurrentStep()
	if step == nil {
		return nil
	}
	return s.resolver.DependencySet(step)
}

// Scheduler callbacks. These fire on timer goroutines and re-enter the lock.

func (s *Session) onValidateQuietElapsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runValidationLocked()
}

func (s *Session) onRerenderQuietElapsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
	if s.callbacks.OnRerender != nil {
		s.callbacks.OnRerender(false)
	}
}

// sessionCaps is the lock-free surface the executor and rule runner drive.
// Every method except Reenter assumes the session lock is held.
type sessionCaps struct {
	s *Session
}

// rules.Capabilities

func (c *sessionCaps) FieldValue(key string) interface{} {
	value, _ := c.s.fields.Value(key)
	return value
}

func (c *sessionCaps) SetFieldValues(changes map[string]interface{}) {
	if c.s.fields.Update(changes, fieldstore.UpdateOptions{ClearErrors: true}) {
		for key, value := range changes {
			c.s.pendingWrites[key] = value
		}
	}
}

func (c *sessionCaps) GoToStep(stepKey string) {
	c.s.pendingNav = stepKey
}

func (c *sessionCaps) CurrentStepKey() string {
	return c.s.navigator.CurrentStepKey()
}

func (c *sessionCaps) SetFieldOptions(fieldKey string, options []string) {
	if field := c.s.fields.Field(fieldKey); field != nil {
		field.PatchOptions(options)
		if c.s.callbacks.OnRerender != nil {
			c.s.callbacks.OnRerender(true)
		}
	}
}

func (c *sessionCaps) SetFieldProperties(fieldKey string, properties map[string]interface{}) {
	if field := c.s.fields.Field(fieldKey); field != nil {
		field.PatchProperties(properties)
		if c.s.callbacks.OnRerender != nil {
			c.s.callbacks.OnRerender(true)
		}
	}
}

// rules.Flusher

// FlushPending pushes rule-made field mutations to the persistence boundary.
// The transport calls run off the lock; a failure is logged and dropped.
func (c *sessionCaps) FlushPending() {
	s := c.s
	if len(s.pendingWrites) == 0 || s.transport == nil {
		return
	}
	writes := s.pendingWrites
	s.pendingWrites = make(map[string]interface{})
	go func() {
		logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))
		if err := s.transport.SubmitCustom(context.Background(), writes); err != nil {
			logger.Warn("Custom field submit failed", log.Error(err))
			return
		}
		if err := s.transport.FlushCustomFields(context.Background()); err != nil {
			logger.Warn("Custom field flush failed", log.Error(err))
		}
	}()
}

// action.Runtime

func (c *sessionCaps) Store() *fieldstore.Store {
	return c.s.fields
}

func (c *sessionCaps) CurrentStep() *model.Step {
	return c.s.navigator.CurrentStep()
}

func (c *sessionCaps) ValidateStep() bool {
	return c.s.validateForSubmitLocked()
}

func (c *sessionCaps) LaunchSubmit(ctx context.Context, trigger *model.Trigger) {
	s := c.s
	s.ruleSet.Run(rules.Invocation{Event: constants.EventSubmit, ElementID: trigger.ID}, s.caps, s.caps)
	s.fireCallback(s.callbacks.OnSubmit, &model.CallbackContext{
		StepKey: s.navigator.CurrentStepKey(),
		Trigger: trigger,
		Fields:  s.fields.Values(),
	})
	if s.transport == nil {
		return
	}
	stepKey := s.navigator.CurrentStepKey()
	payload := s.visibleValuesLocked()
	go func() {
		if err := s.transport.SubmitStep(ctx, stepKey, payload); err != nil {
			logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))
			logger.Error("Step submit failed", log.String(log.LoggerKeyStepKey, stepKey), log.Error(err))
			s.mu.Lock()
			s.fireCallback(s.callbacks.OnError, &model.CallbackContext{
				StepKey: stepKey,
				Trigger: trigger,
				Error:   err.Error(),
			})
			s.mu.Unlock()
		}
	}()
}

func (c *sessionCaps) NavigateNext(trigger *model.Trigger) *serviceerror.ServiceError {
	s := c.s
	step := s.navigator.CurrentStep()
	if step == nil {
		return &constants.ErrorNoStepLoaded
	}
	next := s.navigator.ResolveNext(step, trigger, s.fields.Values())
	if next == "" {
		return nil
	}
	return s.enterStepLocked(context.Background(), next, stepEntry{recordNav: true})
}

func (c *sessionCaps) NavigateBack() *serviceerror.ServiceError {
	s := c.s
	target, ok := s.navigator.BackTarget()
	if !ok {
		return nil
	}
	return s.enterStepLocked(context.Background(), target, stepEntry{})
}

func (c *sessionCaps) NavigateTo(stepKey string) *serviceerror.ServiceError {
	return c.s.enterStepLocked(context.Background(), stepKey, stepEntry{recordNav: true, redirect: true})
}

func (c *sessionCaps) OpenURL(url string, newTab bool) {
	if c.s.callbacks.OnURL != nil {
		c.s.callbacks.OnURL(url, newTab)
	}
}

func (c *sessionCaps) StartNewSubmission() *serviceerror.ServiceError {
	s := c.s
	s.scheduler.Cancel()
	s.executor.AbandonStep()
	s.fields.ResetAll()
	s.navigator.Reset()
	s.inlineErrors = make(map[string]string)
	s.pendingNav = ""
	s.pendingWrites = make(map[string]interface{})
	return s.enterStepLocked(context.Background(), s.form.FirstStepKey, stepEntry{})
}

func (c *sessionCaps) Logout() *serviceerror.ServiceError {
	s := c.s
	s.scheduler.Cancel()
	s.executor.AbandonStep()
	s.navigator.TurnOff(constants.OffReasonClosed)
	s.snapshotLocked()
	return nil
}

func (c *sessionCaps) Providers() *model.ProviderRegistry {
	return c.s.providers
}

func (c *sessionCaps) Transport() model.FormTransport {
	return c.s.transport
}

func (c *sessionCaps) FieldUpdater() model.FieldUpdater {
	return &lockingFieldUpdater{s: c.s}
}

func (c *sessionCaps) ReportChainError(trigger *model.Trigger, svcErr *serviceerror.ServiceError) {
	s := c.s
	s.pendingNav = ""
	s.ruleSet.Run(rules.Invocation{Event: constants.EventError, ElementID: trigger.ID}, s.caps, s.caps)
	s.fireCallback(s.callbacks.OnError, &model.CallbackContext{
		StepKey: s.navigator.CurrentStepKey(),
		Trigger: trigger,
		Fields:  s.fields.Values(),
		Error:   svcErr.ErrorDescription,
	})
	s.registerEventAsync(context.Background(), string(constants.EventError), map[string]interface{}{
		"element_id": trigger.ID,
		"code":       svcErr.Code,
	})
}

func (c *sessionCaps) ChainFinished(trigger *model.Trigger, actionTypes []constants.ActionType) {
	s := c.s
	s.ruleSet.Run(rules.Invocation{
		Event:       constants.EventAction,
		Phase:       constants.RulePhaseAfter,
		ElementID:   trigger.ID,
		ActionTypes: actionTypes,
	}, s.caps, s.caps)
	s.recomputeLocked()
	s.fireCallback(s.callbacks.OnAction, &model.CallbackContext{
		StepKey:     s.navigator.CurrentStepKey(),
		Trigger:     trigger,
		Fields:      s.fields.Values(),
		ActionTypes: actionTypes,
	})
	s.applyPendingNavLocked(context.Background())
	s.snapshotLocked()
}

// ChainSuspended reports a chain handed off to an external flow. The after
// phase does not run yet; embedders observe the handoff through OnAction with
// the pending flag set.
func (c *sessionCaps) ChainSuspended(trigger *model.Trigger, actionTypes []constants.ActionType) {
	s := c.s
	s.fireCallback(s.callbacks.OnAction, &model.CallbackContext{
		StepKey:     s.navigator.CurrentStepKey(),
		Trigger:     trigger,
		Fields:      s.fields.Values(),
		ActionTypes: actionTypes,
		Pending:     true,
	})
	s.snapshotLocked()
}

func (c *sessionCaps) Reenter(fn func()) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	fn()
}

// lockingFieldUpdater is the provider-facing write surface. Providers call
// it from their own goroutines, so it takes the session lock.
type lockingFieldUpdater struct {
	s *Session
}

func (u *lockingFieldUpdater) UpdateFields(changes map[string]interface{}) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.fields.Update(changes, fieldstore.UpdateOptions{Rerender: true, ClearErrors: true})
}
