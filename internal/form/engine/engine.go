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

// Package engine provides the form orchestration engine: one session per
// form instance, wiring the field store, visibility resolver, validation
// scheduler, step navigator, action executor, and logic rule runner behind
// a single lock that renders the cooperative event loop.
package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/feathery-org/formflow/internal/form/action"
	"github.com/feathery-org/formflow/internal/form/constants"
	"github.com/feathery-org/formflow/internal/form/fieldstore"
	"github.com/feathery-org/formflow/internal/form/model"
	"github.com/feathery-org/formflow/internal/form/navigation"
	"github.com/feathery-org/formflow/internal/form/rules"
	"github.com/feathery-org/formflow/internal/form/store"
	"github.com/feathery-org/formflow/internal/form/validation"
	"github.com/feathery-org/formflow/internal/form/visibility"
	"github.com/feathery-org/formflow/internal/system/config"
	"github.com/feathery-org/formflow/internal/system/error/serviceerror"
	"github.com/feathery-org/formflow/internal/system/log"
)

const loggerComponentName = "FormEngine"

// Options configure a new session. Transport is required; everything else
// has a working default.
type Options struct {
	// SessionID identifies the session; generated when empty.
	SessionID string
	// Config supplies runtime tunables; DefaultConfig when nil.
	Config *config.Config
	// Transport is the backend transport collaborator.
	Transport model.FormTransport
	// Providers holds the installed third-party flow providers.
	Providers *model.ProviderRegistry
	// Callbacks are the embedding application's lifecycle hooks.
	Callbacks model.Callbacks
	// SessionStore enables session snapshot persistence when set.
	SessionStore *store.SessionStore
	// AuthGate supplies authentication-driven navigation overrides.
	AuthGate navigation.AuthGate
}

// Session is one live form session. All mutable state is guarded by mu;
// every public method takes the lock, and timer or provider goroutines
// re-enter through it, so handlers between suspension points run to
// completion without interleaving.
type Session struct {
	id   string
	cfg  *config.Config
	form *model.Form

	mu sync.Mutex

	fields    *fieldstore.Store
	resolver  *visibility.Resolver
	scheduler *validation.Scheduler
	navigator *navigation.Navigator
	executor  *action.Executor
	ruleSet   *rules.RuleSet

	transport model.FormTransport
	providers *model.ProviderRegistry
	callbacks model.Callbacks
	snapshots *store.SessionStore

	positions    map[string]visibility.Position
	inlineErrors map[string]string

	// pendingNav is a navigation requested by rule code, applied when the
	// surrounding event pipeline completes.
	pendingNav string
	// pendingWrites are rule-made field mutations awaiting the post-event
	// flush to the persistence boundary.
	pendingWrites map[string]interface{}

	inChangeRules bool
	recomputing   bool
	started       bool

	// caps is the lock-free surface handed to rule code and the executor;
	// its methods assume the session lock is already held.
	caps *sessionCaps
}

// NewSession composes a session over an already composed form.
func NewSession(form *model.Form, opts Options) (*Session, *serviceerror.ServiceError) {
	if form == nil {
		return nil, &constants.ErrorFormNotInitialized
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	providers := opts.Providers
	if providers == nil {
		providers = model.NewProviderRegistry()
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	s := &Session{
		id:            sessionID,
		cfg:           cfg,
		form:          form,
		resolver:      visibility.NewResolver(),
		navigator:     navigation.NewNavigator(form, opts.AuthGate),
		transport:     opts.Transport,
		providers:     providers,
		callbacks:     opts.Callbacks,
		snapshots:     opts.SessionStore,
		positions:     make(map[string]visibility.Position),
		inlineErrors:  make(map[string]string),
		pendingWrites: make(map[string]interface{}),
	}

	s.fields = fieldstore.NewStore(fieldstore.Hooks{
		OnRerender:     s.onRerender,
		OnValidate:     s.onValidateRequested,
		OnClearErrors:  s.onClearErrors,
		OnChange:       s.onStoreChange,
		DependencyKeys: s.dependencyKeys,
	})
	s.scheduler = validation.NewScheduler(
		cfg.ValidationQuietPeriod(), cfg.RerenderQuietPeriod(),
		s.onValidateQuietElapsed, s.onRerenderQuietElapsed)
	s.caps = &sessionCaps{s: s}
	s.executor = action.NewExecutor(s.caps)
	s.ruleSet = rules.NewRuleSet(form.Rules, cfg.RuleTimeout())

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start seals the field bindings, restores any stored session state, and
// enters the resumed or first step. Transport failures during restore fall
// back to a fresh session on the first step.
func (s *Session) Start(ctx context.Context) *serviceerror.ServiceError {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName),
		log.String(log.LoggerKeySessionID, s.id))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.fields.Seal(s.form)

	entry := s.form.FirstStepKey
	if s.transport != nil {
		state, err := s.transport.FetchSession(ctx, s.form.Key)
		if err != nil {
			logger.Warn("Session fetch failed; starting from the first step", log.Error(err))
		} else if state != nil {
			s.fields.Restore(state.FieldValues)
			s.navigator.RestoreBackNav(state.BackNav)
			s.navigator.RestoreCompleted(state.Completed)
			if state.OffReason != "" {
				s.navigator.TurnOff(state.OffReason)
			}
			if state.CurrentStepKey != "" && s.form.StepByKey(state.CurrentStepKey) != nil {
				entry = state.CurrentStepKey
			}
		}
	}

	return s.enterStepLocked(ctx, entry, stepEntry{})
}

// HandleTrigger runs the action chain of the element identified by the
// trigger. Buttons carry their declared actions and submit flag; other
// trigger kinds run the actions supplied by the embedding application
// through RunActions.
func (s *Session) HandleTrigger(ctx context.Context, trigger *model.Trigger) *serviceerror.ServiceError {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := s.navigator.CurrentStep()
	if step == nil {
		return &constants.ErrorNoStepLoaded
	}
	button := step.ButtonByID(trigger.ID)
	if button == nil {
		svcErr := constants.ErrorInvalidActionParams
		svcErr.ErrorDescription = "no button with element id: " + trigger.ID
		return &svcErr
	}
	s.runActionsLocked(ctx, trigger, button.Actions, button.Submit)
	return nil
}

// RunActions runs an explicit action chain for the trigger.
func (s *Session) RunActions(ctx context.Context, trigger *model.Trigger, actions []model.Action, submit bool) *serviceerror.ServiceError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.navigator.CurrentStep() == nil {
		return &constants.ErrorNoStepLoaded
	}
	s.runActionsLocked(ctx, trigger, actions, submit)
	return nil
}

// HandleFieldChange applies user-driven field edits through the store.
func (s *Session) HandleFieldChange(ctx context.Context, changes map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields.Update(changes, fieldstore.UpdateOptions{ClearErrors: true, TriggerErrors: true})
}

// HandleView fires the view lifecycle for an element scrolled into view.
func (s *Session) HandleView(elementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleSet.Run(rules.Invocation{Event: constants.EventView, ElementID: elementID}, s.caps, s.caps)
	s.fireCallback(s.callbacks.OnView, &model.CallbackContext{
		StepKey: s.navigator.CurrentStepKey(),
		Fields:  s.fields.Values(),
	})
}

// TurnOff moves the session into the off state with the given reason.
func (s *Session) TurnOff(reason constants.OffReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.Cancel()
	s.executor.AbandonStep()
	s.navigator.TurnOff(reason)
	s.snapshotLocked()
}

// Values returns a snapshot of the current field values.
func (s *Session) Values() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields.Values()
}

// InlineErrors returns a copy of the current inline error map.
func (s *Session) InlineErrors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make(map[string]string, len(s.inlineErrors))
	for key, message := range s.inlineErrors {
		errs[key] = message
	}
	return errs
}

// CurrentStepKey returns the key of the loaded step.
func (s *Session) CurrentStepKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigator.CurrentStepKey()
}

// Positions returns a copy of the current visibility positions.
func (s *Session) Positions() map[string]visibility.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	positions := make(map[string]visibility.Position, len(s.positions))
	for key, position := range s.positions {
		positions[key] = position
	}
	return positions
}

// Status returns the session status.
func (s *Session) Status() constants.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigator.Status()
}
