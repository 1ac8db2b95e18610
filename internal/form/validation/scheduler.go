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

// Package validation runs field validation against visible positions and
// coalesces rapid validation requests behind a quiet period.
package validation

import (
	"sync"
	"time"
)

// Scheduler debounces validation and rerender requests. The two paths are
// independently debounced: the rerender path uses a longer quiet period so an
// unrelated field's keystrokes do not thrash visibility recomputation.
type Scheduler struct {
	mu sync.Mutex

	validateQuiet time.Duration
	rerenderQuiet time.Duration

	validateTimer *time.Timer
	rerenderTimer *time.Timer

	onValidate func()
	onRerender func()
}

// NewScheduler creates a scheduler invoking the given callbacks after the
// respective quiet periods elapse without another request.
func NewScheduler(validateQuiet, rerenderQuiet time.Duration, onValidate, onRerender func()) *Scheduler {
	return &Scheduler{
		validateQuiet: validateQuiet,
		rerenderQuiet: rerenderQuiet,
		onValidate:    onValidate,
		onRerender:    onRerender,
	}
}

// RequestValidation schedules one validation run after the validation quiet
// period. N rapid calls within the window produce exactly one evaluation.
func (s *Scheduler) RequestValidation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.validateTimer != nil {
		s.validateTimer.Stop()
	}
	s.validateTimer = time.AfterFunc(s.validateQuiet, func() {
		s.clearValidateTimer()
		if s.onValidate != nil {
			s.onValidate()
		}
	})
}

// RequestRerender schedules one visibility-driven rerender after the longer
// rerender quiet period, without re-validating.
func (s *Scheduler) RequestRerender() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rerenderTimer != nil {
		s.rerenderTimer.Stop()
	}
	s.rerenderTimer = time.AfterFunc(s.rerenderQuiet, func() {
		s.clearRerenderTimer()
		if s.onRerender != nil {
			s.onRerender()
		}
	})
}

// Cancel drops any pending debounced work. Called on step change so stale
// per-step work cannot fire under the new step.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.validateTimer != nil {
		s.validateTimer.Stop()
		s.validateTimer = nil
	}
	if s.rerenderTimer != nil {
		s.rerenderTimer.Stop()
		s.rerenderTimer = nil
	}
}

func (s *Scheduler) clearValidateTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validateTimer = nil
}

func (s *Scheduler) clearRerenderTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rerenderTimer = nil
}
