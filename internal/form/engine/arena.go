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
	"sync"
)

// Arena owns the live sessions of one process, keyed by session ID. Sessions
// are explicitly owned state containers, so multiple independent form
// instances can run side by side.
type Arena struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewArena creates an empty session arena.
func NewArena() *Arena {
	return &Arena{sessions: make(map[string]*Session)}
}

// Add registers a session, replacing any previous session with the same ID.
func (a *Arena) Add(session *Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[session.ID()] = session
}

// Get returns the session with the given ID.
func (a *Arena) Get(sessionID string) (*Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	session, ok := a.sessions[sessionID]
	return session, ok
}

// Remove drops the session with the given ID.
func (a *Arena) Remove(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}

// Len returns the number of live sessions.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.sessions)
}
