// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session implements the session store half of C8: per-session
// ordered chat history with exclusive-turn mutation. A session's history is
// never interleaved. The engine holds an exclusive right to mutate one
// session for the duration of a turn, enforced here via Acquire/Release.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/actionloop/agentcore/pkg/llm"
)

// ErrBusy is returned by Acquire when another turn already holds the
// session's exclusive lock.
var ErrBusy = errors.New("session: turn already in progress")

// ErrNotFound is returned by Get when no session exists for the given id.
var ErrNotFound = errors.New("session: not found")

// Session is one conversation's ordered chat-message history plus its
// exclusive-turn lock.
type Session struct {
	ID         string
	CreatedAt  time.Time

	mu         sync.Mutex
	history    []llm.Message
	lastUsedAt time.Time
	busy       bool
}

// LastUsedAt returns when the session last held its exclusive lock.
func (sess *Session) LastUsedAt() time.Time {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.lastUsedAt
}

// Acquire claims the session's exclusive mutation right for the duration
// of a turn. Returns ErrBusy if another turn already holds it; callers
// configure whether that's a hard rejection or a reason to queue.
func (sess *Session) Acquire() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.busy {
		return ErrBusy
	}
	sess.busy = true
	return nil
}

// Release gives up the exclusive mutation right and stamps LastUsedAt.
func (sess *Session) Release() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.busy = false
	sess.lastUsedAt = time.Now()
}

// Append adds messages to the session's history in order. The caller must
// hold the exclusive lock (via Acquire) for the whole turn this belongs to.
func (sess *Session) Append(messages ...llm.Message) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.history = append(sess.history, messages...)
}

// Replace overwrites the session's entire history, for the one mutator
// (C9) that rebuilds the system prompt fresh each turn: it replaces the
// whole ordered history, not just appends to it. The caller must hold the
// exclusive lock for the turn this belongs to.
func (sess *Session) Replace(messages []llm.Message) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.history = messages
}

// Snapshot returns a defensive copy of the current history.
func (sess *Session) Snapshot() []llm.Message {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]llm.Message, len(sess.history))
	copy(out, sess.history)
	return out
}

// isIdle reports whether the session is eligible for eviction: not
// currently holding its exclusive lock and unused since before cutoff.
func (sess *Session) isIdle(cutoff time.Time) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return !sess.busy && sess.lastUsedAt.Before(cutoff)
}

// Store is the concurrent, in-memory session table. Reads/writes to
// distinct sessions never block each other: a per-session mutex (not a
// store-wide lock) guards each session's own history and busy flag.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty, ready-to-use Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it (generating an id if
// empty) if it doesn't exist yet.
func (s *Store) GetOrCreate(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	now := time.Now()
	sess = &Session{ID: id, CreatedAt: now, lastUsedAt: now}
	s.sessions[id] = sess
	return sess
}

// Get returns the session for id, or ErrNotFound.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session outright.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count returns the number of tracked sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle removes sessions idle (not mid-turn, unused) since before
// maxIdle ago, returning how many were evicted.
func (s *Store) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.isIdle(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
