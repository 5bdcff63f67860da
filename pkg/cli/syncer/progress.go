/* Copyright 2025 Folio Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package syncer

import (
	"github.com/folio-reader/folio/pkg/cli/log"
)

// Status is the state of the most recent sync cycle
type Status string

const (
	// StatusIdle means no cycle has run yet
	StatusIdle Status = "idle"
	// StatusQueued means changes are waiting for the network or a sign-in
	StatusQueued Status = "queued"
	// StatusSyncing means a cycle is in progress
	StatusSyncing Status = "syncing"
	// StatusSuccess means every batch of the last cycle was confirmed
	StatusSuccess Status = "success"
	// StatusError means at least one batch of the last cycle failed
	StatusError Status = "error"
)

// Progress is emitted during a sync cycle
type Progress struct {
	Status  Status
	Synced  int
	Total   int
	Message string
}

// Indicator is the sync state shown to the user
type Indicator struct {
	UnsyncedCount int
	IsOnline      bool
	IsSyncing     bool
	Last          Progress
}

// Subscribe registers fn to receive every progress event and returns a
// function that removes it
func (m *Manager) Subscribe(fn func(Progress)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.listeners, id)
	}
}

// emit records p as the latest progress and hands it to every listener
func (m *Manager) emit(p Progress) Progress {
	m.mu.Lock()
	m.last = p
	listeners := make([]func(Progress), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(p)
	}

	return p
}

func (m *Manager) setSyncing(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncing = v
}

func (m *Manager) countUnsynced(owner string) int {
	n, err := m.store.CountUnsynced(owner)
	if err != nil {
		log.Errorf("counting unsynced records: %s\n", err.Error())
		return 0
	}

	return n
}

// Indicator returns the current sync state of the signed-in user
func (m *Manager) Indicator() Indicator {
	n := m.countUnsynced(m.auth.CurrentUserID())

	m.mu.Lock()
	defer m.mu.Unlock()

	return Indicator{
		UnsyncedCount: n,
		IsOnline:      m.connectivity.IsOnline(),
		IsSyncing:     m.syncing,
		Last:          m.last,
	}
}
