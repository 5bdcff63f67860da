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

// Package connectivity tracks whether the remote store is reachable and
// notifies listeners of transitions
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/pkg/errors"
)

// Probe reports whether the remote store can be reached
type Probe func(ctx context.Context) error

// Monitor holds the online/offline state
type Monitor struct {
	mu       sync.Mutex
	online   bool
	nextID   int
	onOnline map[int]func()
	onChange map[int]func(online bool)
}

// New returns a monitor with the given initial state
func New(online bool) *Monitor {
	return &Monitor{
		online:   online,
		onOnline: map[int]func(){},
		onChange: map[int]func(bool){},
	}
}

// NewFromProbe returns a monitor whose initial state is the result of one probe
func NewFromProbe(ctx context.Context, probe Probe) *Monitor {
	err := probe(ctx)
	if err != nil {
		log.Debug("connectivity probe failed: %s\n", err.Error())
	}

	return New(err == nil)
}

// IsOnline returns the current state
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.online
}

// Set updates the state. Listeners are called only on transitions, after the
// state has been updated and outside of the lock.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online

	var calls []func()
	for _, fn := range m.onChange {
		fn := fn
		calls = append(calls, func() { fn(online) })
	}
	if online {
		for _, fn := range m.onOnline {
			calls = append(calls, fn)
		}
	}
	m.mu.Unlock()

	log.Debug("connectivity changed: online=%t\n", online)

	for _, call := range calls {
		call()
	}
}

// OnOnline registers fn to be called on every offline to online transition.
// It returns a function that removes the listener.
func (m *Monitor) OnOnline(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.onOnline[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.onOnline, id)
	}
}

// OnChange registers fn to be called on every transition with the new state.
// It returns a function that removes the listener.
func (m *Monitor) OnChange(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.onChange[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.onChange, id)
	}
}

// Check runs the probe once and feeds the result into the monitor. A probe
// interrupted by cancellation leaves the state unchanged; one that runs out
// of time counts as offline.
func (m *Monitor) Check(ctx context.Context, probe Probe) {
	err := probe(ctx)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		return
	}

	m.Set(err == nil)
}

// Run probes at the given interval of c until the context is done
func (m *Monitor) Run(ctx context.Context, c clock.Clock, probe Probe, interval time.Duration) {
	ticker := clock.NewTicker(c, interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx, probe)
		}
	}
}
