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
	"sort"
	"sync"
	"time"

	"github.com/folio-reader/folio/pkg/clock"
)

type pendingValue[T any] struct {
	value T
	timer clock.Timer
}

// Debouncer coalesces values per key. Only the latest value put under a key
// is handed to fire, once the key has been quiet for the window.
type Debouncer[T any] struct {
	clock  clock.Clock
	window time.Duration
	fire   func(key string, value T)

	mu      sync.Mutex
	pending map[string]*pendingValue[T]
}

// NewDebouncer returns a new debouncer
func NewDebouncer[T any](c clock.Clock, window time.Duration, fire func(key string, value T)) *Debouncer[T] {
	return &Debouncer[T]{
		clock:   c,
		window:  window,
		fire:    fire,
		pending: map[string]*pendingValue[T]{},
	}
}

// Put replaces the pending value of the key and restarts its window
func (d *Debouncer[T]) Put(key string, value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}

	p := &pendingValue[T]{value: value}
	p.timer = d.clock.AfterFunc(d.window, func() {
		d.mu.Lock()
		if d.pending[key] != p {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()

		d.fire(key, p.value)
	})
	d.pending[key] = p
}

// Len returns the number of keys waiting to fire
func (d *Debouncer[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.pending)
}

// Flush fires every pending value now, in key order
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	values := map[string]T{}
	for key, p := range d.pending {
		p.timer.Stop()
		keys = append(keys, key)
		values[key] = p.value
	}
	d.pending = map[string]*pendingValue[T]{}
	d.mu.Unlock()

	sort.Strings(keys)
	for _, key := range keys {
		d.fire(key, values[key])
	}
}
