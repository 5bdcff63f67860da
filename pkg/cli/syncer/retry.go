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
	"sync"
	"time"

	"github.com/folio-reader/folio/pkg/clock"
)

// Retrier schedules fn with exponential backoff. Each scheduled attempt
// doubles the delay, starting at min and capped at max, until Reset.
type Retrier struct {
	clock clock.Clock
	min   time.Duration
	max   time.Duration
	fn    func()

	mu      sync.Mutex
	attempt int
	timer   clock.Timer
	delay   time.Duration
}

// NewRetrier returns a new retrier. A zero max means no cap.
func NewRetrier(c clock.Clock, min, max time.Duration, fn func()) *Retrier {
	return &Retrier{
		clock: c,
		min:   min,
		max:   max,
		fn:    fn,
	}
}

// Backoff returns the delay before the given zero-based attempt
func (r *Retrier) Backoff(attempt int) time.Duration {
	d := r.min
	for i := 0; i < attempt; i++ {
		d *= 2
		if r.max > 0 && d >= r.max {
			return r.max
		}
	}

	if r.max > 0 && d > r.max {
		return r.max
	}

	return d
}

// Schedule arranges the next attempt and returns its delay. If an attempt
// is already pending it is left as is.
func (r *Retrier) Schedule() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		return r.delay
	}

	r.delay = r.Backoff(r.attempt)
	r.attempt++

	var t clock.Timer
	t = r.clock.AfterFunc(r.delay, func() {
		r.mu.Lock()
		if r.timer != t {
			r.mu.Unlock()
			return
		}
		r.timer = nil
		r.mu.Unlock()

		r.fn()
	})
	r.timer = t

	return r.delay
}

// Attempts returns the number of attempts scheduled since the last reset
func (r *Retrier) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.attempt
}

// Pending checks if an attempt is scheduled
func (r *Retrier) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.timer != nil
}

// Reset cancels a pending attempt and restarts the backoff
func (r *Retrier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	r.attempt = 0
}

// Stop cancels a pending attempt
func (r *Retrier) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
}

func (r *Retrier) stopLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
