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

package clock

import (
	"sync"
	"time"
)

// Ticker delivers the time on C at a fixed interval of the clock it was
// created with. Ticks are dropped while C holds an unread one.
type Ticker struct {
	C <-chan time.Time

	c       chan time.Time
	clock   Clock
	mu      sync.Mutex
	d       time.Duration
	timer   Timer
	gen     int
	stopped bool
}

// NewTicker returns a ticker driven by c. It panics if d is not positive.
func NewTicker(c Clock, d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	ch := make(chan time.Time, 1)
	t := &Ticker{C: ch, c: ch, clock: c, d: d}

	t.mu.Lock()
	t.scheduleLocked()
	t.mu.Unlock()

	return t
}

func (t *Ticker) scheduleLocked() {
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.d, func() { t.tick(gen) })
}

// tick ignores timers scheduled before the last Reset or Stop
func (t *Ticker) tick(gen int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || gen != t.gen {
		return
	}

	select {
	case t.c <- t.clock.Now():
	default:
	}

	t.scheduleLocked()
}

// Reset stops the ticker and restarts it with the new interval
func (t *Ticker) Reset(d time.Duration) {
	if d <= 0 {
		panic("clock: non-positive interval for Ticker.Reset")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	t.d = d
	t.stopped = false
	t.scheduleLocked()
}

// Stop turns the ticker off. No tick is sent after Stop returns.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
