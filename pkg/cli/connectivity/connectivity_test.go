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

package connectivity

import (
	"context"
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/assert"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/pkg/errors"
)

func TestSet(t *testing.T) {
	m := New(false)

	var onlineCount int
	var changes []bool
	m.OnOnline(func() { onlineCount++ })
	m.OnChange(func(online bool) { changes = append(changes, online) })

	m.Set(true)
	m.Set(true)
	m.Set(false)
	m.Set(false)
	m.Set(true)

	assert.Equal(t, onlineCount, 2, "online listener count mismatch")
	assert.DeepEqual(t, changes, []bool{true, false, true}, "changes mismatch")
	assert.Equal(t, m.IsOnline(), true, "state mismatch")
}

func TestUnsubscribe(t *testing.T) {
	m := New(false)

	var count int
	unsubscribe := m.OnOnline(func() { count++ })

	m.Set(true)
	unsubscribe()
	m.Set(false)
	m.Set(true)

	assert.Equal(t, count, 1, "listener should not be called after unsubscribe")
}

func TestListenerCanReadState(t *testing.T) {
	m := New(false)

	var seen bool
	m.OnOnline(func() { seen = m.IsOnline() })
	m.Set(true)

	assert.Equal(t, seen, true, "listener should observe the new state")
}

func TestNewFromProbe(t *testing.T) {
	testCases := []struct {
		err      error
		expected bool
	}{
		{nil, true},
		{errors.New("unreachable"), false},
	}

	for _, tc := range testCases {
		probe := func(ctx context.Context) error { return tc.err }
		m := NewFromProbe(context.Background(), probe)

		assert.Equal(t, m.IsOnline(), tc.expected, "state mismatch")
	}
}

func TestCheck(t *testing.T) {
	m := New(true)

	var offline int
	m.OnChange(func(online bool) {
		if !online {
			offline++
		}
	})

	m.Check(context.Background(), func(ctx context.Context) error { return errors.New("down") })
	assert.Equal(t, m.IsOnline(), false, "state after failed probe mismatch")

	m.Check(context.Background(), func(ctx context.Context) error { return nil })
	assert.Equal(t, m.IsOnline(), true, "state after probe mismatch")
	assert.Equal(t, offline, 1, "offline transition count mismatch")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Check(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.Equal(t, m.IsOnline(), true, "cancelled probe should not change state")
}

func TestCheck_Timeout(t *testing.T) {
	m := New(true)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	m.Check(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.Equal(t, m.IsOnline(), false, "timed out probe should count as offline")
}

func TestRun(t *testing.T) {
	c := clock.NewMock()
	m := New(true)

	changes := make(chan bool, 4)
	m.OnChange(func(online bool) { changes <- online })

	down := make(chan bool, 1)
	down <- true
	probe := func(ctx context.Context) error {
		select {
		case <-down:
			return errors.New("down")
		default:
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, c, probe, time.Minute)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for c.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("polling did not start")
		}
		time.Sleep(time.Millisecond)
	}

	c.Advance(30 * time.Second)
	assert.Equal(t, m.IsOnline(), true, "nothing should be probed before the interval")

	expected := []bool{false, true}
	for _, want := range expected {
		c.Advance(30 * time.Second)

		select {
		case got := <-changes:
			assert.Equal(t, got, want, "transition mismatch")
		case <-time.After(time.Second):
			t.Fatalf("no transition to online=%t", want)
		}

		c.Advance(30 * time.Second)
	}

	cancel()
	<-done
}
