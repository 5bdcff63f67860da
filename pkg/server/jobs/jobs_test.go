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

package jobs

import (
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/assert"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/folio-reader/folio/pkg/server/app"
	"github.com/folio-reader/folio/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestNewRunner(t *testing.T) {
	testCases := []struct {
		spec      string
		expectErr bool
	}{
		{spec: "@hourly", expectErr: false},
		{spec: "@every 5m", expectErr: false},
		{spec: "0 0 * * * *", expectErr: false},
		{spec: "not a schedule", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.spec, func(t *testing.T) {
			_, err := NewRunner([]Job{{Name: "test", Spec: tc.spec, Run: func() error { return nil }}})

			assert.Equal(t, err != nil, tc.expectErr, "error mismatch")
		})
	}
}

func TestRunAll(t *testing.T) {
	var ran []string

	r, err := NewRunner([]Job{
		{Name: "first", Spec: "@hourly", Run: func() error {
			ran = append(ran, "first")
			return errors.New("failed")
		}},
		{Name: "second", Spec: "@hourly", Run: func() error {
			ran = append(ran, "second")
			return nil
		}},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating runner"))
	}

	r.RunAll()

	assert.DeepEqual(t, ran, []string{"first", "second"}, "a failed job should not stop the others")
}

func TestDefault(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	a := app.NewTest(db)
	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	a.Clock.(*clock.Mock).SetNow(now)

	user := testutils.SetupUserData(db, "alice@example.com", "pass1234")
	testutils.SetupSession(db, user, now.Add(-48*time.Hour))
	testutils.SetupSession(db, user, now)

	jobs := Default(&a)
	assert.Equal(t, len(jobs), 2, "job count mismatch")
	assert.Equal(t, jobs[0].Name, "purge_sessions", "job name mismatch")
	assert.Equal(t, jobs[1].Name, "checkpoint", "job name mismatch")

	r, err := NewRunner(jobs)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating runner"))
	}
	r.RunAll()

	assert.Equal(t, testutils.CountRows(t, db, "sessions"), int64(1), "expired session should be purged")
}
