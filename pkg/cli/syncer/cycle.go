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
	"context"
	"fmt"

	"github.com/folio-reader/folio/pkg/cli/client"
	"github.com/folio-reader/folio/pkg/cli/consts"
	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
)

const syncKey = "sync"

// group is the unsynced records of one entity type, pushed as one batch
type group struct {
	t    entity.Type
	recs []entity.Record
}

// cycleResult accumulates the outcome of a cycle
type cycleResult struct {
	synced    int
	total     int
	batches   int
	failed    int
	retryable bool
	lastErr   error
}

func (r *cycleResult) fail(err error) {
	r.failed++
	r.lastErr = err
	if client.IsRetryable(err) {
		r.retryable = true
	}
}

// Sync runs a sync cycle for the current owner and returns its final
// progress. Calls made while a cycle is running share its result.
func (m *Manager) Sync(ctx context.Context) Progress {
	v, _, _ := m.group.Do(syncKey, func() (interface{}, error) {
		return m.runCycle(ctx), nil
	})

	return v.(Progress)
}

// TriggerManualSync runs a cycle on demand. It restarts the retry backoff.
func (m *Manager) TriggerManualSync(ctx context.Context) Progress {
	if m.retrier != nil {
		m.retrier.Reset()
	}

	return m.Sync(ctx)
}

func (m *Manager) snapshot(owner string) ([]group, []database.Tombstone, error) {
	var groups []group

	for _, t := range entity.Types() {
		recs, err := m.store.Unsynced(t, owner)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading unsynced %s", t.Table())
		}
		if len(recs) > 0 {
			groups = append(groups, group{t: t, recs: recs})
		}
	}

	tombstones, err := m.store.Tombstones(owner)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading pending deletes")
	}

	return groups, tombstones, nil
}

func (m *Manager) runCycle(ctx context.Context) Progress {
	owner := m.auth.CurrentUserID()
	if owner == "" {
		return m.emit(Progress{Status: StatusQueued, Total: m.countUnsynced(owner), Message: "not logged in"})
	}
	if !m.connectivity.IsOnline() {
		return m.emit(Progress{Status: StatusQueued, Total: m.countUnsynced(owner), Message: "offline"})
	}

	groups, tombstones, err := m.snapshot(owner)
	if err != nil {
		return m.emit(Progress{Status: StatusError, Message: err.Error()})
	}

	var res cycleResult
	for _, g := range groups {
		res.total += len(g.recs)
	}
	res.total += len(tombstones)

	m.setSyncing(true)
	defer m.setSyncing(false)

	m.emit(Progress{Status: StatusSyncing, Synced: 0, Total: res.total})

	res.batches = len(groups) + len(tombstones)
	for _, g := range groups {
		if err := m.pushGroup(ctx, g); err != nil {
			log.Debug("pushing %s failed: %s\n", g.t.Table(), err.Error())
			res.fail(err)
		} else {
			res.synced += len(g.recs)
		}

		m.emit(Progress{Status: StatusSyncing, Synced: res.synced, Total: res.total})
	}

	for _, ts := range tombstones {
		if err := m.sendDelete(ctx, ts); err != nil {
			log.Debug("deleting %s %s failed: %s\n", ts.Type, ts.ID, err.Error())
			res.fail(err)
			continue
		}

		res.synced++
	}

	return m.finish(res)
}

// pushGroup upserts the snapshot of one type and marks what was sent as
// synced. Records written again while the request was in flight stay
// unsynced for the next cycle.
func (m *Manager) pushGroup(ctx context.Context, g group) error {
	rows := make([]entity.Row, 0, len(g.recs))
	for _, rec := range g.recs {
		row, err := entity.ToRow(rec)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if err := m.remote.Upsert(ctx, g.t.Table(), rows); err != nil {
		return err
	}

	for _, rec := range g.recs {
		ok, err := m.store.MarkSyncedIfUnchanged(rec)
		if err != nil {
			log.Warnf("could not mark %s %s synced: %s\n", rec.Type, rec.ID, err.Error())
		} else if !ok {
			log.Debug("%s %s changed during sync\n", rec.Type, rec.ID)
		}
	}

	return nil
}

func (m *Manager) sendDelete(ctx context.Context, ts database.Tombstone) error {
	err := m.remote.Delete(ctx, ts.Type.Table(), ts.ID, ts.OwnerID)

	switch client.KindOf(err) {
	case client.KindNotFound, client.KindPermission:
		log.Warnf("dropping queued delete of %s %s: %s\n", ts.Type, ts.ID, err.Error())
	default:
		if err != nil {
			return err
		}
	}

	return m.store.RemoveTombstone(ts.Type, ts.OwnerID, ts.ID)
}

func (m *Manager) finish(res cycleResult) Progress {
	if res.failed > 0 {
		if res.retryable {
			m.scheduleRetry()
		}

		return m.emit(Progress{
			Status:  StatusError,
			Synced:  res.synced,
			Total:   res.total,
			Message: fmt.Sprintf("%d of %d batches failed: %s", res.failed, res.batches, res.lastErr.Error()),
		})
	}

	if m.retrier != nil {
		m.retrier.Reset()
	}
	if err := database.UpdateSystem(m.store.DB(), consts.SystemLastSyncAt, m.clock.Now().Unix()); err != nil {
		log.Warnf("could not record sync time: %s\n", err.Error())
	}

	return m.emit(Progress{Status: StatusSuccess, Synced: res.synced, Total: res.total})
}
