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

// Package syncer reconciles the local store with the remote store. Every
// write lands locally first and reaches the remote store when the user is
// signed in and the network is available.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/folio-reader/folio/pkg/cli/client"
	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Remote is the remote store
type Remote interface {
	Upsert(ctx context.Context, table string, rows []entity.Row) error
	Delete(ctx context.Context, table, id, ownerID string) error
	SelectAll(ctx context.Context, table, ownerID string) ([]entity.Row, error)
}

// Auth provides the signed-in user. An empty id means signed out.
type Auth interface {
	CurrentUserID() string
}

// Connectivity reports whether the remote store is reachable
type Connectivity interface {
	IsOnline() bool
}

// Outcome is the result of a write as far as the remote store is concerned
type Outcome int

const (
	// OutcomeQueued means the record is stored locally and waits for a sync cycle
	OutcomeQueued Outcome = iota
	// OutcomeSynced means the remote store confirmed the record
	OutcomeSynced
	// OutcomeRejected means the remote store refused the record and retrying will not help
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSynced:
		return "synced"
	case OutcomeRejected:
		return "rejected"
	default:
		return "queued"
	}
}

// Params are the dependencies of a manager
type Params struct {
	Store        *database.Store
	Remote       Remote
	Auth         Auth
	Connectivity Connectivity
	Clock        clock.Clock
	// RetryMin is the delay before the first automatic retry of a failed
	// cycle. Zero disables automatic retries.
	RetryMin time.Duration
	// RetryMax caps the retry delay
	RetryMax time.Duration
}

// Manager moves records between the local and remote stores
type Manager struct {
	store        *database.Store
	remote       Remote
	auth         Auth
	connectivity Connectivity
	clock        clock.Clock

	group   singleflight.Group
	retrier *Retrier

	mu        sync.Mutex
	baseCtx   context.Context
	syncing   bool
	nextID    int
	listeners map[int]func(Progress)
	last      Progress
}

// New returns a new manager
func New(p Params) *Manager {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}

	m := &Manager{
		store:        p.Store,
		remote:       p.Remote,
		auth:         p.Auth,
		connectivity: p.Connectivity,
		clock:        c,
		baseCtx:      context.Background(),
		listeners:    map[int]func(Progress){},
		last:         Progress{Status: StatusIdle},
	}

	if p.RetryMin > 0 {
		m.retrier = NewRetrier(c, p.RetryMin, p.RetryMax, func() {
			m.mu.Lock()
			ctx := m.baseCtx
			m.mu.Unlock()

			m.Sync(ctx)
		})
	}

	return m
}

// Store returns the local store
func (m *Manager) Store() *database.Store {
	return m.store
}

// Clock returns the clock used to stamp writes
func (m *Manager) Clock() clock.Clock {
	return m.clock
}

// CurrentUserID returns the owner of new writes
func (m *Manager) CurrentUserID() string {
	return m.auth.CurrentUserID()
}

func (m *Manager) canReachRemote() bool {
	return m.auth.CurrentUserID() != "" && m.connectivity.IsOnline()
}

// Get returns the local copy of a record of the current owner
func (m *Manager) Get(t entity.Type, id string) (entity.Record, bool, error) {
	return m.store.Get(t, m.auth.CurrentUserID(), id)
}

// Write validates the payload and stores it locally as an unsynced record of
// the current owner. Nothing is sent to the remote store.
func (m *Manager) Write(p entity.Payload) (entity.Record, error) {
	if err := entity.Validate(p); err != nil {
		return entity.Record{}, err
	}

	rec := entity.NewRecord(p, m.auth.CurrentUserID(), m.clock.Now())
	if err := m.store.Put(rec); err != nil {
		return entity.Record{}, errors.Wrap(err, "saving locally")
	}

	return rec, nil
}

// Save writes the payload locally and then tries to push it
func (m *Manager) Save(ctx context.Context, p entity.Payload) (entity.Record, Outcome, error) {
	rec, err := m.Write(p)
	if err != nil {
		return entity.Record{}, OutcomeQueued, err
	}

	return rec, m.Push(ctx, rec), nil
}

// Push sends one stored record to the remote store as a single-record batch.
// The local copy is marked synced only if it did not change in the meantime.
func (m *Manager) Push(ctx context.Context, rec entity.Record) Outcome {
	if rec.OwnerID == "" || rec.OwnerID != m.auth.CurrentUserID() || !m.connectivity.IsOnline() {
		return OutcomeQueued
	}

	row, err := entity.ToRow(rec)
	if err != nil {
		log.Warnf("could not push %s %s: %s\n", rec.Type, rec.ID, err.Error())
		return OutcomeRejected
	}

	if err := m.remote.Upsert(ctx, rec.Type.Table(), []entity.Row{row}); err != nil {
		return m.pushFailed(rec, err)
	}

	if _, err := m.store.MarkSyncedIfUnchanged(rec); err != nil {
		log.Warnf("could not mark %s %s synced: %s\n", rec.Type, rec.ID, err.Error())
	}

	return OutcomeSynced
}

func (m *Manager) pushFailed(rec entity.Record, err error) Outcome {
	switch {
	case client.IsRetryable(err):
		log.Debug("push of %s %s failed, queued: %s\n", rec.Type, rec.ID, err.Error())
		m.scheduleRetry()
		return OutcomeQueued
	case client.KindOf(err) == client.KindAuth:
		log.Warnf("session expired, %s %s will sync after you log in again\n", rec.Type, rec.ID)
		return OutcomeQueued
	default:
		log.Warnf("the server rejected %s %s: %s\n", rec.Type, rec.ID, err.Error())
		return OutcomeRejected
	}
}

// Remove deletes a record of the current owner locally and remotely. When
// the remote delete cannot be sent now it is queued for the next cycle. It
// reports whether a local record was removed.
func (m *Manager) Remove(ctx context.Context, t entity.Type, id string) (bool, Outcome, error) {
	owner := m.auth.CurrentUserID()

	ok, err := m.store.Delete(t, owner, id)
	if err != nil {
		return false, OutcomeQueued, errors.Wrap(err, "deleting locally")
	}
	if owner == "" {
		return ok, OutcomeQueued, nil
	}

	if m.connectivity.IsOnline() {
		err := m.remote.Delete(ctx, t.Table(), id, owner)
		if err == nil {
			return ok, OutcomeSynced, nil
		}
		if !client.IsRetryable(err) && client.KindOf(err) != client.KindAuth {
			log.Warnf("the server refused to delete %s %s: %s\n", t, id, err.Error())
			return ok, OutcomeRejected, nil
		}

		log.Debug("delete of %s %s failed, queued: %s\n", t, id, err.Error())
		m.scheduleRetry()
	}

	ts := database.Tombstone{Type: t, ID: id, OwnerID: owner, DeletedAt: m.clock.Now()}
	if err := m.store.AddTombstone(ts); err != nil {
		return ok, OutcomeQueued, errors.Wrap(err, "queueing remote delete")
	}

	return ok, OutcomeQueued, nil
}

// Restore puts a previously read record back into the local store as it was,
// without contacting the remote store
func (m *Manager) Restore(rec entity.Record) error {
	if err := m.store.Put(rec); err != nil {
		return errors.Wrap(err, "restoring locally")
	}

	return nil
}

// Discard deletes the local copy of a record of the current owner without
// contacting the remote store
func (m *Manager) Discard(t entity.Type, id string) error {
	if _, err := m.store.Delete(t, m.auth.CurrentUserID(), id); err != nil {
		return errors.Wrap(err, "discarding locally")
	}

	return nil
}

// Load returns the records of a type for the current owner. When the remote
// store can be reached its listing is merged into the local store first;
// otherwise the local copy is returned as is. Local read failures are logged
// and yield an empty list.
func (m *Manager) Load(ctx context.Context, t entity.Type) []entity.Record {
	owner := m.auth.CurrentUserID()

	if m.canReachRemote() {
		if err := m.refresh(ctx, t, owner); err != nil {
			log.Debug("using local %s: %s\n", t.Table(), err.Error())
		}
	}

	recs, err := m.store.List(t, owner)
	if err != nil {
		log.Errorf("reading local %s: %s\n", t.Table(), err.Error())
		return []entity.Record{}
	}

	return recs
}

func (m *Manager) refresh(ctx context.Context, t entity.Type, owner string) error {
	rows, err := m.remote.SelectAll(ctx, t.Table(), owner)
	if err != nil {
		return err
	}

	recs := make([]entity.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := entity.FromRow(t, row)
		if err != nil {
			log.Warnf("skipping remote %s %s: %s\n", t, row.ID, err.Error())
			continue
		}
		recs = append(recs, rec)
	}

	res, err := m.store.Refresh(t, owner, recs)
	if err != nil {
		return errors.Wrap(err, "merging remote rows")
	}

	log.Debug("refreshed %s: stored %d, removed %d, kept %d\n", t.Table(), res.Stored, res.Removed, res.Kept)
	logOverwrites(res.Overwritten)

	return nil
}

// HandleAuthChange reacts to a sign-in or sign-out. Signing in claims the
// records written while signed out and starts a cycle. The user's remote
// vocabulary is fetched before the claim so that words saved on other devices
// are not claimed twice. Signing out leaves local records in place.
func (m *Manager) HandleAuthChange(ctx context.Context, oldUserID, newUserID string) {
	if newUserID == "" {
		if m.retrier != nil {
			m.retrier.Reset()
		}
		log.Debug("signed out of %s\n", oldUserID)
		return
	}

	if m.connectivity.IsOnline() {
		if err := m.refresh(ctx, entity.TypeVocabularyWord, newUserID); err != nil {
			log.Debug("claiming against local vocabulary: %s\n", err.Error())
		}
	}

	n, err := m.store.ClaimUnowned(newUserID)
	if err != nil {
		log.Errorf("attributing local records to the signed-in user: %s\n", err.Error())
	} else if n > 0 {
		log.Debug("claimed %d local records\n", n)
	}

	m.Sync(ctx)
}

// Monitor is the connectivity source the manager attaches to
type Monitor interface {
	OnOnline(fn func()) func()
}

// Subscriber is the auth source the manager attaches to
type Subscriber interface {
	Subscribe(fn func(oldUserID, newUserID string)) func()
}

// Attach runs a sync cycle whenever connectivity returns or the user changes.
// Retries scheduled afterwards run with ctx. It returns a function that
// detaches the manager.
func (m *Manager) Attach(ctx context.Context, monitor Monitor, auth Subscriber) func() {
	m.mu.Lock()
	m.baseCtx = ctx
	m.mu.Unlock()

	offOnline := monitor.OnOnline(func() {
		log.Debug("back online, syncing\n")
		m.Sync(ctx)
	})
	offAuth := auth.Subscribe(func(oldUserID, newUserID string) {
		m.HandleAuthChange(ctx, oldUserID, newUserID)
	})

	return func() {
		offOnline()
		offAuth()
	}
}

// Close stops a pending automatic retry
func (m *Manager) Close() {
	if m.retrier != nil {
		m.retrier.Stop()
	}
}

func (m *Manager) scheduleRetry() {
	if m.retrier == nil {
		return
	}

	d := m.retrier.Schedule()
	log.Debug("retrying in %s\n", d)
}
