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

package testutils

import (
	"context"
	"sort"
	"sync"

	"github.com/folio-reader/folio/pkg/cli/client"
	"github.com/folio-reader/folio/pkg/entity"
)

// UpsertCall is a recorded call to FakeRemote.Upsert
type UpsertCall struct {
	Table string
	Rows  []entity.Row
}

// DeleteCall is a recorded call to FakeRemote.Delete
type DeleteCall struct {
	Table   string
	ID      string
	OwnerID string
}

// FakeRemote is an in-memory remote store that records the calls made to it
type FakeRemote struct {
	mu         sync.Mutex
	tables     map[string]map[string]entity.Row
	tableErrs  map[string]error
	err        error
	upserts    []UpsertCall
	deletes    []DeleteCall
	selects    int
	beforeCall func()
}

// NewFakeRemote returns an empty fake remote store
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		tables:    map[string]map[string]entity.Row{},
		tableErrs: map[string]error{},
	}
}

// NetworkError returns a transient failure as the client would report it
func NetworkError() error {
	return &client.Error{Kind: client.KindNetwork, Message: "connection refused"}
}

// PermissionError returns a permanent refusal as the client would report it
func PermissionError() error {
	return &client.Error{Kind: client.KindPermission, StatusCode: 403, Message: "forbidden"}
}

func rowKey(ownerID, id string) string {
	return ownerID + "/" + id
}

// FailAll makes every subsequent call fail with err. A nil err restores the store.
func (r *FakeRemote) FailAll(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.err = err
}

// FailTable makes upserts into the table fail with err. A nil err restores the table.
func (r *FakeRemote) FailTable(table string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		delete(r.tableErrs, table)
		return
	}
	r.tableErrs[table] = err
}

// BeforeCall registers fn to run at the start of every call, outside the lock
func (r *FakeRemote) BeforeCall(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.beforeCall = fn
}

func (r *FakeRemote) hook() {
	r.mu.Lock()
	fn := r.beforeCall
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Upsert stores the rows unless a failure is configured
func (r *FakeRemote) Upsert(ctx context.Context, table string, rows []entity.Row) error {
	r.hook()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.upserts = append(r.upserts, UpsertCall{Table: table, Rows: append([]entity.Row(nil), rows...)})

	if r.err != nil {
		return r.err
	}
	if err := r.tableErrs[table]; err != nil {
		return err
	}

	t, ok := r.tables[table]
	if !ok {
		t = map[string]entity.Row{}
		r.tables[table] = t
	}
	for _, row := range rows {
		t[rowKey(row.OwnerID, row.ID)] = row
	}

	return nil
}

// Delete removes the row unless a failure is configured
func (r *FakeRemote) Delete(ctx context.Context, table, id, ownerID string) error {
	r.hook()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.deletes = append(r.deletes, DeleteCall{Table: table, ID: id, OwnerID: ownerID})

	if r.err != nil {
		return r.err
	}

	delete(r.tables[table], rowKey(ownerID, id))

	return nil
}

// SelectAll returns the rows of the owner ordered by id
func (r *FakeRemote) SelectAll(ctx context.Context, table, ownerID string) ([]entity.Row, error) {
	r.hook()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.selects++

	if r.err != nil {
		return nil, r.err
	}

	return r.rowsLocked(table, ownerID), nil
}

func (r *FakeRemote) rowsLocked(table, ownerID string) []entity.Row {
	ret := []entity.Row{}
	for _, row := range r.tables[table] {
		if row.OwnerID == ownerID {
			ret = append(ret, row)
		}
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].ID < ret[j].ID
	})

	return ret
}

// Rows returns the stored rows of the owner ordered by id
func (r *FakeRemote) Rows(table, ownerID string) []entity.Row {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rowsLocked(table, ownerID)
}

// Seed stores a record directly, as if another device had pushed it
func (r *FakeRemote) Seed(rec entity.Record) {
	row, err := entity.ToRow(rec)
	if err != nil {
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[rec.Type.Table()]
	if !ok {
		t = map[string]entity.Row{}
		r.tables[rec.Type.Table()] = t
	}
	t[rowKey(row.OwnerID, row.ID)] = row
}

// Upserts returns the recorded upsert calls
func (r *FakeRemote) Upserts() []UpsertCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]UpsertCall(nil), r.upserts...)
}

// Deletes returns the recorded delete calls
func (r *FakeRemote) Deletes() []DeleteCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]DeleteCall(nil), r.deletes...)
}

// Selects returns the number of select calls
func (r *FakeRemote) Selects() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.selects
}

// ResetCalls forgets the recorded calls
func (r *FakeRemote) ResetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.upserts = nil
	r.deletes = nil
	r.selects = 0
}
