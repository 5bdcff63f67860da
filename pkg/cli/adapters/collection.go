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

// Package adapters binds the sync manager to each entity type. Adapters
// hold no sync logic of their own.
package adapters

import (
	"context"

	"github.com/folio-reader/folio/pkg/cli/syncer"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is an error for a record that does not exist locally
	ErrNotFound = errors.New("not found")
	// ErrDuplicateWord is an error for a vocabulary word that is already saved
	ErrDuplicateWord = errors.New("word already saved")
)

// Collection is the typed view of one entity type
type Collection[T entity.Payload] struct {
	m *syncer.Manager
	t entity.Type
}

// NewCollection returns the collection of T
func NewCollection[T entity.Payload](m *syncer.Manager) Collection[T] {
	var zero T

	return Collection[T]{m: m, t: zero.EntityType()}
}

// Type returns the entity type of the collection
func (c Collection[T]) Type() entity.Type {
	return c.t
}

// Put saves the value locally and pushes it
func (c Collection[T]) Put(ctx context.Context, v T) (entity.Record, syncer.Outcome, error) {
	return c.m.Save(ctx, v)
}

// Get returns the local copy of the value with the given id
func (c Collection[T]) Get(id string) (T, error) {
	var zero T

	rec, ok, err := c.m.Get(c.t, id)
	if err != nil {
		return zero, errors.Wrapf(err, "getting %s %s", c.t, id)
	}
	if !ok {
		return zero, errors.Wrapf(ErrNotFound, "%s %s", c.t, id)
	}

	return rec.Payload.(T), nil
}

// Fetch refreshes the collection from the remote store when possible and
// returns the value with the given id
func (c Collection[T]) Fetch(ctx context.Context, id string) (T, error) {
	c.Records(ctx)

	return c.Get(id)
}

// Records returns every record of the collection, refreshed from the remote
// store when possible
func (c Collection[T]) Records(ctx context.Context) []entity.Record {
	return c.m.Load(ctx, c.t)
}

// List returns every value of the collection, refreshed from the remote
// store when possible
func (c Collection[T]) List(ctx context.Context) []T {
	recs := c.Records(ctx)

	ret := make([]T, 0, len(recs))
	for _, rec := range recs {
		ret = append(ret, rec.Payload.(T))
	}

	return ret
}

// Delete removes the value with the given id locally and remotely
func (c Collection[T]) Delete(ctx context.Context, id string) (syncer.Outcome, error) {
	ok, outcome, err := c.m.Remove(ctx, c.t, id)
	if err != nil {
		return outcome, err
	}
	if !ok {
		return outcome, errors.Wrapf(ErrNotFound, "%s %s", c.t, id)
	}

	return outcome, nil
}
