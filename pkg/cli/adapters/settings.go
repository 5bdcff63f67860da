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

package adapters

import (
	"context"

	"github.com/folio-reader/folio/pkg/cli/syncer"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
)

// Settings stores the reader settings of each book
type Settings struct {
	Collection[entity.ReaderSettings]
}

// NewSettings returns the settings adapter
func NewSettings(m *syncer.Manager) *Settings {
	return &Settings{NewCollection[entity.ReaderSettings](m)}
}

// Get returns the settings of the book, or the defaults if none are saved
func (s *Settings) Get(bookSlug string) (entity.ReaderSettings, error) {
	v, err := s.Collection.Get(bookSlug)
	if errors.Is(err, ErrNotFound) {
		return entity.DefaultReaderSettings(bookSlug), nil
	} else if err != nil {
		return entity.ReaderSettings{}, err
	}

	return v, nil
}

// Set saves the settings of a book
func (s *Settings) Set(ctx context.Context, v entity.ReaderSettings) (syncer.Outcome, error) {
	_, outcome, err := s.Put(ctx, v)

	return outcome, err
}

// Fetch refreshes the settings from the remote store when possible and
// returns those of the book
func (s *Settings) Fetch(ctx context.Context, bookSlug string) (entity.ReaderSettings, error) {
	v, err := s.Collection.Fetch(ctx, bookSlug)
	if errors.Is(err, ErrNotFound) {
		return entity.DefaultReaderSettings(bookSlug), nil
	}

	return v, err
}
