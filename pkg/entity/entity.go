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

// Package entity defines the user-state entities that are persisted locally
// and replicated to the remote store, together with their table names.
package entity

import (
	"time"

	"github.com/pkg/errors"
)

// Type identifies a kind of syncable entity
type Type string

const (
	// TypeHighlight is a text highlight in a book
	TypeHighlight Type = "highlight"
	// TypeVocabularyWord is a saved vocabulary word
	TypeVocabularyWord Type = "vocabularyWord"
	// TypeLikedBook is a book the user liked
	TypeLikedBook Type = "likedBook"
	// TypeReaderSettings is the per-book reader display settings
	TypeReaderSettings Type = "readerSettings"
	// TypeReadingProgress is the per-book reading position
	TypeReadingProgress Type = "readingProgress"
)

// ErrUnknownType is returned for a type or table that is not one of the known entities
var ErrUnknownType = errors.New("unknown entity type")

var tables = map[Type]string{
	TypeHighlight:       "highlights",
	TypeVocabularyWord:  "vocabulary_words",
	TypeLikedBook:       "liked_books",
	TypeReaderSettings:  "reader_settings",
	TypeReadingProgress: "reading_progress",
}

// Types returns every entity type in a stable order. Sync cycles push groups in this order.
func Types() []Type {
	return []Type{
		TypeHighlight,
		TypeVocabularyWord,
		TypeLikedBook,
		TypeReaderSettings,
		TypeReadingProgress,
	}
}

// Table returns the table name backing the type, both locally and remotely
func (t Type) Table() string {
	return tables[t]
}

// Valid checks if the type is a known entity type
func (t Type) Valid() bool {
	_, ok := tables[t]
	return ok
}

func (t Type) String() string {
	return string(t)
}

// ParseTable returns the type stored in the given table
func ParseTable(table string) (Type, error) {
	for t, name := range tables {
		if name == table {
			return t, nil
		}
	}

	return "", errors.Wrapf(ErrUnknownType, "table '%s'", table)
}

// Record is a single syncable entity along with its sync metadata.
// ID is stable across the local and remote stores and is the upsert key on both.
// An empty OwnerID means the record was created while signed out.
type Record struct {
	ID        string
	Type      Type
	OwnerID   string
	Payload   Payload
	UpdatedAt time.Time
	Synced    bool
}

// NewRecord wraps the payload in an unsynced record owned by the given user
func NewRecord(p Payload, ownerID string, now time.Time) Record {
	return Record{
		ID:        p.RecordID(),
		Type:      p.EntityType(),
		OwnerID:   ownerID,
		Payload:   p,
		UpdatedAt: now,
		Synced:    false,
	}
}
