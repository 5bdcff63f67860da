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

package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
)

// Tombstone is a remote delete that could not be sent when the record was removed
type Tombstone struct {
	Type      entity.Type
	ID        string
	OwnerID   string
	DeletedAt time.Time
}

// Overwrite is a local record replaced by a diverging remote copy during a refresh
type Overwrite struct {
	Local  entity.Record
	Remote entity.Record
}

// RefreshResult summarizes how a remote listing was merged into the store
type RefreshResult struct {
	Stored      int
	Removed     int
	Kept        int
	Overwritten []Overwrite
}

// Store reads and writes syncable records. Calls are serialized.
type Store struct {
	db *DB
	mu sync.Mutex
}

// NewStore returns a store backed by the given database
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database
func (s *Store) DB() *DB {
	return s.db
}

func tableOf(t entity.Type) (string, error) {
	if !t.Valid() {
		return "", errors.Wrapf(entity.ErrUnknownType, "'%s'", t)
	}

	return t.Table(), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads a row selected with recordColumns. ok is false when the
// payload could not be decoded; such rows are treated as absent.
func scanRecord(t entity.Type, row rowScanner) (entity.Record, bool, error) {
	var id, ownerID, payload string
	var updatedAt int64
	var synced bool

	if err := row.Scan(&id, &ownerID, &payload, &updatedAt, &synced); err != nil {
		return entity.Record{}, false, err
	}

	p, err := entity.Decode(t, []byte(payload))
	if err != nil {
		log.Warnf("skipping unreadable %s %s: %s\n", t, id, err.Error())
		return entity.Record{}, false, nil
	}

	return entity.Record{
		ID:        id,
		Type:      t,
		OwnerID:   ownerID,
		Payload:   p,
		UpdatedAt: time.Unix(0, updatedAt).UTC(),
		Synced:    synced,
	}, true, nil
}

const recordColumns = "id, owner_id, payload, updated_at, synced"

func queryRecords(db *DB, t entity.Type, where string, args ...interface{}) ([]entity.Record, error) {
	table, err := tableOf(t)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY updated_at ASC, id ASC", recordColumns, table, where), args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	defer rows.Close()

	ret := []entity.Record{}
	for rows.Next() {
		rec, ok, err := scanRecord(t, rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scanning a row from %s", table)
		}
		if ok {
			ret = append(ret, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterating %s", table)
	}

	return ret, nil
}

func getRecord(db *DB, t entity.Type, ownerID, id string) (entity.Record, bool, error) {
	table, err := tableOf(t)
	if err != nil {
		return entity.Record{}, false, err
	}

	row := db.QueryRow(fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND owner_id = ?", recordColumns, table), id, ownerID)
	rec, ok, err := scanRecord(t, row)
	if err == sql.ErrNoRows {
		return entity.Record{}, false, nil
	} else if err != nil {
		return entity.Record{}, false, errors.Wrapf(err, "finding %s %s", t, id)
	}

	return rec, ok, nil
}

func putRecord(db *DB, rec entity.Record) error {
	table, err := tableOf(rec.Type)
	if err != nil {
		return err
	}

	payload, err := entity.Encode(rec.Payload)
	if err != nil {
		return errors.Wrap(err, "encoding payload")
	}

	_, err = db.Exec(fmt.Sprintf(`INSERT INTO %s (id, owner_id, payload, updated_at, synced) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id, owner_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at, synced = excluded.synced`, table),
		rec.ID, rec.OwnerID, string(payload), rec.UpdatedAt.UnixNano(), rec.Synced)
	if err != nil {
		return errors.Wrapf(err, "upserting %s %s", rec.Type, rec.ID)
	}

	return nil
}

func (s *Store) inTx(fn func(tx *DB) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}

// Get returns the record of the given type and id owned by ownerID
func (s *Store) Get(t entity.Type, ownerID, id string) (entity.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return getRecord(s.db, t, ownerID, id)
}

// List returns every record of the type owned by ownerID, oldest first
func (s *Store) List(t entity.Type, ownerID string) ([]entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return queryRecords(s.db, t, "owner_id = ?", ownerID)
}

// Put inserts or replaces the record. Writing a record cancels a pending
// remote delete of the same record.
func (s *Store) Put(rec entity.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(func(tx *DB) error {
		if err := putRecord(tx, rec); err != nil {
			return err
		}

		return removeTombstone(tx, rec.Type, rec.OwnerID, rec.ID)
	})
}

// Delete removes the record. It reports whether a record was removed.
func (s *Store) Delete(t entity.Type, ownerID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := tableOf(t)
	if err != nil {
		return false, err
	}

	res, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ? AND owner_id = ?", table), id, ownerID)
	if err != nil {
		return false, errors.Wrapf(err, "deleting %s %s", t, id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting deleted rows")
	}

	return n > 0, nil
}

// MarkSynced flags the record as confirmed by the remote store. The payload is left untouched.
func (s *Store) MarkSynced(t entity.Type, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := tableOf(t)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(fmt.Sprintf("UPDATE %s SET synced = true WHERE id = ? AND owner_id = ?", table), id, ownerID); err != nil {
		return errors.Wrapf(err, "marking %s %s synced", t, id)
	}

	return nil
}

// MarkSyncedIfUnchanged flags the record as synced only if it was not written
// again after the pushed snapshot was taken. It reports whether the flag was set.
func (s *Store) MarkSyncedIfUnchanged(rec entity.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := tableOf(rec.Type)
	if err != nil {
		return false, err
	}

	payload, err := entity.Encode(rec.Payload)
	if err != nil {
		return false, errors.Wrap(err, "encoding payload")
	}

	res, err := s.db.Exec(fmt.Sprintf("UPDATE %s SET synced = true WHERE id = ? AND owner_id = ? AND updated_at = ? AND payload = ?", table),
		rec.ID, rec.OwnerID, rec.UpdatedAt.UnixNano(), string(payload))
	if err != nil {
		return false, errors.Wrapf(err, "marking %s %s synced", rec.Type, rec.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting updated rows")
	}

	return n > 0, nil
}

// Unsynced returns the records of the type owned by ownerID that the remote store has not confirmed
func (s *Store) Unsynced(t entity.Type, ownerID string) ([]entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return queryRecords(s.db, t, "owner_id = ? AND synced = false", ownerID)
}

// CountUnsynced counts the pending changes of ownerID across every entity
// type, including deletes waiting to be sent.
func (s *Store) CountUnsynced(ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int
	for _, t := range entity.Types() {
		var n int
		if err := s.db.QueryRow(fmt.Sprintf("SELECT count(*) FROM %s WHERE owner_id = ? AND synced = false", t.Table()), ownerID).Scan(&n); err != nil {
			return 0, errors.Wrapf(err, "counting unsynced %s", t)
		}
		total += n
	}

	var n int
	if err := s.db.QueryRow("SELECT count(*) FROM pending_deletes WHERE owner_id = ?", ownerID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "counting pending deletes")
	}

	return total + n, nil
}

// ClaimUnowned attributes every record without an owner to ownerID and marks it
// unsynced. When ownerID already has a record with the same id, the more
// recently updated of the two is kept. An unowned vocabulary word that ownerID
// already saved under another id is dropped. It returns the number of claimed
// records.
func (s *Store) ClaimUnowned(ownerID string) (int, error) {
	if ownerID == "" {
		return 0, errors.New("claiming records for an empty owner")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var claimed int
	err := s.inTx(func(tx *DB) error {
		for _, t := range entity.Types() {
			table := t.Table()

			if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %[1]s WHERE owner_id = ? AND EXISTS (
				SELECT 1 FROM %[1]s u WHERE u.owner_id = '' AND u.id = %[1]s.id AND u.updated_at >= %[1]s.updated_at)`, table), ownerID); err != nil {
				return errors.Wrapf(err, "replacing older %s", table)
			}
			if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %[1]s WHERE owner_id = '' AND EXISTS (
				SELECT 1 FROM %[1]s o WHERE o.owner_id = ? AND o.id = %[1]s.id)`, table), ownerID); err != nil {
				return errors.Wrapf(err, "dropping superseded %s", table)
			}

			if t == entity.TypeVocabularyWord {
				if err := dropDuplicateWords(tx, ownerID); err != nil {
					return err
				}
			}

			res, err := tx.Exec(fmt.Sprintf("UPDATE %s SET owner_id = ?, synced = false WHERE owner_id = ''", table), ownerID)
			if err != nil {
				return errors.Wrapf(err, "claiming %s", table)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return errors.Wrap(err, "counting claimed rows")
			}
			claimed += int(n)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return claimed, nil
}

// Refresh merges the remote listing of a type into the store. Remote rows are
// stored as synced, except where the local copy has unsent changes or a pending
// delete. Synced local rows missing from the listing are removed.
func (s *Store) Refresh(t entity.Type, ownerID string, remote []entity.Record) (RefreshResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ret RefreshResult
	err := s.inTx(func(tx *DB) error {
		local, err := queryRecords(tx, t, "owner_id = ?", ownerID)
		if err != nil {
			return errors.Wrap(err, "reading local records")
		}
		localByID := map[string]entity.Record{}
		for _, rec := range local {
			localByID[rec.ID] = rec
		}

		deleted, err := tombstoneIDs(tx, t, ownerID)
		if err != nil {
			return err
		}

		seen := map[string]bool{}
		for _, rec := range remote {
			seen[rec.ID] = true

			if deleted[rec.ID] {
				continue
			}

			old, exists := localByID[rec.ID]
			if exists && !old.Synced {
				ret.Kept++
				continue
			}
			if exists && !samePayload(old, rec) {
				ret.Overwritten = append(ret.Overwritten, Overwrite{Local: old, Remote: rec})
			}

			rec.OwnerID = ownerID
			rec.Synced = true
			if err := putRecord(tx, rec); err != nil {
				return err
			}
			ret.Stored++
		}

		for _, rec := range local {
			if seen[rec.ID] || !rec.Synced {
				continue
			}

			if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ? AND owner_id = ?", t.Table()), rec.ID, ownerID); err != nil {
				return errors.Wrapf(err, "removing %s %s", t, rec.ID)
			}
			ret.Removed++
		}

		return nil
	})

	return ret, err
}

// dropDuplicateWords deletes the unowned vocabulary words whose normalized
// form ownerID already has
func dropDuplicateWords(tx *DB, ownerID string) error {
	owned, err := queryRecords(tx, entity.TypeVocabularyWord, "owner_id = ?", ownerID)
	if err != nil {
		return err
	}
	unowned, err := queryRecords(tx, entity.TypeVocabularyWord, "owner_id = ''")
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, rec := range owned {
		if w, ok := rec.Payload.(entity.VocabularyWord); ok {
			seen[entity.NormalizeWord(w.Word)] = true
		}
	}

	for _, rec := range unowned {
		w, ok := rec.Payload.(entity.VocabularyWord)
		if !ok {
			continue
		}

		key := entity.NormalizeWord(w.Word)
		if !seen[key] {
			seen[key] = true
			continue
		}

		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ? AND owner_id = ''", entity.TypeVocabularyWord.Table()), rec.ID); err != nil {
			return errors.Wrapf(err, "dropping duplicate word %s", rec.ID)
		}
		log.Debug("dropped duplicate word '%s' written while signed out\n", w.Word)
	}

	return nil
}

func samePayload(a, b entity.Record) bool {
	ab, err := entity.Encode(a.Payload)
	if err != nil {
		return false
	}
	bb, err := entity.Encode(b.Payload)
	if err != nil {
		return false
	}

	return string(ab) == string(bb)
}

// AddTombstone queues a remote delete
func (s *Store) AddTombstone(ts Tombstone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ts.Type.Valid() {
		return errors.Wrapf(entity.ErrUnknownType, "'%s'", ts.Type)
	}

	_, err := s.db.Exec(`INSERT INTO pending_deletes (entity_type, id, owner_id, deleted_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_type, id, owner_id) DO UPDATE SET deleted_at = excluded.deleted_at`,
		string(ts.Type), ts.ID, ts.OwnerID, ts.DeletedAt.UnixNano())
	if err != nil {
		return errors.Wrapf(err, "queueing delete of %s %s", ts.Type, ts.ID)
	}

	return nil
}

// Tombstones returns the queued remote deletes of ownerID
func (s *Store) Tombstones(ownerID string) ([]Tombstone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT entity_type, id, owner_id, deleted_at FROM pending_deletes WHERE owner_id = ? ORDER BY deleted_at ASC", ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending deletes")
	}
	defer rows.Close()

	ret := []Tombstone{}
	for rows.Next() {
		var ts Tombstone
		var typ string
		var deletedAt int64
		if err := rows.Scan(&typ, &ts.ID, &ts.OwnerID, &deletedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a pending delete")
		}
		ts.Type = entity.Type(typ)
		ts.DeletedAt = time.Unix(0, deletedAt).UTC()

		ret = append(ret, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating pending deletes")
	}

	return ret, nil
}

// RemoveTombstone drops a queued remote delete once it has been sent
func (s *Store) RemoveTombstone(t entity.Type, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return removeTombstone(s.db, t, ownerID, id)
}

func removeTombstone(db *DB, t entity.Type, ownerID, id string) error {
	if _, err := db.Exec("DELETE FROM pending_deletes WHERE entity_type = ? AND id = ? AND owner_id = ?", string(t), id, ownerID); err != nil {
		return errors.Wrapf(err, "removing pending delete of %s %s", t, id)
	}

	return nil
}

func tombstoneIDs(db *DB, t entity.Type, ownerID string) (map[string]bool, error) {
	rows, err := db.Query("SELECT id FROM pending_deletes WHERE entity_type = ? AND owner_id = ?", string(t), ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending deletes")
	}
	defer rows.Close()

	ret := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning a pending delete")
		}
		ret[id] = true
	}

	return ret, rows.Err()
}
