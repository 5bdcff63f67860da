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

package entity

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Row is the wire form of a record exchanged with the remote store.
// UpdatedAt is in unix nanoseconds.
type Row struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt int64           `json:"updated_at"`
}

// ToRow converts the record to its wire form
func ToRow(rec Record) (Row, error) {
	b, err := Encode(rec.Payload)
	if err != nil {
		return Row{}, errors.Wrapf(err, "encoding %s %s", rec.Type, rec.ID)
	}

	return Row{
		ID:        rec.ID,
		OwnerID:   rec.OwnerID,
		Payload:   b,
		UpdatedAt: rec.UpdatedAt.UnixNano(),
	}, nil
}

// FromRow converts a wire row of the given type back into a record. The result
// is marked as synced since it was read from the remote store.
func FromRow(t Type, row Row) (Record, error) {
	p, err := Decode(t, row.Payload)
	if err != nil {
		return Record{}, errors.Wrapf(err, "decoding %s %s", t, row.ID)
	}
	if p.RecordID() != row.ID {
		return Record{}, errors.Wrapf(ErrInvalid, "row id '%s' does not match payload id '%s'", row.ID, p.RecordID())
	}

	return Record{
		ID:        row.ID,
		Type:      t,
		OwnerID:   row.OwnerID,
		Payload:   p,
		UpdatedAt: time.Unix(0, row.UpdatedAt).UTC(),
		Synced:    true,
	}, nil
}
