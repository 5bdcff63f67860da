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

package app

import (
	"encoding/json"

	"github.com/folio-reader/folio/pkg/entity"
	"github.com/folio-reader/folio/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxUpsertRows is the largest batch accepted by UpsertRows
const maxUpsertRows = 500

func parseTable(table string) (entity.Type, error) {
	t, err := entity.ParseTable(table)
	if err != nil {
		return "", errors.Wrapf(ErrUnknownTable, "'%s'", table)
	}

	return t, nil
}

// checkOwner makes sure the user can access rows of the given owner
func checkOwner(user database.User, ownerID string) error {
	if ownerID != user.UUID {
		return errors.Wrapf(ErrForbidden, "owner '%s'", ownerID)
	}

	return nil
}

// toModel validates a wire row of the given type and converts it for storage
func toModel(t entity.Type, row entity.Row) (database.Row, error) {
	if row.ID == "" {
		return database.Row{}, errors.Wrap(ErrInvalidRow, "missing id")
	}

	rec, err := entity.FromRow(t, row)
	if err != nil {
		return database.Row{}, errors.Wrapf(ErrInvalidRow, "%s: %s", row.ID, err.Error())
	}
	if err := entity.Validate(rec.Payload); err != nil {
		return database.Row{}, errors.Wrapf(ErrInvalidRow, "%s: %s", row.ID, err.Error())
	}

	return database.Row{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Payload:   string(row.Payload),
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func fromModel(m database.Row) entity.Row {
	return entity.Row{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Payload:   json.RawMessage(m.Payload),
		UpdatedAt: m.UpdatedAt,
	}
}

// UpsertRows inserts or replaces the given rows of the table in a single
// transaction. Either every row is stored or none is. Every row must belong
// to the user.
func (a *App) UpsertRows(user database.User, table string, rows []entity.Row) (int, error) {
	t, err := parseTable(table)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if len(rows) > maxUpsertRows {
		return 0, errors.Wrapf(ErrInvalidRow, "batch of %d rows exceeds %d", len(rows), maxUpsertRows)
	}

	models := make([]database.Row, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		if err := checkOwner(user, row.OwnerID); err != nil {
			return 0, err
		}

		m, err := toModel(t, row)
		if err != nil {
			return 0, err
		}

		// a batch repeating an id keeps its last row
		if seen[m.ID] {
			for i := range models {
				if models[i].ID == m.ID {
					models[i] = m
				}
			}
			continue
		}
		seen[m.ID] = true
		models = append(models, m)
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Table(t.Table()).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}, {Name: "owner_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
			}).
			Create(&models).Error
	})
	if err != nil {
		return 0, errors.Wrapf(err, "upserting %s", t.Table())
	}

	return len(models), nil
}

// DeleteRow deletes the row with the given id and owner. Deleting a row that
// does not exist is not an error.
func (a *App) DeleteRow(user database.User, table, id, ownerID string) error {
	t, err := parseTable(table)
	if err != nil {
		return err
	}
	if err := checkOwner(user, ownerID); err != nil {
		return err
	}

	if err := a.DB.Table(t.Table()).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&database.Row{}).Error; err != nil {
		return errors.Wrapf(err, "deleting %s", t.Table())
	}

	return nil
}

// SelectRowsParams are the filters of SelectRows
type SelectRowsParams struct {
	OwnerID string
	// UpdatedAfter, if positive, keeps the rows modified after the given unix nanoseconds
	UpdatedAfter int64
}

// SelectRows returns the rows of the table owned by the given owner, ordered by id
func (a *App) SelectRows(user database.User, table string, p SelectRowsParams) ([]entity.Row, error) {
	t, err := parseTable(table)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(user, p.OwnerID); err != nil {
		return nil, err
	}

	q := a.DB.Table(t.Table()).Where("owner_id = ?", p.OwnerID)
	if p.UpdatedAfter > 0 {
		q = q.Where("updated_at > ?", p.UpdatedAfter)
	}

	var models []database.Row
	if err := q.Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrapf(err, "selecting %s", t.Table())
	}

	ret := make([]entity.Row, 0, len(models))
	for _, m := range models {
		ret = append(ret, fromModel(m))
	}

	return ret, nil
}
