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

package controllers

import (
	"net/http"

	"github.com/folio-reader/folio/pkg/entity"
	"github.com/folio-reader/folio/pkg/server/app"
	"github.com/folio-reader/folio/pkg/server/context"
	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// NewRows creates a new Rows controller
func NewRows(app *app.App) *Rows {
	return &Rows{app: app}
}

// Rows serves the entity tables
type Rows struct {
	app *app.App
}

// UpsertPayload is the body of an upsert request
type UpsertPayload struct {
	Rows []entity.Row `json:"rows"`
}

// UpsertResponse is the response of an upsert request
type UpsertResponse struct {
	Count int `json:"count"`
}

// RowsResponse is the response of a select request
type RowsResponse struct {
	Rows []entity.Row `json:"rows"`
}

// rowsQuery is the query string of the row endpoints
type rowsQuery struct {
	OwnerID      string `schema:"owner_id"`
	UpdatedAfter int64  `schema:"updated_after"`
}

// Upsert handles PUT /v1/tables/{table}/rows
func (c *Rows) Upsert(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	table := mux.Vars(r)["table"]

	var payload UpsertPayload
	if err := parseRequestData(w, r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	n, err := c.app.UpsertRows(*user, table, payload.Rows)
	if err != nil {
		handleJSONError(w, err, "upserting rows")
		return
	}

	log.WithFields(log.Fields{
		"table": table,
		"count": n,
	}).Debug("upserted rows")

	respondJSON(w, http.StatusOK, UpsertResponse{Count: n})
}

// Delete handles DELETE /v1/tables/{table}/rows/{id}
func (c *Rows) Delete(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	vars := mux.Vars(r)

	var q rowsQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}
	if q.OwnerID == "" {
		handleJSONError(w, errors.Wrap(errBadRequest, "owner_id is required"), "parsing query")
		return
	}

	if err := c.app.DeleteRow(*user, vars["table"], vars["id"], q.OwnerID); err != nil {
		handleJSONError(w, err, "deleting row")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Index handles GET /v1/tables/{table}/rows
func (c *Rows) Index(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	table := mux.Vars(r)["table"]

	var q rowsQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}
	if q.OwnerID == "" {
		q.OwnerID = user.UUID
	}

	rows, err := c.app.SelectRows(*user, table, app.SelectRowsParams{
		OwnerID:      q.OwnerID,
		UpdatedAfter: q.UpdatedAfter,
	})
	if err != nil {
		handleJSONError(w, err, "selecting rows")
		return
	}

	respondJSON(w, http.StatusOK, RowsResponse{Rows: rows})
}
