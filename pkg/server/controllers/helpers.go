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
	"encoding/json"
	"net/http"

	"github.com/folio-reader/folio/pkg/server/app"
	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

// maxBodyBytes is the largest request body accepted
const maxBodyBytes = 8 << 20

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// errBadRequest marks errors caused by a malformed request
var errBadRequest = errors.New("bad request")

// parseRequestData decodes the JSON body of the request into v
func parseRequestData(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(errBadRequest, "decoding payload: %s", err.Error())
	}

	return nil
}

// parseQuery decodes the query string of the request into v
func parseQuery(r *http.Request, v interface{}) error {
	if err := queryDecoder.Decode(v, r.URL.Query()); err != nil {
		return errors.Wrapf(errBadRequest, "decoding query: %s", err.Error())
	}

	return nil
}

// respondJSON responds with the JSON encoding of v
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

func getStatusCode(err error) int {
	switch errors.Cause(err) {
	case errBadRequest, app.ErrInvalidRow, app.ErrEmailRequired, app.ErrPasswordRequired, app.ErrPasswordTooShort:
		return http.StatusBadRequest
	case app.ErrLoginInvalid:
		return http.StatusUnauthorized
	case app.ErrForbidden:
		return http.StatusForbidden
	case app.ErrNotFound, app.ErrUnknownTable:
		return http.StatusNotFound
	case app.ErrDuplicateEmail:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleJSONError responds with the status code matching the error. The
// message of client errors is sent back; server errors are logged instead.
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	statusCode := getStatusCode(err)

	if statusCode == http.StatusInternalServerError {
		log.WithFields(log.Fields{"statusCode": statusCode}).ErrorWrap(err, msg)
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	log.WithFields(log.Fields{"statusCode": statusCode}).Debug(errors.Wrap(err, msg).Error())
	http.Error(w, err.Error(), statusCode)
}
