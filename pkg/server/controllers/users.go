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

	"github.com/folio-reader/folio/pkg/server/app"
	mw "github.com/folio-reader/folio/pkg/server/middleware"
	"github.com/pkg/errors"
)

// NewUsers creates a new Users controller
func NewUsers(app *app.App) *Users {
	return &Users{app: app}
}

// Users is a user controller
type Users struct {
	app *app.App
}

// SigninForm is the payload of a sign-in request
type SigninForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is the payload of a successful sign-in
type SessionResponse struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
	UserID    string `json:"user_id"`
}

// Signin handles POST /v1/signin
func (u *Users) Signin(w http.ResponseWriter, r *http.Request) {
	var form SigninForm
	if err := parseRequestData(w, r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	user, session, err := u.app.SignIn(form.Email, form.Password)
	if err != nil {
		handleJSONError(w, err, "signing in")
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{
		Key:       session.Key,
		ExpiresAt: session.ExpiresAt.Unix(),
		UserID:    user.UUID,
	})
}

// Signout handles POST /v1/signout. Signing out without a session is a no-op.
func (u *Users) Signout(w http.ResponseWriter, r *http.Request) {
	key, err := mw.GetCredential(r)
	if err != nil {
		handleJSONError(w, errors.Wrap(errBadRequest, err.Error()), "getting credential")
		return
	}

	if key != "" {
		if err := u.app.DeleteSession(key); err != nil {
			handleJSONError(w, err, "deleting session")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
