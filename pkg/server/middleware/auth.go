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

package middleware

import (
	"net/http"

	"github.com/folio-reader/folio/pkg/server/app"
	"github.com/folio-reader/folio/pkg/server/context"
	"github.com/folio-reader/folio/pkg/server/database"
	"github.com/pkg/errors"
)

// AuthWithSession authenticates the request with its session key. It returns
// false if the request carries no valid session.
func AuthWithSession(a *app.App, r *http.Request) (database.User, bool, error) {
	sessionKey, err := GetCredential(r)
	if err != nil {
		return database.User{}, false, nil
	}
	if sessionKey == "" {
		return database.User{}, false, nil
	}

	user, err := a.AuthenticateSession(sessionKey)
	if errors.Is(err, app.ErrNotFound) {
		return database.User{}, false, nil
	} else if err != nil {
		return database.User{}, false, errors.Wrap(err, "authenticating session")
	}

	return user, true, nil
}

// Auth is an authentication middleware. It responds with 401 unless the
// request carries a valid session, and puts the user in the request context.
func Auth(a *app.App, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok, err := AuthWithSession(a, r)
		if err != nil {
			DoError(w, "authenticating with session", err, http.StatusInternalServerError)
			return
		}
		if !ok {
			RespondUnauthorized(w)
			return
		}

		ctx := context.WithUser(r.Context(), &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
