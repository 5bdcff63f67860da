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
	"strings"
	"time"

	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/pkg/errors"
)

// ErrMalformedAuthHeader is returned for an Authorization header that is not a bearer credential
var ErrMalformedAuthHeader = errors.New("malformed authorization header")

// Middleware wraps a route handler, optionally rate limiting it
type Middleware func(h http.HandlerFunc, rateLimit bool) http.Handler

// APIMw is the middleware applied to every API route
func APIMw(h http.HandlerFunc, rateLimit bool) http.Handler {
	return ApplyLimit(h, rateLimit)
}

// GetCredential extracts the session key from the bearer Authorization header.
// It returns an empty string if the header is absent.
func GetCredential(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", nil
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMalformedAuthHeader
	}

	return strings.TrimSpace(parts[1]), nil
}

// RespondUnauthorized responds with a 401 and a challenge for a bearer credential
func RespondUnauthorized(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", `Bearer realm="folio"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// DoError logs the error and responds with the given status code
func DoError(w http.ResponseWriter, msg string, err error, statusCode int) {
	if err != nil {
		log.WithFields(log.Fields{
			"statusCode": statusCode,
		}).ErrorWrap(err, msg)
	}

	http.Error(w, http.StatusText(statusCode), statusCode)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging logs every request once the response is written
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
			"remote":   lookupIP(r),
		}).Debug("request")
	})
}

// Global is the middleware wrapping the whole router
func Global(h http.Handler) http.Handler {
	return Logging(h)
}
