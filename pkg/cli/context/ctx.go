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

// Package context defines the folio context
package context

import (
	"fmt"
	"net/http"
	"time"

	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/session"
	"github.com/folio-reader/folio/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// FolioCtx is a context holding the information of the current runtime
type FolioCtx struct {
	Paths       Paths
	APIEndpoint string
	Version     string
	DB          *database.DB
	Store       *database.Store
	Session     *session.Session
	Clock       clock.Clock
	HTTPClient  *http.Client

	// SyncInterval is the period of background sync cycles in watch mode
	SyncInterval time.Duration
	// ProbeInterval is the period of connectivity checks in watch mode
	ProbeInterval time.Duration
	// DebounceWindow is the quiet period before a progress update is pushed
	DebounceWindow time.Duration
}

// Redact returns a printable form of the context with the session replaced
// by whether a user is signed in
func Redact(ctx FolioCtx) string {
	loggedIn := "0"
	if ctx.Session != nil && ctx.Session.SessionKey() != "" {
		loggedIn = "1"
	}

	return fmt.Sprintf("{Paths:%+v APIEndpoint:%s Version:%s Session:%s SyncInterval:%s ProbeInterval:%s DebounceWindow:%s}",
		ctx.Paths, ctx.APIEndpoint, ctx.Version, loggedIn, ctx.SyncInterval, ctx.ProbeInterval, ctx.DebounceWindow)
}
