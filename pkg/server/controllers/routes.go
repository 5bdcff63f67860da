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
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	APIRoutes   []Route
}

// NewAPIRoutes returns the routes served under /api
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"GET", "/v1/health", c.Health.Index, false},
		{"POST", "/v1/signin", c.Users.Signin, true},
		{"POST", "/v1/signout", c.Users.Signout, true},
		{"GET", "/v1/tables/{table}/rows", mw.Auth(a, c.Rows.Index), true},
		{"PUT", "/v1/tables/{table}/rows", mw.Auth(a, c.Rows.Upsert), true},
		{"DELETE", "/v1/tables/{table}/rows/{id}", mw.Auth(a, c.Rows.Delete), true},
	}
}

func registerRoutes(router *mux.Router, wrapper mw.Middleware, routes []Route) {
	for _, route := range routes {
		router.
			Handle(route.Pattern, wrapper(route.Handler, route.RateLimit)).
			Methods(route.Method)
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "not found", http.StatusNotFound)
}

// NewRouter creates and returns a new router
func NewRouter(a *app.App, rc RouteConfig) (http.Handler, error) {
	if err := a.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/health", rc.Controllers.Health.Index).Methods("GET")

	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter, mw.APIMw, rc.APIRoutes)

	router.NotFoundHandler = http.HandlerFunc(notFound)

	return mw.Global(router), nil
}

// NewHandler returns the handler serving every route of the app
func NewHandler(a *app.App) (http.Handler, error) {
	ctl := New(a)

	return NewRouter(a, RouteConfig{
		Controllers: ctl,
		APIRoutes:   NewAPIRoutes(a, ctl),
	})
}
