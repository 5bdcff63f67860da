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

package infra

import (
	"context"
	"time"

	"github.com/folio-reader/folio/pkg/cli/client"
	"github.com/folio-reader/folio/pkg/cli/connectivity"
	folioctx "github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/syncer"
)

const (
	// probeTimeout bounds the connectivity check made when a runtime starts
	probeTimeout = 3 * time.Second

	// RetryMin is the delay before the first automatic retry of a failed sync
	RetryMin = 2 * time.Second
	// RetryMax caps the delay between automatic retries
	RetryMax = 5 * time.Minute
)

// RuntimeOptions configure NewRuntime
type RuntimeOptions struct {
	// Retry enables automatic retries with exponential backoff. It is only
	// useful to processes that outlive a single sync cycle.
	Retry bool
}

// Runtime holds the sync collaborators built for one command invocation
type Runtime struct {
	Client  *client.Client
	Monitor *connectivity.Monitor
	Manager *syncer.Manager

	detach func()
}

// NewRuntime builds the remote client, the connectivity monitor and the sync
// manager from the context. Connectivity is probed only when a user is signed
// in; otherwise nothing can be pushed and the monitor starts offline.
func NewRuntime(c context.Context, ctx folioctx.FolioCtx, opts RuntimeOptions) *Runtime {
	cl := client.New(client.Params{
		APIEndpoint: ctx.APIEndpoint,
		Version:     ctx.Version,
		Credentials: ctx.Session,
		HTTPClient:  ctx.HTTPClient,
	})

	var monitor *connectivity.Monitor
	if ctx.Session.CurrentUserID() != "" {
		pc, cancel := context.WithTimeout(c, probeTimeout)
		monitor = connectivity.NewFromProbe(pc, cl.Ping)
		cancel()
	} else {
		monitor = connectivity.New(false)
	}

	p := syncer.Params{
		Store:        ctx.Store,
		Remote:       cl,
		Auth:         ctx.Session,
		Connectivity: monitor,
		Clock:        ctx.Clock,
	}
	if opts.Retry {
		p.RetryMin = RetryMin
		p.RetryMax = RetryMax
	}

	return &Runtime{
		Client:  cl,
		Monitor: monitor,
		Manager: syncer.New(p),
	}
}

// Probe checks if the remote store is reachable
func (r *Runtime) Probe(ctx context.Context) error {
	return r.Client.Ping(ctx)
}

// CheckConnectivity probes the remote store and updates the monitor
func (r *Runtime) CheckConnectivity(c context.Context) {
	pc, cancel := context.WithTimeout(c, probeTimeout)
	defer cancel()

	r.Monitor.Check(pc, r.Probe)
}

// Attach subscribes the manager to reconnections and sign-in changes
func (r *Runtime) Attach(c context.Context, ctx folioctx.FolioCtx) {
	r.detach = r.Manager.Attach(c, r.Monitor, ctx.Session)
}

// Close detaches the manager and stops pending retries
func (r *Runtime) Close() {
	if r.detach != nil {
		r.detach()
		r.detach = nil
	}

	r.Manager.Close()
}
