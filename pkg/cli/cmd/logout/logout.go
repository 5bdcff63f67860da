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

package logout

import (
	"context"

	"github.com/folio-reader/folio/pkg/cli/client"
	folioctx "github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/infra"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  folio logout`

var apiEndpointFlag string

// NewCmd returns a new logout command
func NewCmd(ctx folioctx.FolioCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logout",
		Short:   "Logout from the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// Do ends the session on the server, if it can be reached, and forgets it
// locally. Local records are kept.
func Do(c context.Context, ctx folioctx.FolioCtx, cl *client.Client) error {
	if ctx.Session.CurrentUserID() == "" {
		return session.ErrNotLoggedIn
	}

	if key := ctx.Session.SessionKey(); key != "" {
		err := cl.Signout(c, key)
		if client.KindOf(err) == client.KindNetwork {
			log.Warnf("could not reach the server, the session will expire on its own\n")
		} else if err != nil {
			return errors.Wrap(err, "requesting logout")
		}
	}

	if err := ctx.Session.SignOut(); err != nil {
		return errors.Wrap(err, "deleting session")
	}

	return nil
}

func newRun(ctx folioctx.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		cl := client.New(client.Params{
			APIEndpoint: ctx.APIEndpoint,
			Version:     ctx.Version,
			Credentials: ctx.Session,
			HTTPClient:  ctx.HTTPClient,
		})

		err := Do(cmd.Context(), ctx, cl)
		if errors.Is(err, session.ErrNotLoggedIn) {
			log.Error("not logged in\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging out")
		}

		log.Success("logged out\n")

		return nil
	}
}
