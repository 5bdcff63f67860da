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

package login

import (
	"context"
	"fmt"
	"net/url"

	"github.com/folio-reader/folio/pkg/cli/client"
	folioctx "github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/infra"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/output"
	"github.com/folio-reader/folio/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  folio login
  folio login --email me@example.com`

var usernameFlag, passwordFlag, apiEndpointFlag string

// NewCmd returns a new login command
func NewCmd(ctx folioctx.FolioCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the server and sync local changes",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&usernameFlag, "email", "u", "", "email address")
	f.StringVarP(&passwordFlag, "password", "p", "", "password")
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// Do signs in with the given credentials and stores the session. Records
// created while signed out are claimed and synced by the manager attached to rt.
func Do(c context.Context, ctx folioctx.FolioCtx, rt *infra.Runtime, email, password string) error {
	resp, err := rt.Client.Signin(c, email, password)
	if err != nil {
		return errors.Wrap(err, "requesting session")
	}

	// The server answered, so it is reachable
	rt.Monitor.Set(true)

	if err := ctx.Session.SignIn(resp.UserID, resp.Key, resp.ExpiresAt); err != nil {
		return errors.Wrap(err, "saving session")
	}

	return nil
}

func getUsername() (string, error) {
	if usernameFlag != "" {
		return usernameFlag, nil
	}

	var email string
	if err := ui.PromptInput("email", &email); err != nil {
		return "", errors.Wrap(err, "getting email input")
	}
	if email == "" {
		return "", errors.New("Email is empty")
	}

	return email, nil
}

func getPassword() (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}

	var password string
	if err := ui.PromptPassword("password", &password); err != nil {
		return "", errors.Wrap(err, "getting password input")
	}
	if password == "" {
		return "", errors.New("Password is empty")
	}

	return password, nil
}

// getServerDisplayURL returns the scheme and host of the API endpoint
func getServerDisplayURL(ctx folioctx.FolioCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil {
		return ""
	}
	if u.Scheme == "" || u.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

func newRun(ctx folioctx.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		if serverURL := getServerDisplayURL(ctx); serverURL != "" {
			log.Plainf("Logging into %s\n", serverURL)
		}

		email, err := getUsername()
		if err != nil {
			return errors.Wrap(err, "getting email")
		}
		password, err := getPassword()
		if err != nil {
			return errors.Wrap(err, "getting password")
		}

		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()
		rt.Attach(cmd.Context(), ctx)

		off := rt.Manager.Subscribe(output.SyncProgress)
		defer off()

		err = Do(cmd.Context(), ctx, rt, email, password)
		if errors.Is(err, client.ErrInvalidLogin) {
			log.Error("wrong login\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging in")
		}

		log.Success("logged in\n")

		return nil
	}
}
