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

package status

import (
	"time"

	"github.com/folio-reader/folio/pkg/cli/consts"
	"github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/infra"
	"github.com/folio-reader/folio/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCmd returns a new status command
func NewCmd(ctx context.FolioCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sync state",
		Args:  cobra.NoArgs,
		RunE:  newRun(ctx),
	}

	return cmd
}

// lastSyncAt returns the time of the last successful sync cycle, or the zero
// time if there was none
func lastSyncAt(db *database.DB) (time.Time, error) {
	var ts int64
	if err := database.GetSystem(db, consts.SystemLastSyncAt, &ts); err != nil {
		if database.IsNotFound(err) {
			return time.Time{}, nil
		}

		return time.Time{}, errors.Wrap(err, "getting last sync time")
	}
	if ts == 0 {
		return time.Time{}, nil
	}

	return time.Unix(ts, 0), nil
}

func newRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		t, err := lastSyncAt(ctx.DB)
		if err != nil {
			return err
		}

		output.Status(ctx.Session.CurrentUserID(), rt.Manager.Indicator(), t)

		return nil
	}
}
