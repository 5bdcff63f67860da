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

package progress

import (
	"strconv"
	"time"

	"github.com/folio-reader/folio/pkg/cli/adapters"
	"github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/infra"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Show the reading position in a book
 folio progress alice-in-wonderland

 * Move to page 42 after reading for 25 minutes
 folio progress alice-in-wonderland 42 --spent 25m`

var spentFlag time.Duration

// NewCmd returns a new progress command
func NewCmd(ctx context.FolioCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "progress <book> [page]",
		Short:   "Show or update the reading position in a book",
		Example: example,
		Args:    cobra.RangeArgs(1, 2),
		RunE:    newRun(ctx),
	}

	cmd.Flags().DurationVar(&spentFlag, "spent", 0, "time spent reading since the last update")

	return cmd
}

func newRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		bookSlug := args[0]

		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		p := adapters.NewProgress(cmd.Context(), rt.Manager, ctx.DebounceWindow)
		defer p.Close()

		if len(args) == 1 {
			v, err := p.Fetch(cmd.Context(), bookSlug)
			if errors.Is(err, adapters.ErrNotFound) {
				log.Info("not started\n")
				return nil
			} else if err != nil {
				return errors.Wrap(err, "getting progress")
			}

			output.ProgressInfo(v)
			return nil
		}

		page, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Errorf("invalid page '%s'", args[1])
		}

		v, err := p.Update(bookSlug, page, spentFlag)
		if err != nil {
			return errors.Wrap(err, "updating progress")
		}

		log.Successf("moved to page %d\n", v.CurrentPage)

		return nil
	}
}
