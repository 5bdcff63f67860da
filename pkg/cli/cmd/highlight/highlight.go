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

package highlight

import (
	"strconv"

	"github.com/folio-reader/folio/pkg/cli/adapters"
	"github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/infra"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/output"
	"github.com/folio-reader/folio/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var addExample = `
 * Highlight a passage on page 12 of a book
 folio highlight add alice-in-wonderland 12 "Curiouser and curiouser!"

 * Pick a color
 folio highlight add alice-in-wonderland 12 "Curiouser and curiouser!" --color green`

var lsExample = `
 * List every highlight
 folio highlight ls

 * List the highlights of a book
 folio highlight ls alice-in-wonderland`

var rmExample = `
 * Remove a highlight
 folio highlight rm 2c1a3f9e-5b1d-4a0e-9d6f-1e2b3c4d5e6f`

var colorFlag string
var yesFlag bool

// NewCmd returns a new highlight command
func NewCmd(ctx context.FolioCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "highlight",
		Aliases: []string{"hl"},
		Short:   "Manage highlights",
	}

	add := &cobra.Command{
		Use:     "add <book> <page> <text>",
		Short:   "Highlight a passage",
		Example: addExample,
		Args:    cobra.ExactArgs(3),
		RunE:    newAddRun(ctx),
	}
	add.Flags().StringVarP(&colorFlag, "color", "c", "", "yellow, green, blue, pink or purple (defaults to yellow)")

	ls := &cobra.Command{
		Use:     "ls [book]",
		Aliases: []string{"l"},
		Short:   "List highlights",
		Example: lsExample,
		Args:    cobra.MaximumNArgs(1),
		RunE:    newLsRun(ctx),
	}

	rm := &cobra.Command{
		Use:     "rm <id>",
		Short:   "Remove a highlight",
		Example: rmExample,
		Args:    cobra.ExactArgs(1),
		RunE:    newRmRun(ctx),
	}
	rm.Flags().BoolVarP(&yesFlag, "yes", "y", false, "remove without confirmation")

	cmd.AddCommand(add, ls, rm)

	return cmd
}

func newAddRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		page, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Errorf("invalid page '%s'", args[1])
		}

		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		h, outcome, err := adapters.NewHighlights(rt.Manager).Add(cmd.Context(), args[0], page, args[2], colorFlag)
		if err != nil {
			return errors.Wrap(err, "adding highlight")
		}

		output.Saved("added highlight", outcome)
		output.HighlightInfo(h)

		return nil
	}
}

func newLsRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var bookSlug string
		if len(args) == 1 {
			bookSlug = args[0]
		}

		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		hs := adapters.NewHighlights(rt.Manager).ForBook(cmd.Context(), bookSlug)
		if len(hs) == 0 {
			log.Info("no highlights\n")
			return nil
		}

		output.Highlights(hs)

		return nil
	}
}

func newRmRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		hs := adapters.NewHighlights(rt.Manager)

		h, err := hs.Get(args[0])
		if errors.Is(err, adapters.ErrNotFound) {
			return errors.Errorf("highlight %s not found", args[0])
		} else if err != nil {
			return errors.Wrap(err, "finding highlight")
		}

		if !yesFlag {
			output.HighlightInfo(h)

			ok, err := ui.Confirm("remove this highlight?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		outcome, err := hs.Remove(cmd.Context(), h.ID)
		if err != nil {
			return errors.Wrap(err, "removing highlight")
		}

		output.Saved("removed highlight", outcome)

		return nil
	}
}
