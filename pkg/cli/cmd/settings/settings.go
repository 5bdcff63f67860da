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

package settings

import (
	"github.com/folio-reader/folio/pkg/cli/adapters"
	"github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/infra"
	"github.com/folio-reader/folio/pkg/cli/output"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var setExample = `
 * Use a larger font and the dark theme for a book
 folio settings set alice-in-wonderland --font-size 22 --theme dark`

var fontSizeFlag int
var lineHeightFlag, letterSpacingFlag float64
var themeFlag string

// NewCmd returns a new settings command
func NewCmd(ctx context.FolioCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the reader settings of a book",
	}

	show := &cobra.Command{
		Use:   "show <book>",
		Short: "Show the reader settings of a book",
		Args:  cobra.ExactArgs(1),
		RunE:  newShowRun(ctx),
	}

	set := &cobra.Command{
		Use:     "set <book>",
		Short:   "Change the reader settings of a book",
		Example: setExample,
		Args:    cobra.ExactArgs(1),
		RunE:    newSetRun(ctx),
	}
	f := set.Flags()
	f.IntVar(&fontSizeFlag, "font-size", 0, "font size, from 12 to 40")
	f.Float64Var(&lineHeightFlag, "line-height", 0, "line height, from 1 to 3")
	f.Float64Var(&letterSpacingFlag, "letter-spacing", 0, "letter spacing, from 0 to 0.5")
	f.StringVar(&themeFlag, "theme", "", "light, sepia or dark")

	cmd.AddCommand(show, set)

	return cmd
}

func newShowRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		s, err := adapters.NewSettings(rt.Manager).Fetch(cmd.Context(), args[0])
		if err != nil {
			return errors.Wrap(err, "getting settings")
		}

		output.SettingsInfo(s)

		return nil
	}
}

// applyFlags overrides the settings with the flags given on the command line
func applyFlags(s entity.ReaderSettings, f *pflag.FlagSet) (entity.ReaderSettings, bool) {
	changed := false

	if f.Changed("font-size") {
		s.FontSize = fontSizeFlag
		changed = true
	}
	if f.Changed("line-height") {
		s.LineHeight = lineHeightFlag
		changed = true
	}
	if f.Changed("letter-spacing") {
		s.LetterSpacing = letterSpacingFlag
		changed = true
	}
	if f.Changed("theme") {
		s.Theme = themeFlag
		changed = true
	}

	return s, changed
}

func newSetRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		settings := adapters.NewSettings(rt.Manager)

		s, err := settings.Get(args[0])
		if err != nil {
			return errors.Wrap(err, "getting settings")
		}

		s, changed := applyFlags(s, cmd.Flags())
		if !changed {
			return errors.New("nothing to change, see --help for the available settings")
		}

		outcome, err := settings.Set(cmd.Context(), s)
		if err != nil {
			return errors.Wrap(err, "saving settings")
		}

		output.Saved("saved settings", outcome)
		output.SettingsInfo(s)

		return nil
	}
}
