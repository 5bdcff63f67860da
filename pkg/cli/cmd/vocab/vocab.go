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

package vocab

import (
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
 * Save a word
 folio vocab add ephemeral --definition "lasting a very short time"

 * Save a word with the sentence it was found in
 folio vocab add ephemeral -d "lasting a very short time" --context "an ephemeral joy" --book alice`

var reviewExample = `
 * Record a correct answer
 folio vocab review 2c1a3f9e-5b1d-4a0e-9d6f-1e2b3c4d5e6f

 * Record a wrong answer
 folio vocab review 2c1a3f9e-5b1d-4a0e-9d6f-1e2b3c4d5e6f --incorrect`

var definitionFlag, contextFlag, bookFlag string
var dueFlag, incorrectFlag, yesFlag bool

// NewCmd returns a new vocab command
func NewCmd(ctx context.FolioCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vocab",
		Aliases: []string{"v"},
		Short:   "Manage saved vocabulary",
	}

	add := &cobra.Command{
		Use:     "add <word>",
		Short:   "Save a word",
		Example: addExample,
		Args:    cobra.ExactArgs(1),
		RunE:    newAddRun(ctx),
	}
	f := add.Flags()
	f.StringVarP(&definitionFlag, "definition", "d", "", "the definition of the word")
	f.StringVar(&contextFlag, "context", "", "the sentence the word was found in")
	f.StringVarP(&bookFlag, "book", "b", "", "the book the word was found in")
	add.MarkFlagRequired("definition")

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"l"},
		Short:   "List saved words",
		Args:    cobra.NoArgs,
		RunE:    newLsRun(ctx),
	}
	ls.Flags().BoolVar(&dueFlag, "due", false, "only list words due for review")

	review := &cobra.Command{
		Use:     "review <id>",
		Short:   "Record the outcome of a review",
		Example: reviewExample,
		Args:    cobra.ExactArgs(1),
		RunE:    newReviewRun(ctx),
	}
	review.Flags().BoolVar(&incorrectFlag, "incorrect", false, "the word was not recalled")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a saved word",
		Args:  cobra.ExactArgs(1),
		RunE:  newRmRun(ctx),
	}
	rm.Flags().BoolVarP(&yesFlag, "yes", "y", false, "remove without confirmation")

	cmd.AddCommand(add, ls, review, rm)

	return cmd
}

func newAddRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		w, outcome, err := adapters.NewVocabulary(rt.Manager).Add(cmd.Context(), adapters.WordParams{
			Word:       args[0],
			Definition: definitionFlag,
			Context:    contextFlag,
			BookID:     bookFlag,
		})
		if errors.Is(err, adapters.ErrDuplicateWord) {
			return errors.Errorf("'%s' is already saved (id %s)", w.Word, w.ID)
		} else if err != nil {
			return errors.Wrap(err, "saving word")
		}

		output.Saved("saved word", outcome)
		output.WordInfo(w)

		return nil
	}
}

func newLsRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		v := adapters.NewVocabulary(rt.Manager)

		words := v.Words(cmd.Context())
		if dueFlag {
			words = v.Due(cmd.Context(), ctx.Clock.Now())
		}

		if len(words) == 0 {
			log.Info("no words\n")
			return nil
		}

		output.Words(words)

		return nil
	}
}

func newReviewRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		w, outcome, err := adapters.NewVocabulary(rt.Manager).Review(cmd.Context(), args[0], !incorrectFlag)
		if errors.Is(err, adapters.ErrNotFound) {
			return errors.Errorf("word %s not found", args[0])
		} else if err != nil {
			return errors.Wrap(err, "reviewing word")
		}

		output.Saved("recorded review", outcome)
		output.WordInfo(w)

		return nil
	}
}

func newRmRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		v := adapters.NewVocabulary(rt.Manager)

		w, err := v.Get(args[0])
		if errors.Is(err, adapters.ErrNotFound) {
			return errors.Errorf("word %s not found", args[0])
		} else if err != nil {
			return errors.Wrap(err, "finding word")
		}

		if !yesFlag {
			output.WordInfo(w)

			ok, err := ui.Confirm("remove this word?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		outcome, err := v.Remove(cmd.Context(), w.ID)
		if err != nil {
			return errors.Wrap(err, "removing word")
		}

		output.Saved("removed word", outcome)

		return nil
	}
}
