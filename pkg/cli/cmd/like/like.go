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

package like

import (
	"github.com/folio-reader/folio/pkg/cli/adapters"
	"github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/infra"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/output"
	"github.com/folio-reader/folio/pkg/cli/syncer"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Like a book, or unlike it if it is already liked
 folio like 1c8e0b2a --slug alice-in-wonderland --title "Alice's Adventures in Wonderland"

 * List liked books
 folio like ls`

var slugFlag, titleFlag, coverFlag string

// NewCmd returns a new like command
func NewCmd(ctx context.FolioCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "like <book id>",
		Short:   "Like or unlike a book",
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&slugFlag, "slug", "", "the slug of the book (defaults to the id)")
	f.StringVar(&titleFlag, "title", "", "the title of the book")
	f.StringVar(&coverFlag, "cover", "", "the cover image of the book")

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"l"},
		Short:   "List liked books",
		Args:    cobra.NoArgs,
		RunE:    newLsRun(ctx),
	})

	return cmd
}

func newRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		book := entity.LikedBook{
			BookID:    args[0],
			BookSlug:  slugFlag,
			BookTitle: titleFlag,
			BookCover: coverFlag,
		}
		if book.BookSlug == "" {
			book.BookSlug = book.BookID
		}

		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		liked, outcome, err := adapters.NewLikes(rt.Manager).Toggle(cmd.Context(), book)
		if err != nil {
			return errors.Wrap(err, "toggling like")
		}

		if outcome == syncer.OutcomeRejected {
			log.Errorf("the server rejected the change, %s is unchanged\n", book.BookID)
			return nil
		}

		if liked {
			output.Saved("liked "+book.BookID, outcome)
		} else {
			output.Saved("unliked "+book.BookID, outcome)
		}

		return nil
	}
}

func newLsRun(ctx context.FolioCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rt := infra.NewRuntime(cmd.Context(), ctx, infra.RuntimeOptions{})
		defer rt.Close()

		books := adapters.NewLikes(rt.Manager).Books(cmd.Context())
		if len(books) == 0 {
			log.Info("no liked books\n")
			return nil
		}

		output.LikedBooks(books)

		return nil
	}
}
