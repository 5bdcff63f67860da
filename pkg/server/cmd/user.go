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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/folio-reader/folio/pkg/prompt"
	"github.com/folio-reader/folio/pkg/server/app"
	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/pkg/errors"
)

// confirm prompts for user input to confirm a choice
func confirm(r io.Reader, question string, optimistic bool) (bool, error) {
	message := prompt.FormatQuestion(question, optimistic)
	fmt.Print(message + " ")

	confirmed, err := prompt.ReadYesNo(r, optimistic)
	if err != nil {
		return false, errors.Wrap(err, "reading stdin")
	}

	return confirmed, nil
}

func userCreateCmd(args []string) {
	fs := setupFlagSet("create", "folio-server user create")

	email := fs.String("email", "", "User email address (required)")
	password := fs.String("password", "", "User password (required)")
	dbDriver, dbPath := dbFlags(fs)

	fs.Parse(args)

	requireString(fs, *email, "email")
	requireString(fs, *password, "password")

	a, cleanup := setupAppWithDB(fs, *dbDriver, *dbPath)
	defer cleanup()

	user, err := a.CreateUser(*email, *password)
	if err != nil {
		if errors.Is(err, app.ErrPasswordTooShort) || errors.Is(err, app.ErrDuplicateEmail) || errors.Is(err, app.ErrEmailRequired) {
			fmt.Printf("Error: %s\n", err)
		} else {
			log.ErrorWrap(err, "creating user")
		}
		cleanup()
		os.Exit(1)
	}

	fmt.Printf("User created successfully\n")
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("ID: %s\n", user.UUID)
}

func userRemoveCmd(args []string, stdin io.Reader) {
	fs := setupFlagSet("remove", "folio-server user remove")

	email := fs.String("email", "", "User email address (required)")
	purge := fs.Bool("purge", false, "Also delete every row the user owns")
	dbDriver, dbPath := dbFlags(fs)

	fs.Parse(args)

	requireString(fs, *email, "email")

	a, cleanup := setupAppWithDB(fs, *dbDriver, *dbPath)
	defer cleanup()

	if _, err := a.GetUserByEmail(*email); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			fmt.Printf("Error: user with email %s not found\n", *email)
		} else {
			log.ErrorWrap(err, "finding user")
		}
		cleanup()
		os.Exit(1)
	}

	ok, err := confirm(stdin, fmt.Sprintf("Remove user %s?", *email), false)
	if err != nil {
		log.ErrorWrap(err, "getting confirmation")
		cleanup()
		os.Exit(1)
	}
	if !ok {
		fmt.Println("Aborted by user")
		return
	}

	if err := a.RemoveUser(*email, *purge); err != nil {
		if errors.Is(err, app.ErrUserHasExistingResources) {
			fmt.Printf("Error: %s. Use --purge to delete them.\n", err)
		} else {
			log.ErrorWrap(err, "removing user")
		}
		cleanup()
		os.Exit(1)
	}

	fmt.Printf("User removed successfully\n")
	fmt.Printf("Email: %s\n", *email)
}

func userResetPasswordCmd(args []string) {
	fs := setupFlagSet("reset-password", "folio-server user reset-password")

	email := fs.String("email", "", "User email address (required)")
	password := fs.String("password", "", "New password (required)")
	dbDriver, dbPath := dbFlags(fs)

	fs.Parse(args)

	requireString(fs, *email, "email")
	requireString(fs, *password, "password")

	a, cleanup := setupAppWithDB(fs, *dbDriver, *dbPath)
	defer cleanup()

	user, err := a.GetUserByEmail(*email)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			fmt.Printf("Error: user with email %s not found\n", *email)
		} else {
			log.ErrorWrap(err, "finding user")
		}
		cleanup()
		os.Exit(1)
	}

	if err := a.UpdatePassword(user, *password); err != nil {
		if errors.Is(err, app.ErrPasswordTooShort) {
			fmt.Printf("Error: %s\n", err)
		} else {
			log.ErrorWrap(err, "updating password")
		}
		cleanup()
		os.Exit(1)
	}

	fmt.Printf("Password reset successfully\n")
	fmt.Printf("Email: %s\n", *email)
}

const userUsage = `Available commands:
  create: Create a new user
  remove: Remove a user
  reset-password: Reset a user's password and sign out their sessions`

func userCmd(args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage:\n  folio-server user [command]\n\n%s\n", userUsage)
		os.Exit(1)
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "create":
		userCreateCmd(subArgs)
	case "remove":
		userRemoveCmd(subArgs, os.Stdin)
	case "reset-password":
		userResetPasswordCmd(subArgs)
	default:
		fmt.Printf("Unknown subcommand: %s\n\n%s\n", subcommand, userUsage)
		os.Exit(1)
	}
}
