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

package app

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a resource does not exist
	ErrNotFound = errors.New("not found")
	// ErrLoginInvalid is returned for a wrong email and password combination
	ErrLoginInvalid = errors.New("wrong login credentials")
	// ErrEmailRequired is returned when an email is missing
	ErrEmailRequired = errors.New("email is required")
	// ErrPasswordRequired is returned when a password is missing
	ErrPasswordRequired = errors.New("password is required")
	// ErrPasswordTooShort is returned when a password is shorter than 8 characters
	ErrPasswordTooShort = errors.New("password should be longer than 8 characters")
	// ErrDuplicateEmail is returned when the email is already taken
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrUserHasExistingResources is returned when removing a user who still owns rows
	ErrUserHasExistingResources = errors.New("user still owns rows")

	// ErrUnknownTable is returned for a table that holds no entity type
	ErrUnknownTable = errors.New("unknown table")
	// ErrForbidden is returned when a row belongs to another user
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidRow is returned for a row that cannot be stored
	ErrInvalidRow = errors.New("invalid row")
)
