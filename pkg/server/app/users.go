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

import (
	"strings"

	"github.com/folio-reader/folio/pkg/entity"
	"github.com/folio-reader/folio/pkg/server/database"
	"github.com/folio-reader/folio/pkg/server/helpers"
	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TouchLastLoginAt updates the last login timestamp
func (a *App) TouchLastLoginAt(user database.User, tx *gorm.DB) error {
	t := a.Clock.Now()
	if err := tx.Model(&user).Update("last_login_at", &t).Error; err != nil {
		return errors.Wrap(err, "updating last_login_at")
	}

	return nil
}

// CreateUser creates a user
func (a *App) CreateUser(email, password string) (database.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return database.User{}, ErrEmailRequired
	}
	if len(password) < 8 {
		return database.User{}, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return database.User{}, errors.Wrap(err, "hashing password")
	}

	uuid, err := helpers.GenUUID()
	if err != nil {
		return database.User{}, err
	}

	user := database.User{
		UUID:     uuid,
		Email:    email,
		Password: string(hashedPassword),
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return errors.Wrap(err, "counting user")
		}
		if count > 0 {
			return ErrDuplicateEmail
		}

		if err := tx.Create(&user).Error; err != nil {
			return errors.Wrap(err, "saving user")
		}

		return nil
	})
	if err != nil {
		return database.User{}, err
	}

	return user, nil
}

// GetUserByEmail finds a user by email
func (a *App) GetUserByEmail(email string) (database.User, error) {
	var user database.User
	err := a.DB.Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrNotFound
	} else if err != nil {
		return user, errors.Wrap(err, "finding user")
	}

	return user, nil
}

// UpdatePassword sets a new password for the user and signs out every session
func (a *App) UpdatePassword(user database.User, password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}

	return a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
			return errors.Wrap(err, "updating password")
		}

		return a.DeleteUserSessions(tx, user.ID)
	})
}

// Authenticate authenticates a user
func (a *App) Authenticate(email, password string) (database.User, error) {
	user, err := a.GetUserByEmail(email)
	if err != nil {
		return user, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return database.User{}, ErrLoginInvalid
	}

	return user, nil
}

// SignIn authenticates the user and creates a new session
func (a *App) SignIn(email, password string) (database.User, database.Session, error) {
	if normalizeEmail(email) == "" {
		return database.User{}, database.Session{}, ErrEmailRequired
	}
	if password == "" {
		return database.User{}, database.Session{}, ErrPasswordRequired
	}

	user, err := a.Authenticate(email, password)
	if errors.Is(err, ErrNotFound) {
		return database.User{}, database.Session{}, ErrLoginInvalid
	} else if err != nil {
		return database.User{}, database.Session{}, err
	}

	if err := a.TouchLastLoginAt(user, a.DB); err != nil {
		log.ErrorWrap(err, "touching login timestamp")
	}

	session, err := a.CreateSession(user.ID)
	if err != nil {
		return database.User{}, database.Session{}, errors.Wrap(err, "creating session")
	}

	return user, session, nil
}

// countUserRows returns how many rows the user owns across every table
func countUserRows(tx *gorm.DB, user database.User) (int64, error) {
	var total int64
	for _, t := range entity.Types() {
		var n int64
		if err := tx.Table(t.Table()).Where("owner_id = ?", user.UUID).Count(&n).Error; err != nil {
			return 0, errors.Wrapf(err, "counting %s", t.Table())
		}
		total += n
	}

	return total, nil
}

// RemoveUser deletes the user with the given email along with their sessions.
// A user who still owns rows is only removed when purge is set, in which case
// the rows are deleted too.
func (a *App) RemoveUser(email string, purge bool) error {
	user, err := a.GetUserByEmail(email)
	if err != nil {
		return err
	}

	return a.DB.Transaction(func(tx *gorm.DB) error {
		n, err := countUserRows(tx, user)
		if err != nil {
			return err
		}
		if n > 0 && !purge {
			return errors.Wrapf(ErrUserHasExistingResources, "%d rows", n)
		}

		for _, t := range entity.Types() {
			if err := tx.Table(t.Table()).Where("owner_id = ?", user.UUID).Delete(&database.Row{}).Error; err != nil {
				return errors.Wrapf(err, "deleting %s", t.Table())
			}
		}

		if err := a.DeleteUserSessions(tx, user.ID); err != nil {
			return err
		}
		if err := tx.Delete(&user).Error; err != nil {
			return errors.Wrap(err, "deleting user")
		}

		log.WithFields(log.Fields{"user_id": user.UUID, "rows": n}).Info("removed user")

		return nil
	})
}
