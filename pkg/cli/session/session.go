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

// Package session keeps the signed-in user of the local device
package session

import (
	"sync"

	"github.com/folio-reader/folio/pkg/cli/consts"
	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/pkg/errors"
)

// ErrNotLoggedIn is an error for a command that requires a signed-in user
var ErrNotLoggedIn = errors.New("not logged in")

// Session is the authentication state persisted in the system table
type Session struct {
	db    *database.DB
	clock clock.Clock

	mu        sync.Mutex
	userID    string
	key       string
	expiry    int64
	nextID    int
	listeners map[int]func(oldUserID, newUserID string)
}

// Load reads the session from the database
func Load(db *database.DB, c clock.Clock) (*Session, error) {
	s := &Session{
		db:        db,
		clock:     c,
		listeners: map[int]func(string, string){},
	}

	if err := getOptional(db, consts.SystemUserID, &s.userID); err != nil {
		return nil, err
	}
	if err := getOptional(db, consts.SystemSessionKey, &s.key); err != nil {
		return nil, err
	}
	if err := getOptional(db, consts.SystemSessionKeyExpiry, &s.expiry); err != nil {
		return nil, err
	}

	return s, nil
}

func getOptional(db *database.DB, key string, dest interface{}) error {
	err := database.GetSystem(db, key, dest)
	if err != nil && !database.IsNotFound(err) {
		return err
	}

	return nil
}

// CurrentUserID returns the id of the signed-in user, or an empty string
func (s *Session) CurrentUserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.userID
}

// SessionKey returns the session key if it has not expired
func (s *Session) SessionKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiredLocked() {
		return ""
	}

	return s.key
}

// Expiry returns the unix timestamp at which the session key expires
func (s *Session) Expiry() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.expiry
}

// Expired checks if a key is present but no longer valid
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.expiredLocked()
}

func (s *Session) expiredLocked() bool {
	return s.key != "" && s.expiry != 0 && s.clock.Now().Unix() >= s.expiry
}

// Subscribe registers fn to be called when the signed-in user changes and
// returns a function that removes it. An empty id means signed out.
func (s *Session) Subscribe(fn func(oldUserID, newUserID string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.listeners, id)
	}
}

// SignIn persists the session and notifies listeners if the user changed
func (s *Session) SignIn(userID, key string, expiry int64) error {
	if userID == "" {
		return errors.New("empty user id")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}
	if err := database.UpdateSystem(tx, consts.SystemUserID, userID); err != nil {
		tx.Rollback()
		return err
	}
	if err := database.UpdateSystem(tx, consts.SystemSessionKey, key); err != nil {
		tx.Rollback()
		return err
	}
	if err := database.UpdateSystem(tx, consts.SystemSessionKeyExpiry, expiry); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	s.mu.Lock()
	old := s.userID
	s.userID = userID
	s.key = key
	s.expiry = expiry
	s.mu.Unlock()

	s.notify(old, userID)

	return nil
}

// SignOut forgets the session. Local records are left in place.
func (s *Session) SignOut() error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}
	for _, key := range []string{consts.SystemUserID, consts.SystemSessionKey, consts.SystemSessionKeyExpiry} {
		if err := database.DeleteSystem(tx, key); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	s.mu.Lock()
	old := s.userID
	s.userID = ""
	s.key = ""
	s.expiry = 0
	s.mu.Unlock()

	s.notify(old, "")

	return nil
}

func (s *Session) notify(oldUserID, newUserID string) {
	if oldUserID == newUserID {
		return
	}

	s.mu.Lock()
	listeners := make([]func(string, string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(oldUserID, newUserID)
	}
}
