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

// Package testutils provides utilities used in tests
package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/entity"
	"github.com/folio-reader/folio/pkg/server/config"
	"github.com/folio-reader/folio/pkg/server/database"
	"github.com/folio-reader/folio/pkg/server/helpers"
	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Epoch is the fixed time used by fixtures
var Epoch = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

// InitMemoryDB creates an in-memory SQLite database with the schema initialized
func InitMemoryDB(t *testing.T) *gorm.DB {
	// a unique name per test keeps the shared cache from leaking between tests
	name := MustUUID(t)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := database.Open(config.DriverSQLite, dsn, log.LevelError)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening in-memory database"))
	}
	if err := database.InitSchema(db); err != nil {
		t.Fatal(errors.Wrap(err, "initializing schema"))
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}

	t.Cleanup(func() { database.Close(db) })

	return db
}

// MustUUID generates a UUID and fails the test on error
func MustUUID(t *testing.T) string {
	uuid, err := helpers.GenUUID()
	if err != nil {
		t.Fatal(errors.Wrap(err, "Failed to generate UUID"))
	}
	return uuid
}

// MustExec fails the test if the given database query has error
func MustExec(t *testing.T, db *gorm.DB, message string) {
	if err := db.Error; err != nil {
		t.Fatalf("%s: %s", message, err.Error())
	}
}

// SetupUserData creates and returns a new user with email and password for testing purposes
func SetupUserData(db *gorm.DB, email, password string) database.User {
	uuid, err := helpers.GenUUID()
	if err != nil {
		panic(errors.Wrap(err, "Failed to generate UUID"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(errors.Wrap(err, "Failed to hash password"))
	}

	user := database.User{
		UUID:     uuid,
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := db.Save(&user).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare user"))
	}

	return user
}

// SetupSession creates and returns a new session for the user, valid for a day
// from now
func SetupSession(db *gorm.DB, user database.User, now time.Time) database.Session {
	key, err := helpers.GetRandomStr(32)
	if err != nil {
		panic(errors.Wrap(err, "generating key"))
	}

	session := database.Session{
		Key:        key,
		UserID:     user.ID,
		LastUsedAt: now,
		ExpiresAt:  now.Add(24 * time.Hour),
	}
	if err := db.Save(&session).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare session"))
	}

	return session
}

// SetupRow stores the record in its remote table
func SetupRow(t *testing.T, db *gorm.DB, rec entity.Record) {
	row, err := entity.ToRow(rec)
	if err != nil {
		t.Fatal(errors.Wrap(err, "converting record"))
	}

	m := database.Row{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Payload:   string(row.Payload),
		UpdatedAt: row.UpdatedAt,
	}
	if err := db.Table(rec.Type.Table()).Create(&m).Error; err != nil {
		t.Fatal(errors.Wrap(err, "inserting row"))
	}
}

// CountRows returns the number of rows in the table
func CountRows(t *testing.T, db *gorm.DB, table string) int64 {
	var count int64
	if err := db.Table(table).Count(&count).Error; err != nil {
		t.Fatal(errors.Wrapf(err, "counting %s", table))
	}

	return count
}

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}

	return res
}

// HTTPAuthDo makes an HTTP request authorized with the given session
func HTTPAuthDo(t *testing.T, req *http.Request, session database.Session) *http.Response {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.Key))

	return HTTPDo(t, req)
}

// MakeReq makes an HTTP request with the given body
func MakeReq(endpoint, method, path, data string) *http.Request {
	req, err := http.NewRequest(method, endpoint+path, bytes.NewBufferString(data))
	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}

	return req
}

// MakeJSONReq makes an HTTP request with the JSON encoding of the given value as the body
func MakeJSONReq(t *testing.T, endpoint, method, path string, v interface{}) *http.Request {
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(errors.Wrap(err, "marshalling payload"))
	}

	req := MakeReq(endpoint, method, path, string(b))
	req.Header.Set("Content-Type", "application/json")

	return req
}

// MustDecodeJSON decodes the response body into v
func MustDecodeJSON(t *testing.T, res *http.Response, v interface{}) {
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatal(errors.Wrap(err, "decoding response"))
	}
}
