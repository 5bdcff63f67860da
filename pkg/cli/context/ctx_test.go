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

package context

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/assert"
	"github.com/folio-reader/folio/pkg/cli/consts"
	"github.com/pkg/errors"
)

func TestRedact(t *testing.T) {
	ctx := InitTestCtx(t)
	ctx.APIEndpoint = "http://localhost:3001/api"

	got := Redact(ctx)
	assert.Equal(t, strings.Contains(got, "Session:0"), true, "signed-out session mismatch")

	if err := ctx.Session.SignIn("u1", "secretKey", time.Now().Add(time.Hour).Unix()); err != nil {
		t.Fatal(errors.Wrap(err, "signing in"))
	}

	got = Redact(ctx)
	assert.Equal(t, strings.Contains(got, "Session:1"), true, "signed-in session mismatch")
	assert.Equal(t, strings.Contains(got, "secretKey"), false, "session key should not be printed")
}

func TestInitFolioDirs(t *testing.T) {
	tmpDir := t.TempDir()
	paths := Paths{
		Config: filepath.Join(tmpDir, "config"),
		Data:   filepath.Join(tmpDir, "data"),
		Cache:  filepath.Join(tmpDir, "cache"),
	}

	if err := InitFolioDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "initializing dirs"))
	}
	// idempotent
	if err := InitFolioDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "initializing dirs again"))
	}

	for _, dir := range []string{paths.Config, paths.Data, paths.Cache} {
		fi, err := os.Stat(filepath.Join(dir, consts.FolioDirName))
		if err != nil {
			t.Fatal(errors.Wrapf(err, "checking %s", dir))
		}
		assert.Equal(t, fi.IsDir(), true, "should be a directory")
	}

	assert.Equal(t, DBPath(paths), filepath.Join(paths.Data, "folio", "folio.db"), "db path mismatch")
}
