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

package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/folio-reader/folio/pkg/assert"
)

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	testPath := filepath.Join(tmpDir, "test", "nested", "dir")

	err := EnsureDir(testPath)
	assert.Equal(t, err, nil, "EnsureDir should succeed")

	info, err := os.Stat(testPath)
	assert.Equal(t, err, nil, "directory should exist")
	assert.Equal(t, info.IsDir(), true, "should be a directory")

	err = EnsureDir(testPath)
	assert.Equal(t, err, nil, "EnsureDir should succeed on existing directory")
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "foliorc")

	ok, err := FileExists(path)
	assert.Equal(t, err, nil, "FileExists should succeed")
	assert.Equal(t, ok, false, "file should not exist")

	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ok, err = FileExists(path)
	assert.Equal(t, err, nil, "FileExists should succeed")
	assert.Equal(t, ok, true, "file should exist")
}

func TestWriteFileAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "foliorc")

	if err := WriteFileAtomic(path, []byte("first"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0600); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	assert.Equal(t, err, nil, "reading file should succeed")
	assert.Equal(t, string(b), "second", "content mismatch")

	fi, err := os.Stat(path)
	assert.Equal(t, err, nil, "stat should succeed")
	assert.Equal(t, fi.Mode().Perm(), os.FileMode(0600), "mode mismatch")

	entries, err := os.ReadDir(tmpDir)
	assert.Equal(t, err, nil, "reading dir should succeed")
	assert.Equal(t, len(entries), 1, "temporary files should be cleaned up")
}
