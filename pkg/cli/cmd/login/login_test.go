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

package login

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/assert"
	"github.com/folio-reader/folio/pkg/cli/client"
	folioctx "github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/infra"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
)

func TestGetServerDisplayURL(t *testing.T) {
	testCases := []struct {
		apiEndpoint string
		expected    string
	}{
		{
			apiEndpoint: "https://folio.mydomain.com/api",
			expected:    "https://folio.mydomain.com",
		},
		{
			apiEndpoint: "https://mysubdomain.mydomain.com/folio/api",
			expected:    "https://mysubdomain.mydomain.com",
		},
		{
			apiEndpoint: "https://folio.mysubdomain.mydomain.com/api",
			expected:    "https://folio.mysubdomain.mydomain.com",
		},
		{
			apiEndpoint: "some-string",
			expected:    "",
		},
		{
			apiEndpoint: "",
			expected:    "",
		},
		{
			apiEndpoint: "https://",
			expected:    "",
		},
		{
			apiEndpoint: "https://abc",
			expected:    "https://abc",
		},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("for input %s", tc.apiEndpoint), func(t *testing.T) {
			got := getServerDisplayURL(folioctx.FolioCtx{APIEndpoint: tc.apiEndpoint})
			assert.Equal(t, got, tc.expected, "result mismatch")
		})
	}
}

func TestDo(t *testing.T) {
	var mu sync.Mutex
	var upserted []entity.Row

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/signin":
			var p client.SigninPayload
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if p.Password != "pass1234" {
				http.Error(w, "wrong login", http.StatusUnauthorized)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(client.SigninResponse{
				Key:       "someSessionKey",
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
				UserID:    "u1",
			})
		case r.Method == http.MethodPut:
			var p client.UpsertPayload
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			mu.Lock()
			upserted = append(upserted, p.Rows...)
			mu.Unlock()

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(client.UpsertResp{Count: len(p.Rows)})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	ctx := folioctx.InitTestCtx(t)
	ctx.APIEndpoint = server.URL
	ctx.HTTPClient = server.Client()

	// written while signed out
	h := entity.Highlight{ID: "h1", BookSlug: "alice", Page: 3, Text: "foo", Color: entity.ColorYellow}
	if err := ctx.Store.Put(entity.NewRecord(h, "", ctx.Clock.Now())); err != nil {
		t.Fatal(errors.Wrap(err, "writing highlight"))
	}

	rt := infra.NewRuntime(context.Background(), ctx, infra.RuntimeOptions{})
	defer rt.Close()
	rt.Attach(context.Background(), ctx)

	err := Do(context.Background(), ctx, rt, "alice@example.com", "wrong")
	assert.Equal(t, errors.Is(err, client.ErrInvalidLogin), true, "error mismatch")
	assert.Equal(t, ctx.Session.CurrentUserID(), "", "failed login should not sign in")

	if err := Do(context.Background(), ctx, rt, "alice@example.com", "pass1234"); err != nil {
		t.Fatal(errors.Wrap(err, "logging in"))
	}

	assert.Equal(t, ctx.Session.CurrentUserID(), "u1", "user mismatch")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, len(upserted), 1, "claimed highlight should be synced")
	assert.Equal(t, upserted[0].OwnerID, "u1", "owner mismatch")

	n, err := ctx.Store.CountUnsynced("u1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting unsynced"))
	}
	assert.Equal(t, n, 0, "unsynced count mismatch")
}
