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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/assert"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func serve(h http.Handler, remoteAddr string) int {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	return w.Code
}

func TestLimit(t *testing.T) {
	limiter := NewRateLimiter(0.1, 3)
	defer limiter.Stop()
	h := limiter.Limit(http.HandlerFunc(okHandler))

	blocked := 0
	for i := 0; i < 8; i++ {
		if serve(h, "192.168.1.1:1234") == http.StatusTooManyRequests {
			blocked++
		}
	}

	assert.Equal(t, blocked >= 4, true, "requests after the burst should be limited")

	// another IP has its own budget
	assert.Equal(t, serve(h, "192.168.1.2:5678"), http.StatusOK, "status mismatch")
	// the port is not part of the identity
	assert.Equal(t, serve(h, "192.168.1.1:9999"), http.StatusTooManyRequests, "status mismatch")
}

func TestEvict(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	defer limiter.Stop()

	limiter.getVisitor("a")
	limiter.getVisitor("b")
	limiter.visitors["a"].lastSeen = time.Now().Add(-visitorTTL - time.Second)

	limiter.evict(time.Now())

	_, hasA := limiter.visitors["a"]
	_, hasB := limiter.visitors["b"]
	assert.Equal(t, hasA, false, "idle visitor should be evicted")
	assert.Equal(t, hasB, true, "active visitor should be kept")
}

func TestLookupIP(t *testing.T) {
	testCases := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"remote addr", nil, "10.0.0.1:5000", "10.0.0.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "10.0.0.1:5000", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": "3.3.3.3"}, "10.0.0.1:5000", "3.3.3.3"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, lookupIP(req), tc.expected, "ip mismatch")
		})
	}
}
