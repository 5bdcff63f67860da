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

package diff

import (
	"testing"

	"github.com/folio-reader/folio/pkg/assert"
)

func TestFormat(t *testing.T) {
	testCases := []struct {
		s1       string
		s2       string
		expected string
	}{
		{
			s1:       "a\nb\nc\n",
			s2:       "a\nb\nc\n",
			expected: " a\n b\n c\n",
		},
		{
			s1:       "a\nb\nc\n",
			s2:       "a\nx\nc\n",
			expected: " a\n-b\n+x\n c\n",
		},
		{
			s1:       "a\n",
			s2:       "a\nb",
			expected: " a\n+b\n",
		},
	}

	for _, tc := range testCases {
		got := Format(Do(tc.s1, tc.s2))
		assert.Equal(t, got, tc.expected, "result mismatch")
	}
}
