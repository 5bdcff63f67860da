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

package client

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrInvalidLogin is an error for invalid credentials for login
var ErrInvalidLogin = errors.New("wrong credentials")

// Kind classifies a remote failure
type Kind int

const (
	// KindUnknown is a failure that could not be classified
	KindUnknown Kind = iota
	// KindNetwork means the server could not be reached
	KindNetwork
	// KindAuth means the session is missing or expired
	KindAuth
	// KindPermission means the server refused to act on the rows
	KindPermission
	// KindNotFound means the table or row does not exist
	KindNotFound
	// KindConflict means the write conflicted with the server state
	KindConflict
	// KindInvalid means the server rejected the request body
	KindInvalid
	// KindRateLimited means the server asked the client to slow down
	KindRateLimited
	// KindServer means the server failed to handle the request
	KindServer
	// KindEncode means the request could not be encoded
	KindEncode
	// KindDecode means the response could not be decoded
	KindDecode
)

var kindNames = map[Kind]string{
	KindUnknown:     "unknown",
	KindNetwork:     "network",
	KindAuth:        "auth",
	KindPermission:  "permission",
	KindNotFound:    "not found",
	KindConflict:    "conflict",
	KindInvalid:     "invalid",
	KindRateLimited: "rate limited",
	KindServer:      "server",
	KindEncode:      "encode",
	KindDecode:      "decode",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Error is a failure of a request to the remote store
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}

	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConflict returns true if the error is a 409 Conflict error
func (e *Error) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

func newHTTPError(status int, message string) *Error {
	var kind Kind

	switch {
	case status == http.StatusUnauthorized:
		kind = KindAuth
	case status == http.StatusForbidden:
		kind = KindPermission
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindConflict
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindInvalid
	case status >= 500:
		kind = KindServer
	default:
		kind = KindUnknown
	}

	return &Error{Kind: kind, StatusCode: status, Message: message}
}

// KindOf returns the kind of the remote failure wrapped in err
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// IsRetryable checks if retrying the same request later may succeed
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindRateLimited, KindServer:
		return true
	default:
		return false
	}
}
