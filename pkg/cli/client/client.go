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

// Package client provides the interface to the remote store hosted by the
// folio server and the data structures of its responses
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrContentTypeMismatch is an error for a response that is not JSON
var ErrContentTypeMismatch = errors.New("content type mismatch")

var contentTypeApplicationJSON = "application/json"

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
	// requestTimeout bounds a single request so that an unreachable server reads as offline
	requestTimeout = 30 * time.Second
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	}
}

// Credentials supplies the session key attached to authorized requests
type Credentials interface {
	SessionKey() string
}

// Client talks to the remote store
type Client struct {
	endpoint    string
	version     string
	credentials Credentials
	hc          *http.Client
}

// Params are the parameters for a new client
type Params struct {
	// APIEndpoint is the base URL of the API, e.g. http://localhost:3001/api
	APIEndpoint string
	Version     string
	Credentials Credentials
	HTTPClient  *http.Client
}

// New returns a new client
func New(p Params) *Client {
	hc := p.HTTPClient
	if hc == nil {
		hc = NewRateLimitedHTTPClient()
	}

	return &Client{
		endpoint:    strings.TrimRight(p.APIEndpoint, "/"),
		version:     p.Version,
		credentials: p.Credentials,
		hc:          hc,
	}
}

func (c *Client) sessionKey() string {
	if c.credentials == nil {
		return ""
	}

	return c.credentials.SessionKey()
}

func (c *Client) newReq(ctx context.Context, method, path string, body interface{}, key string) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindEncode, Message: "encoding request body", Err: err}
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, r)
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("Client-Version", c.version)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}
	if key != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", key))
	}

	return req, nil
}

// checkRespErr converts an error response into an *Error
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	return newHTTPError(res.StatusCode, strings.TrimRight(string(body), "\n"))
}

func checkContentType(res *http.Response) error {
	got := res.Header.Get("Content-Type")
	if !strings.HasPrefix(got, contentTypeApplicationJSON) {
		return &Error{
			Kind:    KindDecode,
			Message: fmt.Sprintf("got: '%s' want: '%s'. Did you configure your endpoint correctly?", got, contentTypeApplicationJSON),
			Err:     ErrContentTypeMismatch,
		}
	}

	return nil
}

// do performs the request and decodes a JSON response into dest, if given
func (c *Client) do(req *http.Request, dest interface{}) error {
	log.Debug("HTTP %s %s\n", req.Method, req.URL.Path)

	res, err := c.hc.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "making http request", Err: err}
	}
	defer res.Body.Close()

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err := checkRespErr(res); err != nil {
		return err
	}

	if dest == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}

	if err := checkContentType(res); err != nil {
		return err
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return &Error{Kind: KindDecode, Message: "decoding response payload", Err: err}
	}

	return nil
}

func (c *Client) doAuthorized(ctx context.Context, method, path string, body, dest interface{}) error {
	key := c.sessionKey()
	if key == "" {
		return &Error{Kind: KindAuth, Message: "no session key found"}
	}

	req, err := c.newReq(ctx, method, path, body, key)
	if err != nil {
		return err
	}

	return c.do(req, dest)
}

func rowsPath(table string) string {
	return fmt.Sprintf("/v1/tables/%s/rows", url.PathEscape(table))
}

// UpsertPayload is the request body of the upsert endpoint
type UpsertPayload struct {
	Rows []entity.Row `json:"rows"`
}

// UpsertResp is the response of the upsert endpoint
type UpsertResp struct {
	Count int `json:"count"`
}

// Upsert inserts or replaces the given rows of the table in a single request.
// The remote store applies the batch as a whole.
func (c *Client) Upsert(ctx context.Context, table string, rows []entity.Row) error {
	if len(rows) == 0 {
		return nil
	}

	var resp UpsertResp
	if err := c.doAuthorized(ctx, http.MethodPut, rowsPath(table), UpsertPayload{Rows: rows}, &resp); err != nil {
		return errors.Wrapf(err, "upserting %d rows into %s", len(rows), table)
	}

	return nil
}

// Delete deletes the row with the given id owned by ownerID
func (c *Client) Delete(ctx context.Context, table, id, ownerID string) error {
	q := url.Values{}
	q.Set("owner_id", ownerID)
	path := fmt.Sprintf("%s/%s?%s", rowsPath(table), url.PathEscape(id), q.Encode())

	if err := c.doAuthorized(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return errors.Wrapf(err, "deleting %s from %s", id, table)
	}

	return nil
}

// RowsResp is the response of the select endpoint
type RowsResp struct {
	Rows []entity.Row `json:"rows"`
}

// SelectAll returns every row of the table owned by ownerID
func (c *Client) SelectAll(ctx context.Context, table, ownerID string) ([]entity.Row, error) {
	q := url.Values{}
	q.Set("owner_id", ownerID)
	path := fmt.Sprintf("%s?%s", rowsPath(table), q.Encode())

	var resp RowsResp
	if err := c.doAuthorized(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, errors.Wrapf(err, "selecting rows of %s", table)
	}

	return resp.Rows, nil
}

// Ping checks if the server is reachable
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newReq(ctx, http.MethodGet, "/v1/health", nil, "")
	if err != nil {
		return err
	}

	return c.do(req, nil)
}

// SigninPayload is a payload for signin
type SigninPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninResponse is a response from signin endpoint
type SigninResponse struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
	UserID    string `json:"user_id"`
}

// Signin requests a session for the given credentials
func (c *Client) Signin(ctx context.Context, email, password string) (SigninResponse, error) {
	var ret SigninResponse

	req, err := c.newReq(ctx, http.MethodPost, "/v1/signin", SigninPayload{Email: email, Password: password}, "")
	if err != nil {
		return ret, err
	}

	if err := c.do(req, &ret); err != nil {
		if KindOf(err) == KindAuth {
			return ret, ErrInvalidLogin
		}

		return ret, errors.Wrap(err, "requesting session")
	}

	return ret, nil
}

// Signout deletes the session with the given key on the server
func (c *Client) Signout(ctx context.Context, key string) error {
	req, err := c.newReq(ctx, http.MethodPost, "/v1/signout", nil, key)
	if err != nil {
		return err
	}

	if err := c.do(req, nil); err != nil {
		return errors.Wrap(err, "requesting signout")
	}

	return nil
}
