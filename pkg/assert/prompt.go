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

package assert

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// WaitForPrompt reads stdout until the expected prompt appears. Prompts are
// matched byte by byte since they usually lack a trailing newline.
func WaitForPrompt(stdout io.Reader, expectedPrompt string, timeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(stdout)
		var seen strings.Builder

		for {
			b, err := reader.ReadByte()
			if errors.Is(err, io.EOF) {
				errCh <- errors.Errorf("expected prompt '%s' not found in stdout", expectedPrompt)
				return
			} else if err != nil {
				errCh <- errors.Wrap(err, "reading stdout")
				return
			}

			seen.WriteByte(b)
			if strings.HasSuffix(seen.String(), expectedPrompt) {
				errCh <- nil
				return
			}
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(timeout):
		return errors.Errorf("timeout waiting for prompt '%s'", expectedPrompt)
	}
}

// RespondToPrompt waits for the prompt and writes the response to stdin
func RespondToPrompt(stdout io.Reader, stdin io.Writer, expectedPrompt, response string, timeout time.Duration) error {
	if err := WaitForPrompt(stdout, expectedPrompt, timeout); err != nil {
		return err
	}

	if _, err := io.WriteString(stdin, response); err != nil {
		return errors.Wrap(err, "writing response to stdin")
	}

	return nil
}
