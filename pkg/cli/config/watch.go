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

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
)

// Watch polls the config file at the given path and calls onChange with the
// new configuration every time the file is written. Files that fail to parse
// are reported and skipped. It blocks until ctx is done.
func Watch(ctx context.Context, path string, interval time.Duration, onChange func(Config)) error {
	w := watcher.New()
	w.FilterOps(watcher.Write, watcher.Create, watcher.Rename, watcher.Move)

	// The directory is watched so that a file replaced by rename is still seen
	if err := w.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "watching %s", filepath.Dir(path))
	}

	name := filepath.Base(path)

	go func() {
		for {
			select {
			case ev := <-w.Event:
				if filepath.Base(ev.Path) != name {
					continue
				}

				cf, err := ReadFile(path)
				if err != nil {
					log.Warnf("ignoring config change: %s\n", err.Error())
					continue
				}

				log.Debug("config changed: %s\n", ev.Op)
				onChange(cf)
			case err := <-w.Error:
				log.Debug("config watcher: %s\n", err.Error())
			case <-w.Closed:
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		w.Close()
	}()

	if err := w.Start(interval); err != nil {
		return errors.Wrap(err, "starting config watcher")
	}

	return nil
}
