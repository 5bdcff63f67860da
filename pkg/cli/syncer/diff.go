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

package syncer

import (
	"encoding/json"

	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/utils/diff"
	"github.com/folio-reader/folio/pkg/entity"
)

func indent(rec entity.Record) string {
	b, err := json.MarshalIndent(rec.Payload, "", "  ")
	if err != nil {
		return err.Error()
	}

	return string(b) + "\n"
}

// describeOverwrite renders the change from the local to the remote copy
func describeOverwrite(o database.Overwrite) string {
	return diff.Format(diff.Do(indent(o.Local), indent(o.Remote)))
}

// logOverwrites prints the local copies replaced by the remote store in debug mode
func logOverwrites(overwrites []database.Overwrite) {
	if !log.IsDebug() {
		return
	}

	for _, o := range overwrites {
		log.Debug("remote copy of %s %s replaced the local copy:\n%s", o.Local.Type, o.Local.ID, describeOverwrite(o))
	}
}
