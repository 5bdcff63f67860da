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

package entity

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Encode serializes the payload into its JSON column value
func Encode(p Payload) ([]byte, error) {
	if p == nil {
		return nil, errors.New("encoding a nil payload")
	}

	b, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrapf(err, "marshalling %s payload", p.EntityType())
	}

	return b, nil
}

// Decode parses the JSON column value of the given type back into its payload
func Decode(t Type, data []byte) (Payload, error) {
	switch t {
	case TypeHighlight:
		return decodeAs[Highlight](t, data)
	case TypeVocabularyWord:
		return decodeAs[VocabularyWord](t, data)
	case TypeLikedBook:
		return decodeAs[LikedBook](t, data)
	case TypeReaderSettings:
		return decodeAs[ReaderSettings](t, data)
	case TypeReadingProgress:
		return decodeAs[ReadingProgress](t, data)
	default:
		return nil, errors.Wrapf(ErrUnknownType, "decoding '%s'", t)
	}
}

func decodeAs[T Payload](t Type, data []byte) (Payload, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrapf(err, "unmarshalling %s payload", t)
	}

	return v, nil
}
