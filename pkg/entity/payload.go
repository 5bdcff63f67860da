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
	"time"
)

// Payload is the entity-specific body of a record. It is implemented only by
// the entity shapes in this package.
type Payload interface {
	EntityType() Type
	RecordID() string
	isPayload()
}

// Highlight colors
const (
	ColorYellow = "yellow"
	ColorGreen  = "green"
	ColorBlue   = "blue"
	ColorPink   = "pink"
	ColorPurple = "purple"
)

// Reader themes
const (
	ThemeLight = "light"
	ThemeSepia = "sepia"
	ThemeDark  = "dark"
)

// Highlight is a passage of text marked on a page. It is immutable once created.
type Highlight struct {
	ID        string    `json:"id" validate:"required"`
	BookSlug  string    `json:"book_slug" validate:"required"`
	Page      int       `json:"page" validate:"min=1"`
	Text      string    `json:"text" validate:"required"`
	Color     string    `json:"color" validate:"oneof=yellow green blue pink purple"`
	Timestamp time.Time `json:"timestamp"`
}

// VocabularyWord is a word saved for study. Word holds the normalized form.
type VocabularyWord struct {
	ID             string    `json:"id" validate:"required"`
	Word           string    `json:"word" validate:"required"`
	Definition     string    `json:"definition" validate:"required"`
	Context        string    `json:"context,omitempty"`
	BookID         string    `json:"book_id,omitempty"`
	MasteryLevel   int       `json:"mastery_level" validate:"min=0,max=5"`
	ReviewCount    int       `json:"review_count" validate:"min=0"`
	CorrectCount   int       `json:"correct_count" validate:"min=0"`
	IncorrectCount int       `json:"incorrect_count" validate:"min=0"`
	NextReviewAt   time.Time `json:"next_review_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// LikedBook marks a book as liked. Its record id is the book id.
type LikedBook struct {
	BookID    string    `json:"book_id" validate:"required"`
	BookSlug  string    `json:"book_slug" validate:"required"`
	BookTitle string    `json:"book_title"`
	BookCover string    `json:"book_cover,omitempty"`
	LikedAt   time.Time `json:"liked_at"`
}

// ReaderSettings is the display configuration for one book. Its record id is the book slug.
type ReaderSettings struct {
	BookSlug      string  `json:"book_slug" validate:"required"`
	FontSize      int     `json:"font_size" validate:"min=12,max=40"`
	LineHeight    float64 `json:"line_height" validate:"gte=1,lte=3"`
	LetterSpacing float64 `json:"letter_spacing" validate:"gte=0,lte=0.5"`
	Theme         string  `json:"theme" validate:"oneof=light sepia dark"`
}

// ReadingProgress is the last reading position in a book. Its record id is the book slug.
type ReadingProgress struct {
	BookSlug              string    `json:"book_slug" validate:"required"`
	CurrentPage           int       `json:"current_page" validate:"min=1"`
	LastReadAt            time.Time `json:"last_read_at"`
	TotalTimeSpentSeconds int64     `json:"total_time_spent" validate:"min=0"`
}

// DefaultReaderSettings returns the settings used for a book that has none saved
func DefaultReaderSettings(bookSlug string) ReaderSettings {
	return ReaderSettings{
		BookSlug:      bookSlug,
		FontSize:      18,
		LineHeight:    1.6,
		LetterSpacing: 0,
		Theme:         ThemeLight,
	}
}

func (Highlight) EntityType() Type       { return TypeHighlight }
func (VocabularyWord) EntityType() Type  { return TypeVocabularyWord }
func (LikedBook) EntityType() Type       { return TypeLikedBook }
func (ReaderSettings) EntityType() Type  { return TypeReaderSettings }
func (ReadingProgress) EntityType() Type { return TypeReadingProgress }

func (h Highlight) RecordID() string       { return h.ID }
func (w VocabularyWord) RecordID() string  { return w.ID }
func (b LikedBook) RecordID() string       { return b.BookID }
func (s ReaderSettings) RecordID() string  { return s.BookSlug }
func (p ReadingProgress) RecordID() string { return p.BookSlug }

func (Highlight) isPayload()       {}
func (VocabularyWord) isPayload()  {}
func (LikedBook) isPayload()       {}
func (ReaderSettings) isPayload()  {}
func (ReadingProgress) isPayload() {}
