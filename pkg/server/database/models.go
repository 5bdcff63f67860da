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

package database

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// User is a model for a user. Its UUID is the owner id of the rows it owns.
type User struct {
	Model
	UUID        string     `json:"uuid" gorm:"type:text;uniqueIndex"`
	Email       string     `gorm:"type:text;uniqueIndex"`
	Password    string     `json:"-"`
	LastLoginAt *time.Time `json:"-"`
}

// Session represents a user session
type Session struct {
	Model
	UserID     int    `gorm:"index"`
	Key        string `gorm:"type:text;uniqueIndex"`
	LastUsedAt time.Time
	ExpiresAt  time.Time
}

// Row is a synced record of one entity type. Each entity type has its own
// table with this shape, keyed by (id, owner_id).
type Row struct {
	ID      string `gorm:"primaryKey;type:text"`
	OwnerID string `gorm:"primaryKey;type:text"`
	Payload string `gorm:"type:text;not null"`
	// UpdatedAt is the client-assigned modification time in unix nanoseconds
	UpdatedAt int64 `gorm:"autoUpdateTime:false;not null"`
}
