package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Base carries the auto-increment key and timestamps shared by every table
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) GetID() uint { return b.ID }

func (b *Base) SetID(id uint) { b.ID = id }

// StoragePrefix is the public route under which stored files are served
const StoragePrefix = "storage/"

// StoragePath is a path relative to the storage disk root. It is exposed in
// JSON as "storage/<path>" and stored without the prefix.
type StoragePath string

func (p StoragePath) String() string { return string(p) }

func (p StoragePath) IsZero() bool { return p == "" }

// URL returns the public form used in JSON payloads
func (p StoragePath) URL() string {
	if p == "" {
		return ""
	}
	return StoragePrefix + string(p)
}

// Under reports whether the path lives inside folder
func (p StoragePath) Under(folder string) bool {
	folder = strings.TrimSuffix(folder, "/") + "/"
	return strings.HasPrefix(string(p), folder)
}

func (p StoragePath) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("null"), nil
	}
	return json.Marshal(p.URL())
}

func (p *StoragePath) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = ""
		return nil
	}
	*p = StoragePath(strings.TrimPrefix(*raw, StoragePrefix))
	return nil
}
