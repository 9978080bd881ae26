package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// Attachment describes one uploaded file referenced by a message.
// Kind is "image" or "file".
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Kind     string `json:"kind"`
}

// AttachmentList is stored as a JSON text column.
type AttachmentList []Attachment

func (a AttachmentList) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *AttachmentList) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported attachment column type %T", src)
	}
}

// Message is append-only. Timestamp is float seconds since epoch, supplied by
// the caller at send time; EditedAt and IsPinned are the only fields mutated
// after insert.
type Message struct {
	gorm.Model
	ConversationID uint           `gorm:"index;not null"`
	AuthorID       uint           `gorm:"index;not null"`
	Content        string         `gorm:"type:text"`
	Timestamp      float64        `gorm:"not null;index"`
	ReplyToID      *uint          `gorm:"index"`
	Attachments    AttachmentList `gorm:"type:text"`
	IsPinned       bool           `gorm:"not null;default:false"`
	EditedAt       *float64
}
