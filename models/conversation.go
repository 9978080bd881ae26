package models

import "gorm.io/gorm"

// Conversation is the single row for an unordered pair of users. The pair is
// stored canonically (lower id first) so {A,B} and {B,A} resolve to the same
// row; the composite unique index is what keeps concurrent first-contact
// creation down to one row.
type Conversation struct {
	gorm.Model
	ParticipantLow  uint    `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:1"`
	ParticipantHigh uint    `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:2"`
	LastActivityAt  float64 `gorm:"not null;index"`
}
