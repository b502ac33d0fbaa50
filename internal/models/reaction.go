package models

import (
	"fmt"
	"time"
)

// ReactionKind is either a like or a dislike.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// ParseReactionKind validates a client-supplied reaction kind.
func ParseReactionKind(s string) (ReactionKind, error) {
	switch ReactionKind(s) {
	case ReactionLike, ReactionDislike:
		return ReactionKind(s), nil
	}
	return "", fmt.Errorf("unknown reaction kind %q", s)
}

// Reaction is at most one per (user, target).
type Reaction struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	UserID     int64        `gorm:"not null;uniqueIndex:idx_reactions_user_target,priority:1" json:"user_id"`
	TargetType TargetType   `gorm:"type:varchar(16);not null;uniqueIndex:idx_reactions_user_target,priority:2;index:idx_reactions_target,priority:1" json:"target_type"`
	TargetID   uint         `gorm:"not null;uniqueIndex:idx_reactions_user_target,priority:3;index:idx_reactions_target,priority:2" json:"target_id"`
	Kind       ReactionKind `gorm:"column:reaction_type;type:varchar(10);not null" json:"reaction_type"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Reaction) TableName() string {
	return "reactions"
}
