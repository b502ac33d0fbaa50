package models

import (
	"fmt"
	"strconv"
	"time"
)

// TargetType discriminates the two kinds of content that can be reacted to
// or reported.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// Target identifies a post or a comment.
type Target struct {
	Type TargetType `json:"type"`
	ID   uint       `json:"id"`
}

// PostTarget returns a Target naming the given post.
func PostTarget(id uint) Target {
	return Target{Type: TargetPost, ID: id}
}

// CommentTarget returns a Target naming the given comment.
func CommentTarget(id uint) Target {
	return Target{Type: TargetComment, ID: id}
}

// Valid reports whether the target has a known type and a non-zero id.
func (t Target) Valid() bool {
	return (t.Type == TargetPost || t.Type == TargetComment) && t.ID > 0
}

func (t Target) String() string {
	return string(t.Type) + ":" + strconv.FormatUint(uint64(t.ID), 10)
}

// ParseTargetType accepts "post"/"posts" and "comment"/"comments".
func ParseTargetType(s string) (TargetType, error) {
	switch s {
	case "post", "posts":
		return TargetPost, nil
	case "comment", "comments":
		return TargetComment, nil
	}
	return "", fmt.Errorf("unknown target type %q", s)
}

// FlaggedItem is one entry of the moderation queue of flagged content.
// Category is set for posts only.
type FlaggedItem struct {
	Target    Target    `json:"target"`
	PostID    uint      `json:"post_id"`
	Content   *string   `json:"content,omitempty"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
