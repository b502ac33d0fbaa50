// Package models contains data structures for the confessional domain.
package models

import "time"

// PostStatus is the moderation state of a submitted post.
type PostStatus string

const (
	PostStatusPending  PostStatus = "pending"
	PostStatusApproved PostStatus = "approved"
	PostStatusRejected PostStatus = "rejected"
)

// Post is an anonymous confession submitted for moderation.
// PostNumber is assigned only when the post is approved and is never reused.
type Post struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Content          *string    `gorm:"type:text" json:"content,omitempty"`
	Category         string     `gorm:"type:varchar(255);not null;default:''" json:"category"`
	AuthorID         int64      `gorm:"not null;index" json:"-"`
	Status           PostStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	PostNumber       *int64     `gorm:"uniqueIndex" json:"post_number,omitempty"`
	ChannelMessageID *int64     `json:"channel_message_id,omitempty"`
	Flagged          bool       `gorm:"not null;default:false" json:"flagged"`
	LikeCount        int        `gorm:"not null;default:0" json:"like_count"`
	DislikeCount     int        `gorm:"not null;default:0" json:"dislike_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

// IsApproved reports whether the post is visible to readers.
func (p *Post) IsApproved() bool {
	return p.Status == PostStatusApproved
}

// ContentPreview returns at most n runes of the post body.
func (p *Post) ContentPreview(n int) string {
	if p.Content == nil {
		return ""
	}
	return truncateRunes(*p.Content, n)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
