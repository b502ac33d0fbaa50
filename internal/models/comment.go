package models

import "time"

const (
	// DepthComment is a top-level comment on a post.
	DepthComment = 0
	// DepthReply answers a top-level comment.
	DepthReply = 1
	// DepthSubReply answers a reply. Nothing may be attached below it.
	DepthSubReply = 2
)

// Comment belongs to exactly one post. ParentCommentID is nil for top-level
// comments; otherwise it names a comment on the same post one level up.
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PostID          uint      `gorm:"not null;index:idx_comments_post_parent,priority:1" json:"post_id"`
	ParentCommentID *uint     `gorm:"index:idx_comments_post_parent,priority:2" json:"parent_comment_id,omitempty"`
	AuthorID        int64     `gorm:"not null;index" json:"-"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	Depth           int       `gorm:"not null;default:0" json:"depth"`
	LikeCount       int       `gorm:"not null;default:0" json:"like_count"`
	DislikeCount    int       `gorm:"not null;default:0" json:"dislike_count"`
	Flagged         bool      `gorm:"not null;default:false" json:"flagged"`
	Redacted        bool      `gorm:"not null;default:false" json:"redacted"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Comment) TableName() string {
	return "comments"
}

// AcceptsChildren reports whether a reply may be attached to this comment.
func (c *Comment) AcceptsChildren() bool {
	return c.Depth < DepthSubReply
}

// ContentPreview returns at most n runes of the comment body.
func (c *Comment) ContentPreview(n int) string {
	return truncateRunes(c.Content, n)
}
