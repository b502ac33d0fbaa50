package models

import "time"

// User is a chat-platform user. The id comes from the platform, so it is not
// auto-incremented. Rows are created lazily on first activity.
type User struct {
	ID             int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	PostsSubmitted int       `gorm:"not null;default:0" json:"posts_submitted"`
	CommentsPosted int       `gorm:"not null;default:0" json:"comments_posted"`
	Blocked        bool      `gorm:"not null;default:false" json:"blocked"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}
