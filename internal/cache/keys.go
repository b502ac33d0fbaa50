package cache

import (
	"fmt"
	"time"
)

const (
	commentVersionKeyPrefix = "post:%d:comments:version"
	commentPageKeyPrefix    = "post:%d:comments:v%d:p%d:s%d"
)

// DefaultCommentPageTTL bounds how long a rendered page may be served.
const DefaultCommentPageTTL = 5 * time.Minute

// CommentVersionKey holds the per-post version that namespaces cached pages.
func CommentVersionKey(postID uint) string {
	return fmt.Sprintf(commentVersionKeyPrefix, postID)
}

// CommentPageKey names one cached page of a post's comment tree.
func CommentPageKey(postID uint, version int64, page, pageSize int) string {
	return fmt.Sprintf(commentPageKeyPrefix, postID, version, page, pageSize)
}
