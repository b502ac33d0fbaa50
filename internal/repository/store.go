// Package repository provides the data access layer for posts, comments,
// reactions, reports, users and the audit log.
package repository

import (
	"context"
	"errors"
	"fmt"

	"confessional/internal/models"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one database handle. A Store
// obtained inside Transaction runs every call on the same transaction.
type Store struct {
	db *gorm.DB

	Users     UserRepository
	Posts     PostRepository
	Comments  CommentRepository
	Targets   TargetRepository
	Reactions ReactionRepository
	Reports   ReportRepository
	Audit     AuditRepository
	Sequences SequenceRepository
}

// NewStore creates a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Users:     NewUserRepository(db),
		Posts:     NewPostRepository(db),
		Comments:  NewCommentRepository(db),
		Targets:   NewTargetRepository(db),
		Reactions: NewReactionRepository(db),
		Reports:   NewReportRepository(db),
		Audit:     NewAuditRepository(db),
		Sequences: NewSequenceRepository(db),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn inside a database transaction. Returning an error from
// fn, or a cancelled ctx, rolls back every write made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// IsNotFound reports whether err is gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey reports whether err is a unique constraint violation.
// It relies on gorm's TranslateError option.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func tableFor(targetType models.TargetType) (string, error) {
	switch targetType {
	case models.TargetPost:
		return models.Post{}.TableName(), nil
	case models.TargetComment:
		return models.Comment{}.TableName(), nil
	}
	return "", fmt.Errorf("unknown target type %q", targetType)
}
