// Package service implements the content-integrity operations: content
// creation, reactions, comment tree pages, moderation cascades and report
// escalation. Every mutating operation runs in a single store transaction.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"confessional/internal/config"
	"confessional/internal/middleware"
	"confessional/internal/models"
	"confessional/internal/observability"
	"confessional/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
)

// Limits groups the tunable content limits.
type Limits struct {
	CommentsPerPage      int
	ReplyPreviewLimit    int
	SubReplyPreviewLimit int
	ReportThreshold      int64
	RedactionText        string
	MaxCommentLength     int
	MaxConfessionLength  int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		CommentsPerPage:      5,
		ReplyPreviewLimit:    3,
		SubReplyPreviewLimit: 2,
		ReportThreshold:      5,
		RedactionText:        config.DefaultRedactionText,
		MaxCommentLength:     500,
		MaxConfessionLength:  4000,
	}
}

// LimitsFromConfig reads the limits from cfg.
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		CommentsPerPage:      cfg.CommentsPerPage,
		ReplyPreviewLimit:    cfg.ReplyPreviewLimit,
		SubReplyPreviewLimit: cfg.SubReplyPreviewLimit,
		ReportThreshold:      cfg.ReportThreshold,
		RedactionText:        cfg.RedactionText,
		MaxCommentLength:     cfg.MaxCommentLength,
		MaxConfessionLength:  cfg.MaxConfessionLength,
	}
}

// EventPublisher delivers notifications outside the store.
type EventPublisher interface {
	PublishEscalation(ctx context.Context, target models.Target, count int64) error
	PublishPostDecision(ctx context.Context, post *models.Post) error
}

// PageInvalidator drops cached comment pages of a post.
type PageInvalidator interface {
	Invalidate(ctx context.Context, postID uint) error
}

const notifyTimeout = 5 * time.Second

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (*observability.Span, context.Context) {
	return observability.NewSpan(ctx, name, attrs...)
}

func endSpan(span *observability.Span, op string, err error) {
	if err != nil {
		span.SetError(err)
		if models.IsCode(err, models.CodeStoreError) {
			observability.StoreErrorsTotal.WithLabelValues(op).Inc()
		}
	}
	span.End()
}

// notFoundOr maps gorm's not-found to a NotFound error and wraps anything else.
func notFoundOr(err error, resource string, id interface{}) error {
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return models.AsStoreError(err)
}

func invalidatePages(ctx context.Context, pages PageInvalidator, postID uint) {
	if pages == nil {
		return
	}
	if err := pages.Invalidate(ctx, postID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to invalidate comment pages",
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()),
		)
	}
}

func newAuditEntry(
	adminID int64,
	action models.AuditAction,
	targetType string,
	targetID int64,
	details map[string]interface{},
) (*models.AuditLogEntry, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return &models.AuditLogEntry{
		AdminID:    adminID,
		ActionType: action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    datatypes.JSON(raw),
	}, nil
}

// appendAudit writes the entry through repo and fails the caller on error.
func appendAudit(
	ctx context.Context,
	repo repository.AuditRepository,
	adminID int64,
	action models.AuditAction,
	targetType string,
	targetID int64,
	details map[string]interface{},
) error {
	entry, err := newAuditEntry(adminID, action, targetType, targetID, details)
	if err != nil {
		return err
	}
	return repo.Append(ctx, entry)
}

// recordAuditBestEffort writes the entry after the action committed. A
// failure is logged and does not undo the action.
func recordAuditBestEffort(
	ctx context.Context,
	repo repository.AuditRepository,
	adminID int64,
	action models.AuditAction,
	targetType string,
	targetID int64,
	details map[string]interface{},
) {
	if err := appendAudit(ctx, repo, adminID, action, targetType, targetID, details); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to record audit entry",
			slog.String("action", string(action)),
			slog.Int64("admin_id", adminID),
			slog.Int64("target_id", targetID),
			slog.String("error", err.Error()),
		)
	}
}

// notify runs publish detached from the request's cancellation and logs failures.
func notify(ctx context.Context, kind string, publish func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := publish(ctx); err != nil {
		observability.NotificationFailuresTotal.WithLabelValues(kind).Inc()
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
}
