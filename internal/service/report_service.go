package service

import (
	"context"
	"strings"

	"confessional/internal/models"
	"confessional/internal/observability"
	"confessional/internal/repository"
)

// ReportResult carries the target's report count after the new report.
// Escalated is true only for the report that first reached the threshold.
type ReportResult struct {
	Count     int64 `json:"count"`
	Escalated bool  `json:"escalated"`
}

// ReportService records user reports and escalates targets that reach the
// report threshold.
type ReportService struct {
	store     *repository.Store
	limits    Limits
	publisher EventPublisher
	pages     PageInvalidator
}

// NewReportService returns a new ReportService.
func NewReportService(store *repository.Store, limits Limits, publisher EventPublisher, pages PageInvalidator) *ReportService {
	return &ReportService{store: store, limits: limits, publisher: publisher, pages: pages}
}

// Report files userID's report against target. A user may report a target
// once. Escalation happens at most once per target until its reports are
// cleared; the escalation row insert decides which report wins.
func (s *ReportService) Report(
	ctx context.Context,
	userID int64,
	target models.Target,
	reason string,
) (result *ReportResult, err error) {
	span, ctx := startSpan(ctx, "ReportService.Report")
	span.SetTarget(string(target.Type), target.ID)
	defer func() { endSpan(span, "report", err) }()

	if !target.Valid() {
		return nil, models.NewValidationError("invalid report target")
	}
	if userID <= 0 {
		return nil, models.NewValidationError("user is required")
	}
	reason = models.ResolveReportReason(strings.TrimSpace(reason))

	var postID uint
	result = &ReportResult{}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		pid, err := lockContent(ctx, tx, target)
		if err != nil {
			return err
		}
		postID = pid

		already, err := tx.Reports.Exists(ctx, userID, target)
		if err != nil {
			return err
		}
		if already {
			return models.NewDuplicateReportError(target)
		}

		if err := tx.Users.Ensure(ctx, userID); err != nil {
			return err
		}
		if err := tx.Reports.Create(ctx, &models.Report{
			UserID:     userID,
			TargetType: target.Type,
			TargetID:   target.ID,
			Reason:     reason,
		}); err != nil {
			if repository.IsDuplicateKey(err) {
				return models.NewDuplicateReportError(target)
			}
			return err
		}

		count, err := tx.Reports.CountForTarget(ctx, target)
		if err != nil {
			return err
		}
		result.Count = count

		if count < s.limits.ReportThreshold {
			return nil
		}
		escalated, err := tx.Reports.CreateEscalation(ctx, target, count)
		if err != nil {
			return err
		}
		if !escalated {
			return nil
		}
		result.Escalated = true
		return tx.Targets.SetFlagged(ctx, target)
	})
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	observability.ReportsTotal.WithLabelValues(string(target.Type)).Inc()
	if result.Escalated {
		observability.ReportEscalationsTotal.WithLabelValues(string(target.Type)).Inc()
		if s.publisher != nil {
			count := result.Count
			notify(ctx, "report_escalated", func(ctx context.Context) error {
				return s.publisher.PublishEscalation(ctx, target, count)
			})
		}
		if target.Type == models.TargetComment {
			invalidatePages(ctx, s.pages, postID)
		}
	}
	return result, nil
}

// CountReports returns the number of reports on target.
func (s *ReportService) CountReports(ctx context.Context, target models.Target) (int64, error) {
	if !target.Valid() {
		return 0, models.NewValidationError("invalid report target")
	}
	count, err := s.store.Reports.CountForTarget(ctx, target)
	if err != nil {
		return 0, models.AsStoreError(err)
	}
	return count, nil
}

// lockContent locks the target row whatever its post's status and returns
// the post it lives on. Concurrent reports and flags on one target serialize
// behind the lock.
func lockContent(ctx context.Context, tx *repository.Store, target models.Target) (uint, error) {
	switch target.Type {
	case models.TargetPost:
		post, err := tx.Posts.GetForUpdate(ctx, target.ID)
		if err != nil {
			return 0, notFoundOr(err, "post", target.ID)
		}
		return post.ID, nil
	case models.TargetComment:
		comment, err := tx.Comments.GetForUpdate(ctx, target.ID)
		if err != nil {
			return 0, notFoundOr(err, "comment", target.ID)
		}
		return comment.PostID, nil
	}
	return 0, models.NewValidationError("invalid target")
}
