// Package seed fills a database with demo confessions for development. All
// writes go through the services, so seeded data obeys the same rules as
// live traffic.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"confessional/internal/middleware"
	"confessional/internal/models"
	"confessional/internal/repository"
	"confessional/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Users            int
	Posts            int
	CommentsPerPost  int
	ReactionsPerPost int
	ReportsPerPost   int
	// ApproveRatio is the share of posts approved, the rest split between
	// pending and rejected.
	ApproveRatio float64
	AdminID      int64
	RandSeed     int64
}

// DefaultOptions returns a modest data set.
func DefaultOptions() Options {
	return Options{
		Users:            30,
		Posts:            40,
		CommentsPerPost:  12,
		ReactionsPerPost: 15,
		ReportsPerPost:   1,
		ApproveRatio:     0.8,
		AdminID:          1,
	}
}

// Summary counts what a run created.
type Summary struct {
	Posts     int
	Approved  int
	Rejected  int
	Comments  int
	Reactions int
	Reports   int
}

var categories = []string{
	"Work", "School", "Love, Family", "Relationships", "Friends",
	"Money", "Food & Lifestyle", "Mental Health", "Secrets, Regrets", "Random",
}

// Seeder writes demo data through the content, reaction and report services.
type Seeder struct {
	db        *gorm.DB
	opts      Options
	faker     *gofakeit.Faker
	content   *service.ContentService
	reactions *service.ReactionService
	reports   *service.ReportService
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	store := repository.NewStore(db)
	limits := service.DefaultLimits()
	return &Seeder{
		db:        db,
		opts:      opts,
		faker:     gofakeit.New(opts.RandSeed),
		content:   service.NewContentService(store, limits, nil, nil),
		reactions: service.NewReactionService(store, nil),
		reports:   service.NewReportService(store, limits, nil, nil),
	}
}

// ClearAll deletes every seeded row and rewinds the post number counter.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []interface{}{
		&models.ReportEscalation{},
		&models.Report{},
		&models.Reaction{},
		&models.Comment{},
		&models.Post{},
		&models.AuditLogEntry{},
		&models.User{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return fmt.Errorf("clear %T: %w", table, err)
			}
		}
		return tx.Model(&models.Sequence{}).
			Where("name = ?", models.SequencePostNumber).
			Update("value", 0).Error
	})
}

// Run creates posts, decides them, then adds comments, reactions and reports
// to the approved ones.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.Users < 1 {
		return nil, errors.New("seed: at least one user is required")
	}

	summary := &Summary{}
	for i := 0; i < s.opts.Posts; i++ {
		post, err := s.createPost(ctx)
		if err != nil {
			return summary, err
		}
		summary.Posts++

		switch roll := s.faker.Float64Range(0, 1); {
		case roll < s.opts.ApproveRatio:
			if _, err = s.content.ApprovePost(ctx, post.ID, s.opts.AdminID); err != nil {
				return summary, fmt.Errorf("approve post %d: %w", post.ID, err)
			}
			summary.Approved++
		case roll < s.opts.ApproveRatio+(1-s.opts.ApproveRatio)/2:
			if _, err = s.content.RejectPost(ctx, post.ID, s.opts.AdminID); err != nil {
				return summary, fmt.Errorf("reject post %d: %w", post.ID, err)
			}
			summary.Rejected++
			continue
		default:
			continue
		}

		comments, err := s.createComments(ctx, post.ID)
		summary.Comments += len(comments)
		if err != nil {
			return summary, err
		}

		reactions, err := s.react(ctx, post.ID, comments)
		summary.Reactions += reactions
		if err != nil {
			return summary, err
		}

		reports, err := s.report(ctx, post.ID, comments)
		summary.Reports += reports
		if err != nil {
			return summary, err
		}
	}

	middleware.Logger.InfoContext(ctx, "Seeding complete",
		slog.Int("posts", summary.Posts),
		slog.Int("approved", summary.Approved),
		slog.Int("comments", summary.Comments),
		slog.Int("reactions", summary.Reactions),
		slog.Int("reports", summary.Reports),
	)
	return summary, nil
}

func (s *Seeder) randomUser() int64 {
	return int64(s.faker.IntRange(1, s.opts.Users)) + 1000
}

func (s *Seeder) createPost(ctx context.Context) (*models.Post, error) {
	content := s.faker.Paragraph(1, s.faker.IntRange(1, 4), s.faker.IntRange(6, 14), " ")
	post, err := s.content.CreatePost(ctx, service.CreatePostInput{
		AuthorID: s.randomUser(),
		Content:  &content,
		Category: s.faker.RandomString(categories),
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// createComments builds a random tree. Parents are drawn from comments that
// still accept children.
func (s *Seeder) createComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	n := s.faker.IntRange(0, s.opts.CommentsPerPost)
	comments := make([]*models.Comment, 0, n)
	for i := 0; i < n; i++ {
		in := service.CreateCommentInput{
			PostID:   postID,
			AuthorID: s.randomUser(),
			Content:  s.faker.Sentence(s.faker.IntRange(3, 18)),
		}
		if len(comments) > 0 && s.faker.Bool() {
			parent := comments[s.faker.IntRange(0, len(comments)-1)]
			if parent.AcceptsChildren() {
				in.ParentCommentID = &parent.ID
			}
		}
		comment, err := s.content.CreateComment(ctx, in)
		if err != nil {
			return comments, fmt.Errorf("create comment on post %d: %w", postID, err)
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

func (s *Seeder) pickTarget(postID uint, comments []*models.Comment) models.Target {
	if len(comments) == 0 || s.faker.Bool() {
		return models.PostTarget(postID)
	}
	return models.CommentTarget(comments[s.faker.IntRange(0, len(comments)-1)].ID)
}

func (s *Seeder) react(ctx context.Context, postID uint, comments []*models.Comment) (int, error) {
	n := s.faker.IntRange(0, s.opts.ReactionsPerPost)
	for i := 0; i < n; i++ {
		kind := models.ReactionLike
		if s.faker.IntRange(0, 3) == 0 {
			kind = models.ReactionDislike
		}
		if _, err := s.reactions.React(ctx, s.randomUser(), s.pickTarget(postID, comments), kind); err != nil {
			return i, fmt.Errorf("react on post %d: %w", postID, err)
		}
	}
	return n, nil
}

// report files reports from random users. Repeat reporters are skipped.
func (s *Seeder) report(ctx context.Context, postID uint, comments []*models.Comment) (int, error) {
	filed := 0
	n := s.faker.IntRange(0, s.opts.ReportsPerPost)
	for i := 0; i < n; i++ {
		reason := models.ReportReasons[s.faker.IntRange(0, len(models.ReportReasons)-1)].ID
		_, err := s.reports.Report(ctx, s.randomUser(), s.pickTarget(postID, comments), reason)
		switch {
		case models.IsCode(err, models.CodeDuplicateReport):
			continue
		case err != nil:
			return filed, fmt.Errorf("report on post %d: %w", postID, err)
		}
		filed++
	}
	return filed, nil
}
