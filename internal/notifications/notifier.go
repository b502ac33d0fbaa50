// Package notifications publishes moderation events into Redis channels.
// Delivery is fire-and-forget: callers log failures and never roll back.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"confessional/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EscalationChannel carries report threshold crossings for moderators.
const EscalationChannel = "moderation:escalations"

// Event types published by the notifier.
const (
	EventReportEscalated = "report_escalated"
	EventPostApproved    = "post_approved"
	EventPostRejected    = "post_rejected"
)

// Event is the JSON envelope published on every channel.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Target     *models.Target `json:"target,omitempty"`
	PostID     uint           `json:"post_id,omitempty"`
	PostNumber *int64         `json:"post_number,omitempty"`
	Count      int64          `json:"count,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel is the per-user notification channel.
func UserChannel(userID int64) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID int64, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishEscalation announces that target crossed the report threshold with count reports.
func (n *Notifier) PublishEscalation(ctx context.Context, target models.Target, count int64) error {
	return n.publishEvent(ctx, EscalationChannel, Event{
		Type:   EventReportEscalated,
		Target: &target,
		Count:  count,
	})
}

// PublishPostDecision tells the author their post was approved or rejected.
func (n *Notifier) PublishPostDecision(ctx context.Context, post *models.Post) error {
	eventType := EventPostRejected
	if post.Status == models.PostStatusApproved {
		eventType = EventPostApproved
	}
	return n.publishEvent(ctx, UserChannel(post.AuthorID), Event{
		Type:       eventType,
		PostID:     post.ID,
		PostNumber: post.PostNumber,
	})
}

func (n *Notifier) publishEvent(ctx context.Context, channel string, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = time.Now().UTC()
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, channel, string(payload)).Err()
}
