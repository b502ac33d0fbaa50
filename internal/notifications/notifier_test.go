package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"confessional/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "test payload"))
	assert.NoError(t, n.PublishEscalation(context.Background(), models.PostTarget(1), 5))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.PublishPostDecision(context.Background(), &models.Post{AuthorID: 1}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:1", UserChannel(1))
	assert.Equal(t, "notifications:user:5551234567", UserChannel(5551234567))
}

func subscribe(t *testing.T, rdb *redis.Client, channel string) <-chan *redis.Message {
	t.Helper()
	sub := rdb.Subscribe(context.Background(), channel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	return sub.Channel()
}

func receiveEvent(t *testing.T, ch <-chan *redis.Message) Event {
	t.Helper()
	select {
	case msg := <-ch:
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestNotifier_PublishEscalation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ch := subscribe(t, rdb, EscalationChannel)
	n := NewNotifier(rdb)
	require.NoError(t, n.PublishEscalation(context.Background(), models.CommentTarget(12), 5))

	ev := receiveEvent(t, ch)
	assert.Equal(t, EventReportEscalated, ev.Type)
	require.NotNil(t, ev.Target)
	assert.Equal(t, models.CommentTarget(12), *ev.Target)
	assert.Equal(t, int64(5), ev.Count)
	_, err := uuid.Parse(ev.ID)
	assert.NoError(t, err)
}

func TestNotifier_PublishPostDecision(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ch := subscribe(t, rdb, UserChannel(77))
	n := NewNotifier(rdb)

	number := int64(3)
	post := &models.Post{ID: 9, AuthorID: 77, Status: models.PostStatusApproved, PostNumber: &number}
	require.NoError(t, n.PublishPostDecision(context.Background(), post))

	ev := receiveEvent(t, ch)
	assert.Equal(t, EventPostApproved, ev.Type)
	assert.Equal(t, uint(9), ev.PostID)
	require.NotNil(t, ev.PostNumber)
	assert.Equal(t, int64(3), *ev.PostNumber)

	post.Status = models.PostStatusRejected
	post.PostNumber = nil
	require.NoError(t, n.PublishPostDecision(context.Background(), post))
	assert.Equal(t, EventPostRejected, receiveEvent(t, ch).Type)
}
