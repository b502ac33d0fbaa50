package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"confessional/internal/cache"
	"confessional/internal/models"
	"confessional/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPage_TwelveCommentsFivePerPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testutil.CreateApprovedPost(t, f.db, 1)

	var created []*models.Comment
	for i := 1; i <= 12; i++ {
		created = append(created, testutil.CreateComment(t, f.db, post.ID, nil, 2, fmt.Sprintf("comment %d", i)))
	}

	page1, err := f.tree.GetPage(ctx, post.ID, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, int64(12), page1.TotalComments)
	require.Len(t, page1.Threads, 5)
	for i, thread := range page1.Threads {
		assert.Equal(t, i+1, thread.Number)
		assert.Equal(t, created[i].ID, thread.Comment.ID)
	}

	page3, err := f.tree.GetPage(ctx, post.ID, 3, 5)
	require.NoError(t, err)
	require.Len(t, page3.Threads, 2)
	assert.Equal(t, 11, page3.Threads[0].Number)
	assert.Equal(t, "comment 11", page3.Threads[0].Comment.Content)
	assert.Equal(t, 12, page3.Threads[1].Number)
	assert.Equal(t, "comment 12", page3.Threads[1].Comment.Content)

	seen := 0
	for p := 1; p <= page1.TotalPages; p++ {
		page, err := f.tree.GetPage(ctx, post.ID, p, 5)
		require.NoError(t, err)
		seen += len(page.Threads)
	}
	assert.Equal(t, 12, seen)

	beyond, err := f.tree.GetPage(ctx, post.ID, 4, 5)
	require.NoError(t, err)
	assert.Empty(t, beyond.Threads)
	assert.Equal(t, 3, beyond.TotalPages)
}

func TestGetPage_BoundedPreviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testutil.CreateApprovedPost(t, f.db, 1)

	top := testutil.CreateComment(t, f.db, post.ID, nil, 2, "top")
	var replies []*models.Comment
	for i := 1; i <= 5; i++ {
		replies = append(replies, testutil.CreateComment(t, f.db, post.ID, top, 3, fmt.Sprintf("reply %d", i)))
	}
	for i := 1; i <= 3; i++ {
		testutil.CreateComment(t, f.db, post.ID, replies[0], 4, fmt.Sprintf("sub %d", i))
	}
	testutil.CreateComment(t, f.db, post.ID, replies[1], 4, "lonely sub")
	quiet := testutil.CreateComment(t, f.db, post.ID, nil, 2, "quiet")

	page, err := f.tree.GetPage(ctx, post.ID, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalComments, "only top-level comments are counted")
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Threads, 2)

	thread := page.Threads[0]
	assert.Equal(t, top.ID, thread.Comment.ID)
	assert.Equal(t, int64(5), thread.TotalReplies)
	assert.Equal(t, int64(2), thread.HiddenReplies)
	require.Len(t, thread.Replies, 3)
	for i, r := range thread.Replies {
		assert.Equal(t, i+1, r.Number)
		assert.Equal(t, replies[i].ID, r.Comment.ID)
	}

	first := thread.Replies[0]
	assert.Equal(t, int64(3), first.TotalSubReplies)
	assert.Equal(t, int64(1), first.HiddenSubReplies)
	require.Len(t, first.SubReplies, 2)
	assert.Equal(t, 1, first.SubReplies[0].Number)
	assert.Equal(t, "sub 1", first.SubReplies[0].Comment.Content)
	assert.Equal(t, 2, first.SubReplies[1].Number)

	second := thread.Replies[1]
	require.Len(t, second.SubReplies, 1)
	assert.Equal(t, 1, second.SubReplies[0].Number, "sub-reply numbering restarts per reply")

	assert.Empty(t, thread.Replies[2].SubReplies)

	assert.Equal(t, quiet.ID, page.Threads[1].Comment.ID)
	assert.Empty(t, page.Threads[1].Replies)
	assert.Zero(t, page.Threads[1].TotalReplies)
}

func TestGetPage_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testutil.CreateApprovedPost(t, f.db, 1)

	_, err := f.tree.GetPage(ctx, post.ID, 0, 5)
	assertCode(t, err, models.CodeValidation)

	_, err = f.tree.GetPage(ctx, 999, 1, 5)
	assertCode(t, err, models.CodeNotFound)

	pending := testutil.CreatePost(t, f.db, 1, models.PostStatusPending)
	_, err = f.tree.GetPage(ctx, pending.ID, 1, 5)
	assertCode(t, err, models.CodeNotFound)

	empty, err := f.tree.GetPage(ctx, post.ID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, f.limits.CommentsPerPage, empty.PageSize)
	assert.Zero(t, empty.TotalPages)
	assert.Empty(t, empty.Threads)
}

func TestGetPage_NumbersShiftAfterDeletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testutil.CreateApprovedPost(t, f.db, 1)
	first := testutil.CreateComment(t, f.db, post.ID, nil, 2, "one")
	testutil.CreateComment(t, f.db, post.ID, nil, 2, "two")

	_, err := f.moderation.DeleteComment(ctx, first.ID, 900)
	require.NoError(t, err)

	page, err := f.tree.GetPage(ctx, post.ID, 1, 5)
	require.NoError(t, err)
	require.Len(t, page.Threads, 1)
	assert.Equal(t, 1, page.Threads[0].Number)
	assert.Equal(t, "two", page.Threads[0].Comment.Content)
}

func TestFindCommentPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testutil.CreateApprovedPost(t, f.db, 1)

	var top []*models.Comment
	for i := 0; i < 7; i++ {
		top = append(top, testutil.CreateComment(t, f.db, post.ID, nil, 2, fmt.Sprintf("c%d", i)))
	}
	reply := testutil.CreateComment(t, f.db, post.ID, top[6], 3, "reply")
	sub := testutil.CreateComment(t, f.db, post.ID, reply, 4, "sub")

	page, err := f.tree.FindCommentPage(ctx, top[0].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, page)

	page, err = f.tree.FindCommentPage(ctx, top[5].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, page)

	page, err = f.tree.FindCommentPage(ctx, sub.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, page)

	_, err = f.tree.FindCommentPage(ctx, 9999, 5)
	assertCode(t, err, models.CodeNotFound)
}

func TestGetPage_CacheInvalidatedOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t)
	pages := cache.NewCommentPageCache(rdb, time.Minute)
	tree := NewCommentTreeService(f.store, f.limits, pages)
	content := NewContentService(f.store, f.limits, nil, pages)
	reactions := NewReactionService(f.store, pages)
	ctx := context.Background()

	post := testutil.CreateApprovedPost(t, f.db, 1)
	c1, err := content.CreateComment(ctx, CreateCommentInput{PostID: post.ID, AuthorID: 2, Content: "first"})
	require.NoError(t, err)

	page, err := tree.GetPage(ctx, post.ID, 1, 5)
	require.NoError(t, err)
	require.Len(t, page.Threads, 1)

	version, err := pages.Version(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.CommentPageKey(post.ID, version, 1, 5)))

	// A row written behind the cache's back stays invisible until a write
	// through the services bumps the version.
	testutil.CreateComment(t, f.db, post.ID, nil, 3, "sneaky")
	cached, err := tree.GetPage(ctx, post.ID, 1, 5)
	require.NoError(t, err)
	assert.Len(t, cached.Threads, 1)

	_, err = reactions.React(ctx, 5, models.CommentTarget(c1.ID), models.ReactionLike)
	require.NoError(t, err)

	fresh, err := tree.GetPage(ctx, post.ID, 1, 5)
	require.NoError(t, err)
	require.Len(t, fresh.Threads, 2)
	for _, thread := range fresh.Threads {
		if thread.Comment.ID == c1.ID {
			assert.Equal(t, 1, thread.Comment.LikeCount)
		}
	}
}

func TestGetPage_CacheUnavailableFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t)
	tree := NewCommentTreeService(f.store, f.limits, cache.NewCommentPageCache(rdb, time.Minute))
	post := testutil.CreateApprovedPost(t, f.db, 1)
	testutil.CreateComment(t, f.db, post.ID, nil, 2, "still served")

	mr.Close()

	page, err := tree.GetPage(context.Background(), post.ID, 1, 5)
	require.NoError(t, err)
	require.Len(t, page.Threads, 1)
}
