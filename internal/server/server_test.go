package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"confessional/internal/config"
	"confessional/internal/models"
	"confessional/internal/service"
	"confessional/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret  = "test-secret-that-is-long-enough-0123456789"
	testAdminID = int64(900)
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:             testSecret,
		Port:                  "0",
		Env:                   "test",
		AdminUserIDs:          strconv.FormatInt(testAdminID, 10),
		CommentsPerPage:       5,
		ReplyPreviewLimit:     3,
		SubReplyPreviewLimit:  2,
		ReportThreshold:       5,
		RedactionText:         config.DefaultRedactionText,
		MaxCommentLength:      500,
		MaxConfessionLength:   4000,
		MaxCommentsPerHour:    20,
		MaxConfessionsPerHour: 5,
	}
}

func setupTestServer(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewTestDB(t)
	s, err := NewServerWithDeps(testConfig(), db, nil)
	require.NoError(t, err)

	app := NewApp()
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app, db
}

func tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path string, userID int64, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func decodeError(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	decode(t, resp, &body)
	return body
}

func TestHealth(t *testing.T) {
	app, _ := setupTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])

	resp = doJSON(t, app, http.MethodGet, "/health/live", 0, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	app, _ := setupTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/posts", 0, CreatePostRequest{Category: "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/admin/posts/1/approve", 42, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPostLifecycle(t *testing.T) {
	app, _ := setupTestServer(t)

	content := "I ate my roommate's leftovers"
	resp := doJSON(t, app, http.MethodPost, "/api/posts", 42, CreatePostRequest{Content: &content, Category: "food"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var post models.Post
	decode(t, resp, &post)
	assert.Equal(t, models.PostStatusPending, post.Status)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), 43, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "pending posts are hidden from other users")

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), 42, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/admin/posts/pending", testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []models.Post
	decode(t, resp, &pending)
	require.Len(t, pending, 1)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/posts/%d/approve", post.ID), testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &post)
	require.NotNil(t, post.PostNumber)
	assert.Equal(t, int64(1), *post.PostNumber)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/posts/%d/reject", post.ID), testAdminID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeAlreadyDecided, decodeError(t, resp).Code)

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/admin/posts/%d/channel-message", post.ID), testAdminID,
		map[string]int64{"message_id": 1234})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), 43, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &post)
	require.NotNil(t, post.ChannelMessageID)
	assert.Equal(t, int64(1234), *post.ChannelMessageID)

	resp = doJSON(t, app, http.MethodPost, "/api/admin/posts/abc/approve", testAdminID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommentsReactionsAndReports(t *testing.T) {
	app, db := setupTestServer(t)
	post := testutil.CreateApprovedPost(t, db, 1)
	base := fmt.Sprintf("/api/posts/%d", post.ID)

	resp := doJSON(t, app, http.MethodPost, base+"/comments", 42, CreateCommentRequest{Content: "same here"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decode(t, resp, &comment)

	resp = doJSON(t, app, http.MethodPost, base+"/comments", 43, CreateCommentRequest{
		Content: "reply", ParentCommentID: &comment.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reply models.Comment
	decode(t, resp, &reply)
	assert.Equal(t, models.DepthReply, reply.Depth)

	resp = doJSON(t, app, http.MethodPost, base+"/comments", 43, CreateCommentRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "content is required", decodeError(t, resp).Error)

	other := testutil.CreateApprovedPost(t, db, 1)
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", other.ID), 43, CreateCommentRequest{
		Content: "wrong thread", ParentCommentID: &comment.ID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeInvalidParent, decodeError(t, resp).Code)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/comments/%d/reactions", comment.ID), 44,
		ReactRequest{Kind: "like"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reaction service.ReactionResult
	decode(t, resp, &reaction)
	assert.Equal(t, service.ReactionAdded, reaction.Action)
	assert.Equal(t, 1, reaction.LikeCount)

	resp = doJSON(t, app, http.MethodPost, base+"/reactions", 44, ReactRequest{Kind: "meh"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, base+"/comments?page=1&page_size=5", 45, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page service.CommentPage
	decode(t, resp, &page)
	assert.Equal(t, int64(1), page.TotalComments)
	require.Len(t, page.Threads, 1)
	assert.Equal(t, 1, page.Threads[0].Comment.LikeCount)
	require.Len(t, page.Threads[0].Replies, 1)
	assert.Equal(t, reply.ID, page.Threads[0].Replies[0].Comment.ID)

	resp = doJSON(t, app, http.MethodGet, base+"/comments?page=0", 45, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/comments/%d/page", reply.ID), 45, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var located map[string]interface{}
	decode(t, resp, &located)
	assert.EqualValues(t, 1, located["page"])

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/comments/%d/reports", reply.ID), 46,
		ReportRequest{Reason: "spam"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var report service.ReportResult
	decode(t, resp, &report)
	assert.Equal(t, int64(1), report.Count)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/comments/%d/reports", reply.ID), 46,
		ReportRequest{Reason: "spam"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeDuplicateReport, decodeError(t, resp).Code)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/admin/reports/comments/%d", reply.ID), testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var counted map[string]interface{}
	decode(t, resp, &counted)
	assert.EqualValues(t, 1, counted["count"])

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/comments/%d/redact", comment.ID), testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var redaction service.RedactionStats
	decode(t, resp, &redaction)
	assert.Equal(t, service.RedactionStats{CommentsRedacted: 2, RepliesRedacted: 1, ReportsCleared: 1}, redaction)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/comments/%d", comment.ID), testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deletion service.CommentDeletionStats
	decode(t, resp, &deletion)
	assert.Equal(t, service.CommentDeletionStats{RepliesDeleted: 1, ReactionsDeleted: 1}, deletion)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/comments/%d", comment.ID), testAdminID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminModeration(t *testing.T) {
	app, db := setupTestServer(t)
	post := testutil.CreateApprovedPost(t, db, 1)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/reports", post.ID), 50, ReportRequest{Reason: "other"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/reports/posts/%d", post.ID), testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cleared map[string]interface{}
	decode(t, resp, &cleared)
	assert.EqualValues(t, 1, cleared["reports_cleared"])

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/reports/users/%d", post.ID), testAdminID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/admin/users/60/block", testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), 60, CreateCommentRequest{Content: "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/admin/users/60/block", testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/block", testAdminID), testAdminID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/posts/%d", post.ID), testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats service.PostDeletionStats
	decode(t, resp, &stats)
	assert.Equal(t, service.PostDeletionStats{}, stats)

	resp = doJSON(t, app, http.MethodGet, "/api/admin/audit?limit=10", testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []models.AuditLogEntry
	decode(t, resp, &entries)
	require.Len(t, entries, 4)
	assert.Equal(t, models.AuditDeletePost, entries[0].ActionType)
}

func TestAdminFlagsAndQueues(t *testing.T) {
	app, db := setupTestServer(t)
	post := testutil.CreateApprovedPost(t, db, 1)
	comment := testutil.CreateComment(t, db, post.ID, nil, 2, "flag me")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/reports", post.ID), 50, ReportRequest{Reason: "spam"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/comments/%d/flag", comment.ID), 42, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/comments/%d/flag", comment.ID), testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var flagged map[string]interface{}
	decode(t, resp, &flagged)
	assert.Equal(t, true, flagged["flagged"])

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/posts/%d/flag", post.ID), testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/admin/posts/4242/flag", testAdminID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/admin/flagged", testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []models.FlaggedItem
	decode(t, resp, &items)
	require.Len(t, items, 2)
	assert.Equal(t, models.CommentTarget(comment.ID), items[0].Target)
	assert.Equal(t, models.PostTarget(post.ID), items[1].Target)

	resp = doJSON(t, app, http.MethodGet, "/api/admin/reports?limit=10", testAdminID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reports []models.Report
	decode(t, resp, &reports)
	require.Len(t, reports, 1)
	assert.Equal(t, post.ID, reports[0].TargetID)
	assert.Equal(t, "Spam or advertising", reports[0].Reason)

	resp = doJSON(t, app, http.MethodGet, "/api/admin/reports", 42, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetReportReasons(t *testing.T) {
	app, _ := setupTestServer(t)
	resp := doJSON(t, app, http.MethodGet, "/api/report-reasons", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reasons []models.ReportReason
	decode(t, resp, &reasons)
	assert.Len(t, reasons, len(models.ReportReasons))
}
