package bootstrap

import (
	"context"
	"testing"

	"confessional/internal/models"
	"confessional/internal/seed"
	"confessional/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIfEmpty(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	opts := seed.Options{Users: 3, Posts: 4, CommentsPerPost: 2, ApproveRatio: 1, AdminID: 1, RandSeed: 3}

	require.NoError(t, seedIfEmpty(ctx, db, opts))
	var n int64
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.Equal(t, int64(4), n)

	require.NoError(t, seedIfEmpty(ctx, db, opts))
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.Equal(t, int64(4), n, "a populated database is left alone")
}
