package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		DBPassword:          "secure-password",
		DBSSLMode:           "require",
		Port:                "8080",
		CommentsPerPage:     5,
		ReplyPreviewLimit:   3,
		ReportThreshold:     5,
		MaxCommentLength:    500,
		MaxConfessionLength: 4000,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateLimits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero page size", func(c *Config) { c.CommentsPerPage = 0 }},
		{"negative reply preview", func(c *Config) { c.ReplyPreviewLimit = -1 }},
		{"zero report threshold", func(c *Config) { c.ReportThreshold = 0 }},
		{"zero comment length", func(c *Config) { c.MaxCommentLength = 0 }},
		{"bad admin ids", func(c *Config) { c.AdminUserIDs = "12,abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_AdminIDs(t *testing.T) {
	c := validConfig()
	c.AdminUserIDs = " 100, 200 ,,300"

	ids, err := c.ParseAdminIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200, 300}, ids)

	assert.True(t, c.IsAdmin(200))
	assert.False(t, c.IsAdmin(201))
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("REPORT_THRESHOLD", "7")
	defer viper.Reset()

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 5, c.CommentsPerPage)
	assert.Equal(t, 3, c.ReplyPreviewLimit)
	assert.Equal(t, 2, c.SubReplyPreviewLimit)
	assert.Equal(t, int64(7), c.ReportThreshold)
	assert.Equal(t, DefaultRedactionText, c.RedactionText)
	assert.Equal(t, 500, c.MaxCommentLength)
	assert.Equal(t, 4000, c.MaxConfessionLength)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("COMMENTS_PER_PAGE=9\nREPORT_THRESHOLD=11\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("APP_ENV", "development")
	// Variables already set win over .env.
	t.Setenv("REPORT_THRESHOLD", "3")
	t.Cleanup(func() { _ = os.Unsetenv("COMMENTS_PER_PAGE") })
	defer viper.Reset()

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9, c.CommentsPerPage)
	assert.Equal(t, int64(3), c.ReportThreshold)
}
