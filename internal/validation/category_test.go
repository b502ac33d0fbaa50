package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"Empty", "", "", false},
		{"Whitespace", "   ", "", false},
		{"Only Commas", " , ,", "", false},
		{"Simple", "food", "food", false},
		{"Trimmed Keeps Case", " Work ", "Work", false},
		{"Two Tags", "Love, Family", "Love, Family", false},
		{"Two Tags No Space", "love,family", "love, family", false},
		{"Inner Space", "Mental Health", "Mental Health", false},
		{"Collapsed Space", "Mental    Health", "Mental Health", false},
		{"Ampersand", "Food & Lifestyle", "Food & Lifestyle", false},
		{"Apostrophe", "Mother's Day", "Mother's Day", false},
		{"Unicode", "Café, Niño", "Café, Niño", false},
		{"Empty Tags Dropped", "love,, ,family,", "love, family", false},
		{"Duplicates Dropped", "Love, love, LOVE, family", "Love, family", false},
		{"Underscore", "hate_mail", "hate_mail", false},
		{"Max Length", strings.Repeat("a", MaxCategoryTagLength), strings.Repeat("a", MaxCategoryTagLength), false},
		{"Max Tags", "a,b,c,d,e", "a, b, c, d, e", false},
		{"Too Long", strings.Repeat("a", MaxCategoryTagLength+1), "", true},
		{"Too Many Tags", "a,b,c,d,e,f", "", true},
		{"Starts Dash", "-food", "", true},
		{"Starts Ampersand", "& drink", "", true},
		{"Illegal Chars", "food; drop table", "", true},
		{"Illegal In Second Tag", "love, <script>", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCategory(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
