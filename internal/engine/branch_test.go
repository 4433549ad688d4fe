package engine

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveBranchName(t *testing.T) {
	cases := []struct {
		id, title, want string
	}{
		{"abcdef12-3456", "Add dark mode toggle", "feature/add-dark-mode-toggle-abcdef12"},
		{"abcdef12-3456", "  --Fix: crash on *empty* input!! ", "feature/fix-crash-on-empty-input-abcdef12"},
		{"0123456789", "Émoji 🚀 support", "feature/moji-support-01234567"},
		{"short", "API", "feature/api-short"},
		{"abcdef12", "!!!", "feature/ticket-abcdef12"},
	}
	for _, tc := range cases {
		got := DeriveBranchName(tc.id, tc.title)
		assert.Equal(t, tc.want, got, tc.title)
		assert.Equal(t, got, DeriveBranchName(tc.id, tc.title))
	}
}

func TestSlugTruncates(t *testing.T) {
	title := strings.Repeat("word ", 30)
	s := Slug(title)
	assert.Len(t, s, 50)
	// Truncation happens after trimming, so a cut at a separator keeps it.
	assert.True(t, strings.HasSuffix(s, "-"))

	pattern := regexp.MustCompile(`^feature/[a-z0-9-]{1,50}-[a-z0-9]{8}$`)
	assert.Regexp(t, pattern, DeriveBranchName("abcdef12-0000", title))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"action":"opened"}`)
	sig := Sign("secret", body)
	assert.True(t, strings.HasPrefix(sig, "sha256="))
	assert.True(t, VerifySignature("secret", body, sig))
	assert.False(t, VerifySignature("secret", []byte(`{"action":"closed"}`), sig))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("secret", body, sig[:len(sig)-2]))
	assert.False(t, VerifySignature("secret", body, ""))
	assert.True(t, VerifySignature("", body, ""))
}
