package engine

import (
	"regexp"
	"strings"
)

const (
	maxSlugLen   = 50
	branchIDLen  = 8
	branchPrefix = "feature/"
	// fallbackSlug is used for titles without a single ASCII letter or digit.
	fallbackSlug = "ticket"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases title, collapses every run of characters outside [a-z0-9]
// into one hyphen, strips a leading and trailing hyphen, then truncates to
// 50 characters. Truncation can leave a trailing hyphen.
func Slug(title string) string {
	s := nonSlugRun.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimSuffix(s, "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}

// DeriveBranchName returns feature/<slug(title)>-<first 8 chars of ticketID>.
// It depends on nothing but its arguments, so the webhook path can find a
// ticket by branch alone.
func DeriveBranchName(ticketID, title string) string {
	slug := Slug(title)
	if slug == "" {
		slug = fallbackSlug
	}
	suffix := ticketID
	if len(suffix) > branchIDLen {
		suffix = suffix[:branchIDLen]
	}
	return branchPrefix + slug + "-" + suffix
}
