package handler

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// plainText strips every tag from user-written text before it is stored or
// mailed to someone else.
var plainText = bluemonday.StrictPolicy()

func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitize(*s)
	return &clean
}
