package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// quoteDecoder reverses the escaping bluemonday applies to quotes and
// ampersands. Angle brackets stay encoded.
var quoteDecoder = strings.NewReplacer("&#39;", "'", "&#34;", `"`, "&amp;", "&")

// sanitizeText strips markup from free text typed by staff.
// Quotes are decoded again so names like O'Brien survive.
func sanitizeText(s string) string {
	return strings.TrimSpace(quoteDecoder.Replace(strictPolicy.Sanitize(s)))
}

// sanitizePtr sanitizes an optional text. Blank input becomes nil.
func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
