// Package linkedin normalizes LinkedIn profile references into the handle used as a cache key.
package linkedin

import (
	"regexp"
	"strings"

	"github.com/kapu/linkedin-profile-edge/internal/util"
)

const handle = `([a-z0-9_-]+)(?:[/?#]|$)`

// Ordered by priority; the first pattern that matches wins.
var usernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?linkedin\.com/in/` + handle),
	regexp.MustCompile(`^https?://(?:www\.)?linkedin\.com/pub/` + handle),
	regexp.MustCompile(`^https?://[a-z]{2,3}\.linkedin\.com/(?:in|pub)/` + handle),
	regexp.MustCompile(`^(?:www\.|[a-z]{2,3}\.)?linkedin\.com/(?:in|pub)/` + handle),
}

var bareUsername = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ExtractUsername maps a profile URL, or an already extracted handle, to its lowercase
// username. The boolean is false when nothing usable was found.
func ExtractUsername(input string) (string, bool) {
	normalized := normalize(input)
	if normalized == "" {
		return "", false
	}

	for _, pattern := range usernamePatterns {
		if match := pattern.FindStringSubmatch(normalized); match != nil {
			return match[1], true
		}
	}

	if bareUsername.MatchString(normalized) {
		return normalized, true
	}
	return "", false
}

func normalize(input string) string {
	return strings.TrimSuffix(util.Normalize(input), "/")
}
