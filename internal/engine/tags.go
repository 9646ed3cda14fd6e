package engine

import (
	"regexp"
	"strings"

	"github.com/penfold-notes/penfold/internal/model"
)

// hashtagRegexp matches free-form hashtags. A trailing delimiter marks a
// type marker rather than a tag, so it is excluded from the token.
var hashtagRegexp = regexp.MustCompile(`#([a-zA-Z][a-zA-Z0-9_-]*)`)

// ExtractHashtags pulls free-form hashtags out of a section's content for
// use as tags. Tokens that resolve to a recognized type alias are
// excluded, and duplicates are dropped case-insensitively, keeping the
// first occurrence's casing.
func ExtractHashtags(content string) []string {
	matches := hashtagRegexp.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := m[1]
		if model.IsTypeAlias(tag) {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return tags
}
