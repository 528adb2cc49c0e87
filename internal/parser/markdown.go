package parser

import (
	"regexp"
	"strings"
)

var h1Regex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// splitFrontmatter separates a leading "---" YAML block from the body.
// ok is false when the document has no frontmatter.
func splitFrontmatter(content string) (frontmatter, body string, ok bool) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return "", content, false
	}
	endIdx := strings.Index(content[4:], "\n---")
	if endIdx < 0 {
		return "", content, false
	}
	frontmatter = content[4 : 4+endIdx]
	body = strings.TrimPrefix(content[4+endIdx+4:], "\n")
	return frontmatter, body, true
}

// firstHeading returns the text of the first h1 in a Markdown body.
func firstHeading(body string) string {
	if match := h1Regex.FindStringSubmatch(body); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}
