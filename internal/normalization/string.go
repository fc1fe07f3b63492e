package normalization

import (
	"regexp"
	"strings"
)

func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

var (
	slugStripRe    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRe    = regexp.MustCompile(`\s+`)
	slugCollapseRe = regexp.MustCompile(`-+`)

	emailRe = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	slugRe  = regexp.MustCompile(`^[a-z0-9-]+$`)
	hexRe   = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Slugify derives a URL-safe slug from a title: lowercase, strip anything
// outside [a-z0-9 -], whitespace runs become single hyphens, hyphen runs
// collapse, leading/trailing hyphens trimmed.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStripRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSpaceRe.ReplaceAllString(s, "-")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func IsValidSlug(slug string) bool {
	return slugRe.MatchString(slug)
}

func IsValidHexColor(color string) bool {
	return hexRe.MatchString(color)
}
