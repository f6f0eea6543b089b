package utils

import (
	"regexp"
	"strings"
)

var groupNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// NormalizeGroupName lowercases a group name and strips surrounding
// whitespace. Group names never contain spaces.
func NormalizeGroupName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidGroupName reports whether a normalized name is acceptable:
// lowercase alphanumerics, hyphens and underscores, no whitespace.
func ValidGroupName(s string) bool {
	return groupNameRe.MatchString(s)
}

func Slugify(s string) string {
	s = strings.ToLower(s)
	reg := regexp.MustCompile("[^a-z0-9]+")
	s = reg.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
