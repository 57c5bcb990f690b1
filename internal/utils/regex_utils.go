package utils

import "regexp"

var (
	usernamePattern = regexp.MustCompile(USERNAME_REGEX)
	slugPattern     = regexp.MustCompile(SLUG_REGEX)
)

// IsUsernameInvalid reports whether name is empty, too long or contains
// characters other than letters, digits and @.+-_
func IsUsernameInvalid(name string) bool {
	return name == "" || len(name) > USERNAME_MAX_LEN || !usernamePattern.MatchString(name)
}

// IsSlugInvalid reports whether slug is not a URL-safe identifier.
func IsSlugInvalid(slug string) bool {
	return slug == "" || !slugPattern.MatchString(slug)
}
