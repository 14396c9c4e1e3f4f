package errors

import (
	"strings"
	"unicode"
)

// ValidateRefString validates a raw entity reference before parsing.
// It rejects input that could never be a catalog reference and would only
// end up in cache keys, file names or URLs.
//
// The validation rules are intentionally conservative:
//   - No empty refs
//   - No control characters or null bytes
//   - No path traversal sequences
//   - Maximum length of 256 characters
func ValidateRefString(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return New(ErrCodeInvalidRef, "entity ref cannot be empty")
	}

	if len(ref) > 256 {
		return New(ErrCodeInvalidRef, "entity ref too long (max 256 characters)")
	}

	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRef, "entity ref contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(ref, pattern) {
			return New(ErrCodeInvalidRef, "entity ref contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateOutputPath validates a file path the CLI writes artifacts to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
