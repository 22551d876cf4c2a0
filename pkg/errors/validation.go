package errors

import (
	"slices"
	"strings"
	"unicode"
)

// maxProjectNameLength bounds project identifiers accepted from users.
const maxProjectNameLength = 512

// ValidateProjectName validates a project name or identifier supplied by a user
// (CLI argument, HTTP query parameter).
//
// Project identifiers are frequently paths or module paths, so slashes and
// dots are allowed. The rules only reject input that can never name a project:
//   - No empty names
//   - No control characters or null bytes
//   - Maximum length of 512 characters
func ValidateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidProject, "project name cannot be empty")
	}

	if len(name) > maxProjectNameLength {
		return New(ErrCodeInvalidProject, "project name too long (max %d characters)", maxProjectNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidProject, "project name contains invalid control characters")
		}
	}

	return nil
}

// ValidateFormats checks every format against the allowed set.
// An empty list is valid; callers apply their own default.
func ValidateFormats(formats []string, allowed []string) error {
	for _, f := range formats {
		if !slices.Contains(allowed, f) {
			return New(ErrCodeInvalidFormat, "invalid format %q (valid: %s)", f, strings.Join(allowed, ", "))
		}
	}
	return nil
}

// ValidateMode checks a connection or engine mode against the allowed set.
func ValidateMode(mode string, allowed []string) error {
	if !slices.Contains(allowed, mode) {
		return New(ErrCodeInvalidMode, "invalid mode %q (valid: %s)", mode, strings.Join(allowed, ", "))
	}
	return nil
}

// ValidateOutputPath validates a user-supplied output base path.
// It rejects paths with control characters and bare directory references.
func ValidateOutputPath(path string) error {
	if path == "" {
		return nil
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	if path == "." || path == ".." || strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidPath, "output path %q names a directory", path)
	}
	return nil
}
