package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// recipeNameRegex matches package names accepted by the recipe resolver:
// lowercase, starting with a letter, digit or underscore.
var recipeNameRegex = regexp.MustCompile(`^[a-z0-9_][a-z0-9_+.-]*$`)

// ValidateRecipeName validates a package or recipe name as used in a
// name/version reference.
func ValidateRecipeName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if len(name) > 101 {
		return New(ErrCodeInvalidPackage, "recipe name too long (max 101 characters): %q", name)
	}
	if !recipeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid recipe name: %q", name)
	}
	return nil
}

// exactVersionRegex matches a pinned version. Range syntax ([>=1.0 <2]),
// wildcards and whitespace are rejected.
var exactVersionRegex = regexp.MustCompile(`^[0-9A-Za-z_][0-9A-Za-z_.+-]*$`)

// ValidateExactVersion validates that version pins exactly one release.
func ValidateExactVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidPackage, "version cannot be empty")
	}
	if strings.ContainsAny(version, "[]<>=*~^|, ") {
		return New(ErrCodeInvalidPackage, "version must be an exact pin, got range %q", version)
	}
	if !exactVersionRegex.MatchString(version) {
		return New(ErrCodeInvalidPackage, "invalid version: %q", version)
	}
	return nil
}

// ValidateDescriptorFilename validates a descriptor filename for safety.
// It ensures the filename is a simple basename without path components.
// Leading dots are allowed because formatter configs are usually hidden files.
func ValidateDescriptorFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "descriptor filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "descriptor filename cannot contain path separators")
	}

	if filename == "." || filename == ".." {
		return New(ErrCodeInvalidPath, "descriptor filename cannot be %q", filename)
	}

	if filepath.Ext(filename) == "" {
		return New(ErrCodeInvalidPath, "descriptor filename needs an extension: %q", filename)
	}

	return nil
}
