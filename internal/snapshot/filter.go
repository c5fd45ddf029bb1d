package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	extensionSeparator        = "."
	invalidPatternErrorFormat = "invalid exclusion pattern %q"
)

// ExclusionSet holds lowercase file extensions, each with its leading dot.
type ExclusionSet map[string]struct{}

// NewExclusionSet normalizes extensions into an ExclusionSet. Entries are
// trimmed and lowercased, and a missing leading dot is added.
func NewExclusionSet(extensions ...string) ExclusionSet {
	exclusions := make(ExclusionSet, len(extensions))
	for _, extension := range extensions {
		normalized := strings.ToLower(strings.TrimSpace(extension))
		if normalized == "" || normalized == extensionSeparator {
			continue
		}
		if !strings.HasPrefix(normalized, extensionSeparator) {
			normalized = extensionSeparator + normalized
		}
		exclusions[normalized] = struct{}{}
	}
	return exclusions
}

// Contains reports whether extension is excluded.
func (exclusions ExclusionSet) Contains(extension string) bool {
	_, excluded := exclusions[extension]
	return excluded
}

// ExtensionOf returns the lowercased extension of the final path segment,
// including the dot, or an empty string.
func ExtensionOf(location string) string {
	return strings.ToLower(filepath.Ext(location))
}

// FilterExcluded drops locations whose extension is in exclusions. The input
// slice is not modified.
func FilterExcluded(locations []string, exclusions ExclusionSet) []string {
	filtered := make([]string, 0, len(locations))
	for _, location := range locations {
		if exclusions.Contains(ExtensionOf(location)) {
			continue
		}
		filtered = append(filtered, location)
	}
	return filtered
}

// PatternSet holds validated doublestar patterns matched against
// slash-separated paths relative to the workspace root.
type PatternSet struct {
	patterns []string
}

// NewPatternSet validates patterns. Blank entries are dropped.
func NewPatternSet(patterns ...string) (PatternSet, error) {
	validated := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		normalized := filepath.ToSlash(strings.TrimSpace(pattern))
		if normalized == "" {
			continue
		}
		if !doublestar.ValidatePattern(normalized) {
			return PatternSet{}, fmt.Errorf(invalidPatternErrorFormat, pattern)
		}
		validated = append(validated, normalized)
	}
	return PatternSet{patterns: validated}, nil
}

// Empty reports whether the set holds no patterns.
func (set PatternSet) Empty() bool {
	return len(set.patterns) == 0
}

// Matches reports whether the slash-separated path matches any pattern.
func (set PatternSet) Matches(path string) bool {
	for _, pattern := range set.patterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// FilterPatterns drops locations whose display path matches set.
func FilterPatterns(locations []string, set PatternSet, resolver RootResolver) []string {
	if set.Empty() {
		return locations
	}
	filtered := make([]string, 0, len(locations))
	for _, location := range locations {
		if set.Matches(filepath.ToSlash(displayPathFor(resolver, location))) {
			continue
		}
		filtered = append(filtered, location)
	}
	return filtered
}
