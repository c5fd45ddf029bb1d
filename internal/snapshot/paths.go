package snapshot

import (
	"path/filepath"
	"sort"
	"strings"
)

// ResolveDisplayPath returns location relative to root, or location unchanged
// when root is empty or the relative path cannot be computed.
func ResolveDisplayPath(location string, root string) string {
	if root == "" {
		return location
	}
	relativePath, relativeError := filepath.Rel(root, location)
	if relativeError != nil {
		return location
	}
	return relativePath
}

// RootResolver maps a file location to the workspace root that contains it.
type RootResolver interface {
	RootFor(location string) (string, bool)
}

// WorkspaceRoots resolves locations against a fixed set of absolute roots.
// The longest containing root wins.
type WorkspaceRoots struct {
	roots []string
}

// NewWorkspaceRoots cleans the provided roots and orders them longest first.
// Empty entries are dropped.
func NewWorkspaceRoots(roots ...string) WorkspaceRoots {
	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		trimmed := strings.TrimSpace(root)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, filepath.Clean(trimmed))
	}
	sort.SliceStable(cleaned, func(left, right int) bool {
		return len(cleaned[left]) > len(cleaned[right])
	})
	return WorkspaceRoots{roots: cleaned}
}

// RootFor reports the root containing location.
func (workspace WorkspaceRoots) RootFor(location string) (string, bool) {
	cleanLocation := filepath.Clean(location)
	for _, root := range workspace.roots {
		if containsPath(root, cleanLocation) {
			return root, true
		}
	}
	return "", false
}

func containsPath(root string, location string) bool {
	if root == location {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(location, prefix)
}

// displayPathFor resolves the display path of location using resolver, which may be nil.
func displayPathFor(resolver RootResolver, location string) string {
	if resolver == nil {
		return location
	}
	root, found := resolver.RootFor(location)
	if !found {
		return location
	}
	return ResolveDisplayPath(location, root)
}
