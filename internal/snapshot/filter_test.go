package snapshot_test

import (
	"reflect"
	"testing"

	"github.com/temirov/snapshot/internal/snapshot"
)

func TestExtensionOf(t *testing.T) {
	testCases := []struct {
		location string
		expected string
	}{
		{location: "/project/image.PNG", expected: ".png"},
		{location: "/project/archive.tar.gz", expected: ".gz"},
		{location: "/project/Makefile", expected: ""},
		{location: "/project/.gitignore", expected: ".gitignore"},
		{location: "/project/v1.2/README", expected: ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.location, func(t *testing.T) {
			if actual := snapshot.ExtensionOf(testCase.location); actual != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, actual)
			}
		})
	}
}

func TestNewExclusionSetNormalizes(t *testing.T) {
	exclusions := snapshot.NewExclusionSet(".PNG", " jpg ", "", ".", ".lock")
	for _, extension := range []string{".png", ".jpg", ".lock"} {
		if !exclusions.Contains(extension) {
			t.Fatalf("expected %s to be excluded", extension)
		}
	}
	if len(exclusions) != 3 {
		t.Fatalf("expected 3 exclusions, got %v", exclusions)
	}
}

func TestFilterExcluded(t *testing.T) {
	locations := []string{"/p/a.txt", "/p/b.PNG", "/p/c.go", "/p/d.png", "/p/Makefile"}
	original := append([]string(nil), locations...)
	exclusions := snapshot.NewExclusionSet(".png")

	filtered := snapshot.FilterExcluded(locations, exclusions)
	expected := []string{"/p/a.txt", "/p/c.go", "/p/Makefile"}
	if !reflect.DeepEqual(filtered, expected) {
		t.Fatalf("expected %v, got %v", expected, filtered)
	}
	if !reflect.DeepEqual(locations, original) {
		t.Fatalf("input was modified: %v", locations)
	}
	if again := snapshot.FilterExcluded(filtered, exclusions); !reflect.DeepEqual(again, filtered) {
		t.Fatalf("filter is not idempotent: %v", again)
	}
	if unfiltered := snapshot.FilterExcluded(locations, snapshot.NewExclusionSet()); !reflect.DeepEqual(unfiltered, locations) {
		t.Fatalf("empty exclusion set removed files: %v", unfiltered)
	}
}

func TestNewPatternSetRejectsInvalidPattern(t *testing.T) {
	if _, err := snapshot.NewPatternSet("src/[unterminated"); err == nil {
		t.Fatalf("expected invalid pattern error")
	}
	set, err := snapshot.NewPatternSet(" ", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.Empty() {
		t.Fatalf("expected blank patterns to be dropped")
	}
}

func TestFilterPatternsMatchesRootRelativePaths(t *testing.T) {
	set, err := snapshot.NewPatternSet("**/node_modules/**", "*.lock", "docs/*.md")
	if err != nil {
		t.Fatalf("NewPatternSet error: %v", err)
	}
	roots := snapshot.NewWorkspaceRoots("/project")
	locations := []string{
		"/project/main.go",
		"/project/web/node_modules/react/index.js",
		"/project/go.lock",
		"/project/docs/guide.md",
		"/project/docs/nested/guide.md",
	}
	filtered := snapshot.FilterPatterns(locations, set, roots)
	expected := []string{"/project/main.go", "/project/docs/nested/guide.md"}
	if !reflect.DeepEqual(filtered, expected) {
		t.Fatalf("expected %v, got %v", expected, filtered)
	}
}
