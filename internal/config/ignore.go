// Package config loads snapshot settings from YAML files and per-root ignore files.
package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/snapshot/internal/utils"
)

const ignoreCommentPrefix = "#"

// LoadIgnoreFilePatterns reads glob patterns from an ignore file, one per line.
// Blank lines and lines starting with '#' are skipped. A missing file yields
// no patterns.
func LoadIgnoreFilePatterns(fileSystem afero.Fs, ignoreFilePath string) ([]string, error) {
	content, readFileError := afero.ReadFile(fileSystem, ignoreFilePath)
	if readFileError != nil {
		if errors.Is(readFileError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, readFileError
	}

	var ignorePatterns []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, ignoreCommentPrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// LoadRootIgnorePatterns aggregates the ignore file of every root with the
// configured exclusion patterns, deduplicated in order.
func LoadRootIgnorePatterns(fileSystem afero.Fs, roots []string, exclusionPatterns []string) ([]string, error) {
	var combinedPatterns []string
	for _, root := range roots {
		ignoreFilePath := filepath.Join(root, utils.IgnoreFileName)
		patterns, loadError := LoadIgnoreFilePatterns(fileSystem, ignoreFilePath)
		if loadError != nil {
			return nil, fmt.Errorf("loading %s from %s: %w", utils.IgnoreFileName, root, loadError)
		}
		combinedPatterns = append(combinedPatterns, patterns...)
	}
	combinedPatterns = append(combinedPatterns, exclusionPatterns...)
	return utils.DeduplicatePatterns(combinedPatterns), nil
}
