// Package config loads codesum configuration files and exclusion pattern lists.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/tyemirov/codesum/internal/utils"
)

const commentPrefix = "#"

// LoadExclusionPatternFile reads one pattern per line from path. Blank lines and
// lines starting with # are skipped. A missing file yields no patterns.
//
// #nosec G304
func LoadExclusionPatternFile(path string) ([]string, error) {
	fileHandle, openErr := os.Open(path)
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("open exclusion file %s: %w", path, openErr)
	}
	defer func() {
		if closeErr := fileHandle.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", path, closeErr)
		}
	}()

	var patterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		patterns = append(patterns, trimmedLine)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, fmt.Errorf("read exclusion file %s: %w", path, scanErr)
	}
	return utils.DeduplicatePatterns(patterns), nil
}

// CombineExclusionPatterns appends the trimmed non-empty extra patterns to base,
// skipping ones already present.
func CombineExclusionPatterns(base []string, extra []string) []string {
	combined := utils.DeduplicatePatterns(base)
	for _, pattern := range extra {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if !utils.ContainsString(combined, trimmedPattern) {
			combined = append(combined, trimmedPattern)
		}
	}
	return combined
}
