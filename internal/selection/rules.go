// Package selection decides which directories are pruned and which files are
// aggregated during a walk.
package selection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"

	"github.com/tyemirov/codesum/internal/utils"
)

const (
	extensionSeparator   = "."
	currentDirectoryBase = "."
)

// DefaultExcludedDirectories lists directory names that are never descended into.
var DefaultExcludedDirectories = []string{".git", "node_modules", "dist", "build", ".next", "__pycache__"}

// DefaultExcludedFiles lists file names that are never aggregated.
var DefaultExcludedFiles = []string{"package-lock.json", "yarn.lock", ".DS_Store", "favicon.ico"}

// DefaultIncludedExtensions lists the extensions whose files are aggregated.
var DefaultIncludedExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".json", ".html", ".css", ".md", ".env", ".py"}

// IgnoreMatcher reports whether a root-relative path is ignored.
type IgnoreMatcher interface {
	Match(path string, isDir bool) bool
}

// Rules holds the immutable selection configuration of a run.
type Rules struct {
	ExcludedDirectories map[string]struct{}
	ExcludedFiles       map[string]struct{}
	IncludedExtensions  map[string]struct{}
	ExclusionPatterns   []string
	GitIgnore           IgnoreMatcher
}

// DefaultRules returns the built-in selection rules.
func DefaultRules() Rules {
	return NewRules(DefaultExcludedDirectories, DefaultExcludedFiles, DefaultIncludedExtensions, nil)
}

// NewRules builds Rules from plain lists. Extensions are lower-cased and
// prefixed with a dot when the caller omitted it.
func NewRules(excludedDirectories, excludedFiles, includedExtensions, exclusionPatterns []string) Rules {
	rules := Rules{
		ExcludedDirectories: toSet(excludedDirectories, strings.TrimSpace),
		ExcludedFiles:       toSet(excludedFiles, strings.TrimSpace),
		IncludedExtensions:  toSet(includedExtensions, NormalizeExtension),
	}
	for _, pattern := range utils.DeduplicatePatterns(exclusionPatterns) {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern != "" {
			rules.ExclusionPatterns = append(rules.ExclusionPatterns, trimmedPattern)
		}
	}
	return rules
}

// WithGitIgnore returns a copy of rules that also honors the .gitignore file at
// the root directory. A missing .gitignore leaves the rules unchanged.
func (rules Rules) WithGitIgnore(rootDirectory string) (Rules, error) {
	gitIgnorePath := filepath.Join(rootDirectory, utils.GitIgnoreFileName)
	if _, statError := os.Stat(gitIgnorePath); statError != nil {
		if os.IsNotExist(statError) {
			return rules, nil
		}
		return rules, fmt.Errorf("stat %s: %w", gitIgnorePath, statError)
	}
	// Match is called with root-relative paths, so the matcher base is ".".
	matcher, parseError := gitignore.NewGitIgnore(gitIgnorePath, currentDirectoryBase)
	if parseError != nil {
		return rules, fmt.Errorf("parse %s: %w", gitIgnorePath, parseError)
	}
	rules.GitIgnore = matcher
	return rules, nil
}

// ShouldPruneDirectory reports whether the directory must not be descended into.
func (rules Rules) ShouldPruneDirectory(name, relativePath string) bool {
	if _, excluded := rules.ExcludedDirectories[name]; excluded {
		return true
	}
	return rules.matchesPatterns(relativePath, true)
}

// ShouldIncludeFile reports whether the file is aggregated.
func (rules Rules) ShouldIncludeFile(name, relativePath string) bool {
	if _, excluded := rules.ExcludedFiles[name]; excluded {
		return false
	}
	if _, included := rules.IncludedExtensions[Extension(name)]; !included {
		return false
	}
	return !rules.matchesPatterns(relativePath, false)
}

func (rules Rules) matchesPatterns(relativePath string, isDirectory bool) bool {
	if utils.ShouldIgnoreByPath(relativePath, rules.ExclusionPatterns) {
		return true
	}
	return rules.GitIgnore != nil && rules.GitIgnore.Match(relativePath, isDirectory)
}

// Extension returns the lower-cased extension of a file name including the
// leading dot. Leading dots of the name do not start an extension, so ".env"
// has none while "local.env" has ".env".
func Extension(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimLeft(base, extensionSeparator)
	separatorIndex := strings.LastIndex(stem, extensionSeparator)
	if separatorIndex < 0 {
		return utils.EmptyString
	}
	return strings.ToLower(stem[separatorIndex:])
}

// NormalizeExtension lower-cases an extension and ensures it starts with a dot.
func NormalizeExtension(extension string) string {
	trimmed := strings.ToLower(strings.TrimSpace(extension))
	if trimmed == "" || strings.HasPrefix(trimmed, extensionSeparator) {
		return trimmed
	}
	return extensionSeparator + trimmed
}

func toSet(values []string, normalize func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := normalize(value)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}
