// Package types defines every cross‑package data structure used by the codesum CLI.
package types

import "strings"

// DecodingMode selects how source bytes are turned into text.
type DecodingMode string

const (
	// DecodingStrict rejects content that is not valid UTF-8.
	DecodingStrict DecodingMode = "strict"
	// DecodingReplace substitutes U+FFFD for invalid byte sequences and never fails.
	DecodingReplace DecodingMode = "replace"
)

// ParseDecodingMode converts a configuration literal into a DecodingMode.
// Matching ignores case and surrounding space; an empty value means strict.
func ParseDecodingMode(value string) (DecodingMode, bool) {
	normalized := DecodingMode(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case DecodingStrict, DecodingReplace:
		return normalized, true
	case "":
		return DecodingStrict, true
	default:
		return "", false
	}
}

// SourceFile is an eligible file discovered under the root directory.
type SourceFile struct {
	AbsolutePath string
	// RelativePath is relative to the root directory and uses forward slashes.
	RelativePath string
}

// RunSummary describes the outcome of one aggregation run.
type RunSummary struct {
	OutputPath   string
	WrittenFiles int
	FailedFiles  int
	ContentBytes int64
	Tokens       int
	Model        string
}
