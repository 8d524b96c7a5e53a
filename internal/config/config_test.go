package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadExclusionPatternFile(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "patterns.txt")
	content := "# generated code\n\ngen\n  vendor/lib  \ngen\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write patterns: %v", err)
	}
	patterns, err := LoadExclusionPatternFile(path)
	if err != nil {
		t.Fatalf("LoadExclusionPatternFile error: %v", err)
	}
	expected := []string{"gen", "vendor/lib"}
	if !reflect.DeepEqual(patterns, expected) {
		t.Fatalf("expected %v, got %v", expected, patterns)
	}
}

func TestLoadExclusionPatternFileMissing(t *testing.T) {
	patterns, err := LoadExclusionPatternFile(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(patterns) != 0 {
		t.Fatalf("expected no patterns, got %v", patterns)
	}
}

func TestCombineExclusionPatterns(t *testing.T) {
	combined := CombineExclusionPatterns([]string{"gen", "gen"}, []string{" ", "tmp", "gen", " docs "})
	expected := []string{"gen", "tmp", "docs"}
	if !reflect.DeepEqual(combined, expected) {
		t.Fatalf("expected %v, got %v", expected, combined)
	}
}
