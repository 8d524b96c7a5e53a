package aggregate_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/codesum/internal/selection"
	"github.com/tyemirov/codesum/internal/services/aggregate"
	"github.com/tyemirov/codesum/internal/types"
)

const expectedBanner = "# Demo Project Codebase Summary\n# Generated for GPT sharing\n# ==================================================\n\n"

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for relativePath, content := range files {
		fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", relativePath, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", relativePath, err)
		}
	}
}

func newDemoRoot(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Demo")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	return root
}

func runAggregation(t *testing.T, service *aggregate.Service, options aggregate.Options) (types.RunSummary, string) {
	t.Helper()
	summary, err := service.Run(context.Background(), options)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	content, readErr := os.ReadFile(options.OutputPath)
	if readErr != nil {
		t.Fatalf("read output: %v", readErr)
	}
	return summary, string(content)
}

func TestRunProducesBlocksForEligibleFiles(t *testing.T) {
	root := newDemoRoot(t)
	writeTree(t, root, map[string]string{
		"a.ts":                "x",
		"node_modules/b.js":   "module",
		"readme.md":           "hi",
		"yarn.lock":           "lock",
		"notes.txt":           "skip",
		"src/deep/.next/c.js": "skip",
	})
	outputPath := filepath.Join(t.TempDir(), "summary.txt")

	summary, content := runAggregation(t, aggregate.NewService(zap.NewNop()), aggregate.Options{
		RootDirectory: root,
		OutputPath:    outputPath,
		Rules:         selection.DefaultRules(),
		Decoding:      types.DecodingStrict,
	})

	expected := expectedBanner +
		"\n====================\nFILE: a.ts\n====================\n\nx\n\n" +
		"\n====================\nFILE: readme.md\n====================\n\nhi\n\n"
	if content != expected {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", content, expected)
	}
	if strings.Count(content, "FILE: ") != 2 {
		t.Fatalf("expected exactly two blocks")
	}
	if summary.WrittenFiles != 2 || summary.FailedFiles != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.ContentBytes != int64(len("x")+len("hi")) {
		t.Fatalf("unexpected content bytes: %d", summary.ContentBytes)
	}
	if summary.OutputPath != outputPath {
		t.Fatalf("expected output path %s, got %s", outputPath, summary.OutputPath)
	}
}

func TestRunRecordsUnreadableFilesInline(t *testing.T) {
	root := newDemoRoot(t)
	writeTree(t, root, map[string]string{
		"a.json": "\xff\xfe{}",
		"b.ts":   "after",
	})
	outputPath := filepath.Join(t.TempDir(), "summary.txt")

	core, logs := observer.New(zapcore.WarnLevel)
	summary, content := runAggregation(t, aggregate.NewService(zap.New(core)), aggregate.Options{
		RootDirectory: root,
		OutputPath:    outputPath,
		Rules:         selection.DefaultRules(),
		Decoding:      types.DecodingStrict,
	})

	expectedErrorBlock := "\n====================\nFILE: a.json\n====================\n\nError reading file: invalid UTF-8 byte 0xff at offset 0\n\n"
	if !strings.Contains(content, expectedErrorBlock) {
		t.Fatalf("expected error block in output:\n%q", content)
	}
	if !strings.Contains(content, "FILE: b.ts\n====================\n\nafter\n\n") {
		t.Fatalf("expected traversal to continue after failure:\n%q", content)
	}
	if summary.FailedFiles != 1 || summary.WrittenFiles != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if logs.FilterMessage("unable to read source file").Len() != 1 {
		t.Fatalf("expected one read warning, got %v", logs.All())
	}
}

func TestRunReplaceDecodingNeverFails(t *testing.T) {
	root := newDemoRoot(t)
	writeTree(t, root, map[string]string{"a.ts": "ok\xffok"})
	outputPath := filepath.Join(t.TempDir(), "summary.txt")

	summary, content := runAggregation(t, aggregate.NewService(nil), aggregate.Options{
		RootDirectory: root,
		OutputPath:    outputPath,
		Rules:         selection.DefaultRules(),
		Decoding:      types.DecodingReplace,
	})
	if strings.Contains(content, "Error reading file:") {
		t.Fatalf("replace decoding must not produce error blocks:\n%q", content)
	}
	if !strings.Contains(content, "ok\uFFFDok") {
		t.Fatalf("expected replacement character in output:\n%q", content)
	}
	if summary.FailedFiles != 0 {
		t.Fatalf("unexpected failures: %+v", summary)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	root := newDemoRoot(t)
	writeTree(t, root, map[string]string{
		"z.ts":          "z",
		"a/b/c.py":      "print('c')",
		"a/index.html":  "<html></html>",
		"styles/x.css":  "body {}",
		"docs/guide.md": "# guide",
	})
	outputPath := filepath.Join(t.TempDir(), "summary.txt")
	service := aggregate.NewService(zap.NewNop())
	options := aggregate.Options{RootDirectory: root, OutputPath: outputPath, Rules: selection.DefaultRules()}

	_, first := runAggregation(t, service, options)
	_, second := runAggregation(t, service, options)
	if first != second {
		t.Fatalf("expected identical output across runs")
	}
}

func TestRunTruncatesExistingOutputAndSkipsItself(t *testing.T) {
	root := newDemoRoot(t)
	writeTree(t, root, map[string]string{"a.ts": "x"})
	outputPath := filepath.Join(root, "summary.md")
	if err := os.WriteFile(outputPath, []byte(strings.Repeat("stale ", 1000)), 0o600); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	_, content := runAggregation(t, aggregate.NewService(zap.NewNop()), aggregate.Options{
		RootDirectory: root,
		OutputPath:    outputPath,
		ProjectName:   "Demo Project",
		Rules:         selection.DefaultRules(),
	})
	if strings.Contains(content, "stale") {
		t.Fatalf("expected previous content to be truncated")
	}
	if strings.Contains(content, "FILE: summary.md") {
		t.Fatalf("output file must not summarize itself")
	}
	if !strings.HasPrefix(content, expectedBanner) {
		t.Fatalf("expected banner prefix, got %q", content)
	}
}

func TestRunFailsWhenOutputCannotBeOpened(t *testing.T) {
	root := newDemoRoot(t)
	outputPath := filepath.Join(t.TempDir(), "missing", "summary.txt")

	_, err := aggregate.NewService(zap.NewNop()).Run(context.Background(), aggregate.Options{
		RootDirectory: root,
		OutputPath:    outputPath,
		Rules:         selection.DefaultRules(),
	})
	if !errors.Is(err, aggregate.ErrOutputOpen) {
		t.Fatalf("expected ErrOutputOpen, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected underlying not-exist error, got %v", err)
	}
}

type failingDestination struct {
	closed bool
}

func (destination *failingDestination) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func (destination *failingDestination) Close() error {
	destination.closed = true
	return nil
}

func TestRunReportsWriteFailuresAndCloses(t *testing.T) {
	root := newDemoRoot(t)
	writeTree(t, root, map[string]string{"a.ts": "x"})
	destination := &failingDestination{}
	opener := func(string) (io.WriteCloser, error) { return destination, nil }

	_, err := aggregate.NewServiceWithOpener(zap.NewNop(), opener).Run(context.Background(), aggregate.Options{
		RootDirectory: root,
		OutputPath:    filepath.Join(t.TempDir(), "summary.txt"),
		Rules:         selection.DefaultRules(),
	})
	if !errors.Is(err, aggregate.ErrOutputWrite) {
		t.Fatalf("expected ErrOutputWrite, got %v", err)
	}
	if !destination.closed {
		t.Fatalf("expected destination to be closed")
	}
}

func TestRunWithMissingRootWritesBannerOnly(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "summary.txt")
	core, logs := observer.New(zapcore.WarnLevel)

	_, content := runAggregation(t, aggregate.NewService(zap.New(core)), aggregate.Options{
		RootDirectory: filepath.Join(t.TempDir(), "Demo"),
		OutputPath:    outputPath,
		Rules:         selection.DefaultRules(),
	})
	if content != expectedBanner {
		t.Fatalf("expected banner only, got %q", content)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected a warning about the missing root, got %v", logs.All())
	}
}
