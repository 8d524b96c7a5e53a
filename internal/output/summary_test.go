package output_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tyemirov/codesum/internal/output"
)

func TestSummaryWriterProducesExactFormat(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	writer := output.NewSummaryWriter(&buffer)
	if err := writer.WriteBanner("Pickyoursocks Project"); err != nil {
		t.Fatalf("WriteBanner: %v", err)
	}
	if err := writer.WriteFile("src/a.ts", "x"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := writer.WriteReadError("bin/data.json", errors.New("boom")); err != nil {
		t.Fatalf("WriteReadError: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	expected := "# Pickyoursocks Project Codebase Summary\n" +
		"# Generated for GPT sharing\n" +
		"# ==================================================\n" +
		"\n" +
		"\n====================\nFILE: src/a.ts\n====================\n\nx\n\n" +
		"\n====================\nFILE: bin/data.json\n====================\n\nError reading file: boom\n\n"
	if buffer.String() != expected {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", buffer.String(), expected)
	}
	if writer.BytesWritten() != int64(len(expected)) {
		t.Fatalf("expected %d bytes written, got %d", len(expected), writer.BytesWritten())
	}
}

func TestSummaryWriterBuffersUntilFlush(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	writer := output.NewSummaryWriter(&buffer)
	if err := writer.WriteBanner("Demo Project"); err != nil {
		t.Fatalf("WriteBanner: %v", err)
	}
	if buffer.Len() != 0 {
		t.Fatalf("expected no bytes before flush, got %d", buffer.Len())
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buffer.Len() == 0 {
		t.Fatalf("expected banner after flush")
	}
}

func TestProjectNameForRoot(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"Pickyoursocks": "Pickyoursocks Project",
		" api ":         "api Project",
		".":             "Project",
		"/":             "Project",
		"":              "Project",
		".config":       ".config Project",
	}
	for input, expected := range testCases {
		if actual := output.ProjectNameForRoot(input); actual != expected {
			t.Fatalf("ProjectNameForRoot(%q) = %q, want %q", input, actual, expected)
		}
	}
}
