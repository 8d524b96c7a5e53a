// Package output renders the codebase summary format.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	bannerTitleFormat   = "# %s Codebase Summary\n"
	bannerGeneratedLine = "# Generated for GPT sharing\n"
	bannerRulePrefix    = "# "
	bannerRuleWidth     = 50
	blockDelimiterWidth = 20
	blockHeaderFormat   = "FILE: %s\n"
	readErrorFormat     = "Error reading file: %v"
	delimiterRune       = "="
	newline             = "\n"
	blockTerminator     = "\n\n"
	defaultProjectName  = "Project"
	projectNameSuffix   = " Project"
)

var (
	bannerRule     = bannerRulePrefix + strings.Repeat(delimiterRune, bannerRuleWidth) + newline
	blockDelimiter = strings.Repeat(delimiterRune, blockDelimiterWidth) + newline
)

// ProjectNameForRoot derives the banner project name from the root directory
// base name, e.g. "Pickyoursocks" becomes "Pickyoursocks Project".
func ProjectNameForRoot(rootBaseName string) string {
	trimmed := strings.TrimSpace(rootBaseName)
	switch trimmed {
	case "", ".", "/", `\`:
		return defaultProjectName
	}
	return trimmed + projectNameSuffix
}

// SummaryWriter appends the banner and per-file blocks to a destination.
// Writes are buffered; Flush must be called before the destination is closed.
type SummaryWriter struct {
	destination *bufio.Writer
	written     int64
}

// NewSummaryWriter wraps destination in a buffered SummaryWriter.
func NewSummaryWriter(destination io.Writer) *SummaryWriter {
	return &SummaryWriter{destination: bufio.NewWriter(destination)}
}

// WriteBanner writes the three banner lines followed by a blank line.
func (writer *SummaryWriter) WriteBanner(projectName string) error {
	return writer.writeAll(fmt.Sprintf(bannerTitleFormat, projectName), bannerGeneratedLine, bannerRule, newline)
}

// WriteFile writes one block holding the verbatim content of relativePath.
func (writer *SummaryWriter) WriteFile(relativePath, content string) error {
	if err := writer.writeHeader(relativePath); err != nil {
		return err
	}
	return writer.writeAll(content, blockTerminator)
}

// WriteReadError writes one block whose body describes why relativePath could not be read.
func (writer *SummaryWriter) WriteReadError(relativePath string, readError error) error {
	if err := writer.writeHeader(relativePath); err != nil {
		return err
	}
	return writer.writeAll(fmt.Sprintf(readErrorFormat, readError), blockTerminator)
}

// Flush writes buffered data to the destination.
func (writer *SummaryWriter) Flush() error {
	return writer.destination.Flush()
}

// BytesWritten reports the number of bytes accepted so far.
func (writer *SummaryWriter) BytesWritten() int64 {
	return writer.written
}

func (writer *SummaryWriter) writeHeader(relativePath string) error {
	return writer.writeAll(newline, blockDelimiter, fmt.Sprintf(blockHeaderFormat, relativePath), blockDelimiter, newline)
}

func (writer *SummaryWriter) writeAll(parts ...string) error {
	for _, part := range parts {
		count, err := writer.destination.WriteString(part)
		writer.written += int64(count)
		if err != nil {
			return err
		}
	}
	return nil
}
