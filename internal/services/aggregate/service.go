// Package aggregate writes a codebase summary: a banner followed by one block
// per eligible source file under a root directory.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tyemirov/codesum/internal/commands"
	"github.com/tyemirov/codesum/internal/output"
	"github.com/tyemirov/codesum/internal/selection"
	"github.com/tyemirov/codesum/internal/types"
)

const outputFileMode = 0o644

var (
	// ErrOutputOpen reports that the output file could not be opened for writing.
	ErrOutputOpen = errors.New("open output file")
	// ErrOutputWrite reports that writing, flushing or closing the output file failed.
	ErrOutputWrite = errors.New("write output file")
)

// Options configures a single aggregation run.
type Options struct {
	RootDirectory string
	OutputPath    string
	// ProjectName appears in the banner title; derived from the root directory when empty.
	ProjectName string
	Rules       selection.Rules
	Decoding    types.DecodingMode
}

// OutputOpener opens the output destination, truncating existing content.
type OutputOpener func(path string) (io.WriteCloser, error)

// Service runs aggregations.
type Service struct {
	logger     *zap.Logger
	openOutput OutputOpener
}

// NewService constructs a Service writing to regular files.
func NewService(logger *zap.Logger) *Service {
	return NewServiceWithOpener(logger, openOutputFile)
}

// NewServiceWithOpener constructs a Service that obtains its destination from opener.
func NewServiceWithOpener(logger *zap.Logger, opener OutputOpener) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opener == nil {
		opener = openOutputFile
	}
	return &Service{logger: logger, openOutput: opener}
}

// Run writes the summary for options.RootDirectory into options.OutputPath.
// Only output failures are fatal; unreadable sources are recorded inline.
func (service *Service) Run(ctx context.Context, options Options) (summary types.RunSummary, err error) {
	absoluteRoot, absoluteRootError := filepath.Abs(options.RootDirectory)
	if absoluteRootError != nil {
		return summary, fmt.Errorf("resolve root directory %s: %w", options.RootDirectory, absoluteRootError)
	}
	absoluteOutput, absoluteOutputError := filepath.Abs(options.OutputPath)
	if absoluteOutputError != nil {
		return summary, fmt.Errorf("%w %s: %w", ErrOutputOpen, options.OutputPath, absoluteOutputError)
	}
	summary.OutputPath = absoluteOutput

	projectName := options.ProjectName
	if projectName == "" {
		projectName = output.ProjectNameForRoot(filepath.Base(absoluteRoot))
	}

	destination, openError := service.openOutput(absoluteOutput)
	if openError != nil {
		return summary, fmt.Errorf("%w %s: %w", ErrOutputOpen, absoluteOutput, openError)
	}
	writer := output.NewSummaryWriter(destination)
	defer func() {
		flushError := writer.Flush()
		closeError := destination.Close()
		if err != nil {
			return
		}
		if flushError != nil {
			err = fmt.Errorf("%w %s: %w", ErrOutputWrite, absoluteOutput, flushError)
		} else if closeError != nil {
			err = fmt.Errorf("%w %s: %w", ErrOutputWrite, absoluteOutput, closeError)
		}
	}()

	service.logger.Debug("aggregating sources",
		zap.String("root", absoluteRoot),
		zap.String("output", absoluteOutput),
		zap.String("decoding", string(options.Decoding)))

	if bannerError := writer.WriteBanner(projectName); bannerError != nil {
		return summary, fmt.Errorf("%w %s: %w", ErrOutputWrite, absoluteOutput, bannerError)
	}

	walkOptions := commands.WalkOptions{
		Root:      absoluteRoot,
		Rules:     options.Rules,
		SkipPaths: []string{absoluteOutput},
		Warn: func(message string) {
			service.logger.Warn(message)
		},
	}
	visit := func(source types.SourceFile) error {
		content, readError := commands.ReadSourceText(source.AbsolutePath, options.Decoding)
		if readError != nil {
			service.logger.Warn("unable to read source file",
				zap.String("path", source.RelativePath),
				zap.Error(readError))
			summary.FailedFiles++
			if writeError := writer.WriteReadError(source.RelativePath, readError); writeError != nil {
				return fmt.Errorf("%w %s: %w", ErrOutputWrite, absoluteOutput, writeError)
			}
			return nil
		}
		service.logger.Debug("appending source file", zap.String("path", source.RelativePath), zap.Int("bytes", len(content)))
		summary.WrittenFiles++
		summary.ContentBytes += int64(len(content))
		if writeError := writer.WriteFile(source.RelativePath, content); writeError != nil {
			return fmt.Errorf("%w %s: %w", ErrOutputWrite, absoluteOutput, writeError)
		}
		return nil
	}

	if walkError := commands.WalkSources(ctx, walkOptions, visit); walkError != nil {
		return summary, walkError
	}
	return summary, nil
}

// #nosec G304
func openOutputFile(path string) (io.WriteCloser, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFileMode)
	if err != nil {
		return nil, err
	}
	return file, nil
}
