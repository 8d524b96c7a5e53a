package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tyemirov/codesum/internal/selection"
	"github.com/tyemirov/codesum/internal/types"
	"github.com/tyemirov/codesum/internal/utils"
)

const (
	// warningReadDirectoryFormat reports a directory whose entries could not be listed.
	warningReadDirectoryFormat = "unable to list directory %s: %v"
	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
)

// SourceVisitor receives every eligible file in walk order.
type SourceVisitor func(types.SourceFile) error

// WalkOptions configures WalkSources.
type WalkOptions struct {
	Root  string
	Rules selection.Rules
	// SkipPaths lists absolute file paths that are never visited, such as the output file.
	SkipPaths []string
	Warn      func(message string)
}

type sourceWalkContext struct {
	ctx       context.Context
	root      string
	options   WalkOptions
	skipPaths map[string]struct{}
	visitor   SourceVisitor
}

// WalkSources walks options.Root depth-first and invokes visitor for every file
// accepted by options.Rules. Within a directory, entries are taken in lexical
// order and all files are visited before any subdirectory is entered.
// Directories that cannot be listed are reported through Warn and skipped.
// Visitor errors and context cancellation stop the walk.
func WalkSources(ctx context.Context, options WalkOptions, visitor SourceVisitor) error {
	if visitor == nil {
		return fmt.Errorf("source visitor is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	absoluteRoot, absoluteError := filepath.Abs(options.Root)
	if absoluteError != nil {
		return fmt.Errorf(errorAbsolutePathFormat, options.Root, absoluteError)
	}
	if options.Warn == nil {
		options.Warn = func(string) {}
	}

	walkContext := sourceWalkContext{
		ctx:       ctx,
		root:      filepath.Clean(absoluteRoot),
		options:   options,
		skipPaths: make(map[string]struct{}, len(options.SkipPaths)),
		visitor:   visitor,
	}
	for _, skipPath := range options.SkipPaths {
		if absoluteSkipPath, err := filepath.Abs(skipPath); err == nil {
			walkContext.skipPaths[filepath.Clean(absoluteSkipPath)] = struct{}{}
		}
	}

	return walkContext.walkDirectory(walkContext.root)
}

func (walkContext *sourceWalkContext) walkDirectory(directoryPath string) error {
	entries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		walkContext.options.Warn(fmt.Sprintf(warningReadDirectoryFormat, directoryPath, readError))
		return nil
	}

	var subdirectories []string
	for _, entry := range entries {
		childPath := filepath.Join(directoryPath, entry.Name())
		relativePath := utils.RelativePathOrSelf(childPath, walkContext.root)

		isDirectory, descend := classifyEntry(entry, childPath)
		if isDirectory {
			if descend && !walkContext.options.Rules.ShouldPruneDirectory(entry.Name(), relativePath) {
				subdirectories = append(subdirectories, childPath)
			}
			continue
		}

		if !walkContext.options.Rules.ShouldIncludeFile(entry.Name(), relativePath) {
			continue
		}
		if _, skipped := walkContext.skipPaths[childPath]; skipped {
			continue
		}
		if err := walkContext.ctx.Err(); err != nil {
			return err
		}
		if err := walkContext.visitor(types.SourceFile{AbsolutePath: childPath, RelativePath: relativePath}); err != nil {
			return err
		}
	}

	for _, subdirectoryPath := range subdirectories {
		if err := walkContext.walkDirectory(subdirectoryPath); err != nil {
			return err
		}
	}
	return nil
}

// classifyEntry reports whether an entry is a directory and whether it may be
// descended into. Links to directories count as directories but are never
// followed; links that cannot be resolved are treated as files.
func classifyEntry(entry fs.DirEntry, childPath string) (bool, bool) {
	if entry.IsDir() {
		return true, true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false, false
	}
	targetInfo, statError := os.Stat(childPath)
	if statError != nil {
		return false, false
	}
	return targetInfo.IsDir(), false
}
