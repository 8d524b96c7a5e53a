// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tyemirov/codesum/internal/config"
	"github.com/tyemirov/codesum/internal/selection"
	"github.com/tyemirov/codesum/internal/services/aggregate"
	"github.com/tyemirov/codesum/internal/services/clipboard"
	"github.com/tyemirov/codesum/internal/tokenizer"
	"github.com/tyemirov/codesum/internal/types"
	"github.com/tyemirov/codesum/internal/utils"
)

const (
	rootFlagName         = "root"
	outputFlagName       = "output"
	projectFlagName      = "project"
	exclusionFlagName    = "exclude"
	exclusionShorthand   = "e"
	excludeFromFlagName  = "exclude-from"
	excludeDirFlagName   = "exclude-dir"
	excludeFileFlagName  = "exclude-file"
	extensionFlagName    = "extension"
	gitignoreFlagName    = "gitignore"
	decodingFlagName     = "decoding"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	copyFlagName         = "copy"
	configFlagName       = "config"
	verboseFlagName      = "verbose"
	versionFlagName      = "version"
	globalFlagName       = "global"
	forceFlagName        = "force"
	defaultRootDirectory = "."
	outputFileSuffix     = "_full_codebase.txt"
	versionTemplate      = "codesum version: %s\n"
	createdMessageFormat = "Codebase summary created at: %s\n"
	initializedFormat    = "Configuration written to %s\n"

	rootUse              = "codesum [root] [output]"
	rootShortDescription = "concatenate a project's source files into one text file"
	rootLongDescription  = `codesum walks a directory tree and writes the contents of the selected files
into a single text file, each one preceded by a FILE: header with its relative path.
Directories such as .git and node_modules are skipped, and only files with a known
source extension are included. Defaults can be stored in config.yaml (see "codesum init").`
	rootUsageExample = `  # Summarize the current directory into ./<name>_full_codebase.txt
  codesum

  # Summarize a project into a chosen file and copy it to the clipboard
  codesum ./webapp /tmp/webapp.txt --copy

  # Only Go files, honoring .gitignore, with a token count
  codesum --extension .go --gitignore --tokens`
	initUse              = "init"
	initShortDescription = "write a default config.yaml"
	initLongDescription  = `Write the default configuration to ./config.yaml, or to ~/.codesum/config.yaml with --global.
An existing file is only replaced when --force is given.`

	rootFlagDescription        = "directory to summarize"
	outputFlagDescription      = "summary file to write"
	projectFlagDescription     = "project name shown in the banner"
	exclusionFlagDescription   = "exclude path pattern"
	excludeFromFlagDescription = "file with one exclusion pattern per line"
	excludeDirFlagDescription  = "directory name to skip (replaces the defaults)"
	excludeFileFlagDescription = "file name to skip (replaces the defaults)"
	extensionFlagDescription   = "file extension to include (replaces the defaults)"
	gitignoreFlagDescription   = "also skip paths matched by the root .gitignore"
	decodingFlagDescription    = "handling of invalid UTF-8: strict or replace"
	tokensFlagDescription      = "count tokens in the written summary"
	modelFlagDescription       = "tokenizer model to use for token counting"
	copyFlagDescription        = "copy the written summary to the clipboard"
	configFlagDescription      = "configuration file to use instead of ./config.yaml"
	verboseFlagDescription     = "log every appended file"
	versionFlagDescription     = "display application version"
	globalFlagDescription      = "write the global configuration"
	forceFlagDescription       = "overwrite an existing configuration"

	invalidDecodingMessage       = "invalid decoding value '%s' (expected strict or replace)"
	conflictingArgumentMessage   = "%s given both as argument and as --%s"
	loadConfigurationErrorFormat = "load configuration: %w"
)

var errConflictingArguments = errors.New("conflicting arguments")

// environment carries the collaborators the commands need so tests can
// substitute them.
type environment struct {
	logger           *zap.Logger
	level            zap.AtomicLevel
	stdout           io.Writer
	copier           clipboard.Copier
	newCounter       func(tokenizer.Config) (tokenizer.Counter, string, error)
	workingDirectory string
}

// Execute runs the codesum application.
func Execute(logger *zap.Logger, level zap.AtomicLevel) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCommand := createRootCommand(environment{
		logger:     logger,
		level:      level,
		stdout:     os.Stdout,
		copier:     clipboard.NewService(),
		newCounter: tokenizer.NewCounter,
	})
	rootCommand.SetArgs(normalizeToggleFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// rootOptions stores the raw flag values of the root command.
type rootOptions struct {
	rootDirectory       string
	outputPath          string
	projectName         string
	exclusionPatterns   []string
	excludeFrom         string
	excludedDirectories []string
	excludedFiles       []string
	extensions          []string
	useGitignore        bool
	decoding            string
	tokensEnabled       bool
	tokenModel          string
	copyToClipboard     bool
	configPath          string
	verbose             bool
	showVersion         bool
}

// runSettings is the fully merged result of flags, configuration files and defaults.
type runSettings struct {
	aggregateOptions aggregate.Options
	useGitignore     bool
	tokensEnabled    bool
	tokenModel       string
	copyToClipboard  bool
}

// createRootCommand builds the root Cobra command.
func createRootCommand(env environment) *cobra.Command {
	var options rootOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				fmt.Fprintf(env.stdout, versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			if options.verbose {
				env.level.SetLevel(zap.DebugLevel)
			}
			applicationConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
				WorkingDirectory: env.workingDirectory,
				ExplicitFilePath: options.configPath,
			})
			if loadError != nil {
				return fmt.Errorf(loadConfigurationErrorFormat, loadError)
			}
			settings, settingsError := resolveRunSettings(command.Flags(), arguments, options, applicationConfiguration.Aggregate)
			if settingsError != nil {
				return settingsError
			}
			return runAggregation(command.Context(), env, settings)
		},
	}

	flagSet := rootCommand.Flags()
	flagSet.StringVar(&options.rootDirectory, rootFlagName, defaultRootDirectory, rootFlagDescription)
	flagSet.StringVar(&options.outputPath, outputFlagName, "", outputFlagDescription)
	flagSet.StringVar(&options.projectName, projectFlagName, "", projectFlagDescription)
	flagSet.StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionShorthand, nil, exclusionFlagDescription)
	flagSet.StringVar(&options.excludeFrom, excludeFromFlagName, "", excludeFromFlagDescription)
	flagSet.StringArrayVar(&options.excludedDirectories, excludeDirFlagName, nil, excludeDirFlagDescription)
	flagSet.StringArrayVar(&options.excludedFiles, excludeFileFlagName, nil, excludeFileFlagDescription)
	flagSet.StringArrayVar(&options.extensions, extensionFlagName, nil, extensionFlagDescription)
	flagSet.StringVar(&options.decoding, decodingFlagName, string(types.DecodingStrict), decodingFlagDescription)
	flagSet.StringVar(&options.tokenModel, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	flagSet.BoolVar(&options.showVersion, versionFlagName, false, versionFlagDescription)
	registerToggleFlags(flagSet,
		toggleFlagDefinition{name: gitignoreFlagName, target: &options.useGitignore, usage: gitignoreFlagDescription},
		toggleFlagDefinition{name: tokensFlagName, target: &options.tokensEnabled, usage: tokensFlagDescription},
		toggleFlagDefinition{name: copyFlagName, target: &options.copyToClipboard, usage: copyFlagDescription},
		toggleFlagDefinition{name: verboseFlagName, target: &options.verbose, usage: verboseFlagDescription},
	)

	rootCommand.AddCommand(createInitCommand(env))
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(env environment) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:          initUse,
		Short:        initShortDescription,
		Long:         initLongDescription,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: env.workingDirectory,
			})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(env.stdout, initializedFormat, path)
			return nil
		},
	}
	registerToggleFlags(initCommand.Flags(),
		toggleFlagDefinition{name: globalFlagName, target: &global, usage: globalFlagDescription},
		toggleFlagDefinition{name: forceFlagName, target: &force, usage: forceFlagDescription},
	)
	return initCommand
}

// resolveRunSettings merges positional arguments, flags, configuration and
// built-in defaults, in that order of precedence.
func resolveRunSettings(flagSet *pflag.FlagSet, arguments []string, options rootOptions, configuration config.AggregateConfiguration) (runSettings, error) {
	rootDirectory, rootError := pickPositional(arguments, 0, flagSet, rootFlagName, options.rootDirectory, configuration.Root)
	if rootError != nil {
		return runSettings{}, rootError
	}
	if rootDirectory == "" {
		rootDirectory = defaultRootDirectory
	}
	outputPath, outputError := pickPositional(arguments, 1, flagSet, outputFlagName, options.outputPath, configuration.Output)
	if outputError != nil {
		return runSettings{}, outputError
	}
	if outputPath == "" {
		outputPath = defaultOutputPath(rootDirectory)
	}

	decodingValue := pickString(flagSet, decodingFlagName, options.decoding, configuration.Decoding)
	decodingMode, decodingValid := types.ParseDecodingMode(decodingValue)
	if !decodingValid {
		return runSettings{}, fmt.Errorf(invalidDecodingMessage, decodingValue)
	}

	excludeFrom := pickString(flagSet, excludeFromFlagName, options.excludeFrom, configuration.Rules.ExcludeFrom)
	exclusionPatterns := config.CombineExclusionPatterns(configuration.Rules.Exclude, options.exclusionPatterns)
	if excludeFrom != "" {
		filePatterns, patternError := config.LoadExclusionPatternFile(excludeFrom)
		if patternError != nil {
			return runSettings{}, patternError
		}
		exclusionPatterns = config.CombineExclusionPatterns(exclusionPatterns, filePatterns)
	}

	rules := selection.NewRules(
		pickList(flagSet, excludeDirFlagName, options.excludedDirectories, configuration.Rules.ExcludeDirectories, selection.DefaultExcludedDirectories),
		pickList(flagSet, excludeFileFlagName, options.excludedFiles, configuration.Rules.ExcludeFiles, selection.DefaultExcludedFiles),
		pickList(flagSet, extensionFlagName, options.extensions, configuration.Rules.Extensions, selection.DefaultIncludedExtensions),
		exclusionPatterns,
	)

	tokenModel := pickString(flagSet, modelFlagName, options.tokenModel, configuration.Tokens.Model)
	if tokenModel == "" {
		tokenModel = tokenizer.DefaultModel
	}

	return runSettings{
		aggregateOptions: aggregate.Options{
			RootDirectory: rootDirectory,
			OutputPath:    outputPath,
			ProjectName:   pickString(flagSet, projectFlagName, options.projectName, configuration.Project),
			Rules:         rules,
			Decoding:      decodingMode,
		},
		useGitignore:    pickBool(flagSet, gitignoreFlagName, options.useGitignore, configuration.GitIgnore),
		tokensEnabled:   pickBool(flagSet, tokensFlagName, options.tokensEnabled, configuration.Tokens.Enabled),
		tokenModel:      tokenModel,
		copyToClipboard: pickBool(flagSet, copyFlagName, options.copyToClipboard, configuration.Clipboard),
	}, nil
}

func pickPositional(arguments []string, index int, flagSet *pflag.FlagSet, flagName string, flagValue string, configured string) (string, error) {
	if index < len(arguments) {
		if flagSet.Changed(flagName) {
			return "", fmt.Errorf("%w: "+conflictingArgumentMessage, errConflictingArguments, flagName, flagName)
		}
		return arguments[index], nil
	}
	return pickString(flagSet, flagName, flagValue, configured), nil
}

func pickString(flagSet *pflag.FlagSet, flagName string, flagValue string, configured string) string {
	if flagSet.Changed(flagName) || configured == "" {
		return flagValue
	}
	return configured
}

func pickBool(flagSet *pflag.FlagSet, flagName string, flagValue bool, configured *bool) bool {
	if flagSet.Changed(flagName) || configured == nil {
		return flagValue
	}
	return *configured
}

func pickList(flagSet *pflag.FlagSet, flagName string, flagValues []string, configured []string, defaults []string) []string {
	if flagSet.Changed(flagName) {
		return flagValues
	}
	if configured != nil {
		return configured
	}
	return defaults
}

// defaultOutputPath names the summary after the root directory and places it inside it.
func defaultOutputPath(rootDirectory string) string {
	baseName := filepath.Base(rootDirectory)
	if absoluteRoot, absoluteError := filepath.Abs(rootDirectory); absoluteError == nil {
		baseName = filepath.Base(absoluteRoot)
	}
	if baseName == string(filepath.Separator) || baseName == defaultRootDirectory {
		baseName = ""
	}
	return filepath.Join(rootDirectory, strings.ToLower(baseName)+outputFileSuffix)
}

// runAggregation writes the summary and performs the optional follow-up steps.
func runAggregation(ctx context.Context, env environment, settings runSettings) error {
	logger := env.logger
	if settings.useGitignore {
		rules, gitIgnoreError := settings.aggregateOptions.Rules.WithGitIgnore(settings.aggregateOptions.RootDirectory)
		if gitIgnoreError != nil {
			logger.Warn("ignoring .gitignore", zap.Error(gitIgnoreError))
		} else {
			settings.aggregateOptions.Rules = rules
		}
	}

	summary, runError := aggregate.NewService(logger).Run(ctx, settings.aggregateOptions)
	if runError != nil {
		return runError
	}
	fmt.Fprintf(env.stdout, createdMessageFormat, settings.aggregateOptions.OutputPath)

	if settings.tokensEnabled {
		summary = countSummaryTokens(env, settings.tokenModel, summary)
	}
	if settings.copyToClipboard {
		if copyError := clipboard.CopyFile(env.copier, summary.OutputPath); copyError != nil {
			logger.Warn("unable to copy summary to clipboard", zap.Error(copyError))
		}
	}

	logger.Debug("summary complete",
		zap.String("output", summary.OutputPath),
		zap.Int("files", summary.WrittenFiles),
		zap.Int("failed", summary.FailedFiles),
		zap.String("content", utils.FormatFileSize(summary.ContentBytes)))
	return nil
}

func countSummaryTokens(env environment, model string, summary types.RunSummary) types.RunSummary {
	counter, resolvedModel, counterError := env.newCounter(tokenizer.Config{Model: model})
	if counterError != nil {
		env.logger.Warn("unable to initialize tokenizer", zap.String("model", model), zap.Error(counterError))
		return summary
	}
	result, countError := tokenizer.CountFile(counter, summary.OutputPath)
	if countError != nil {
		env.logger.Warn("unable to count tokens", zap.String("path", summary.OutputPath), zap.Error(countError))
		return summary
	}
	if !result.Counted {
		env.logger.Warn("summary is not valid UTF-8, tokens not counted", zap.String("path", summary.OutputPath))
		return summary
	}
	summary.Tokens = result.Tokens
	summary.Model = resolvedModel
	env.logger.Info("token count", zap.Int("tokens", summary.Tokens), zap.String("model", summary.Model))
	return summary
}
