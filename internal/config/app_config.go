package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tyemirov/codesum/internal/utils"
)

const configurationType = "yaml"

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds configuration defaults read from YAML files.
type ApplicationConfiguration struct {
	Aggregate AggregateConfiguration `mapstructure:"aggregate"`
}

// AggregateConfiguration defines defaults for the summary run.
type AggregateConfiguration struct {
	Root      string             `mapstructure:"root"`
	Output    string             `mapstructure:"output"`
	Project   string             `mapstructure:"project"`
	Decoding  string             `mapstructure:"decoding"`
	GitIgnore *bool              `mapstructure:"gitignore"`
	Clipboard *bool              `mapstructure:"copy"`
	Tokens    TokenConfiguration `mapstructure:"tokens"`
	Rules     RulesConfiguration `mapstructure:"rules"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// RulesConfiguration configures which directories and files are selected.
// A nil list keeps the built-in default; an empty list clears it.
type RulesConfiguration struct {
	ExcludeDirectories []string `mapstructure:"exclude_dirs"`
	ExcludeFiles       []string `mapstructure:"exclude_files"`
	Extensions         []string `mapstructure:"extensions"`
	Exclude            []string `mapstructure:"exclude"`
	ExcludeFrom        string   `mapstructure:"exclude_from"`
}

// LoadApplicationConfiguration loads configuration from the global and local
// files. Values from the local file override global ones.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	if merged.Aggregate.Rules.Exclude != nil {
		merged.Aggregate.Rules.Exclude = utils.DeduplicatePatterns(merged.Aggregate.Rules.Exclude)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName)
}

// loadConfigurationFromPath reads one YAML file. A missing file yields an
// empty configuration unless required is set.
func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType(configurationType)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	config.Aggregate.Rules.ExcludeFrom = resolveRelativeTo(filepath.Dir(path), config.Aggregate.Rules.ExcludeFrom)
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Aggregate = result.Aggregate.merge(override.Aggregate)
	return result
}

func (config AggregateConfiguration) merge(override AggregateConfiguration) AggregateConfiguration {
	result := config
	if override.Root != "" {
		result.Root = override.Root
	}
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Project != "" {
		result.Project = override.Project
	}
	if override.Decoding != "" {
		result.Decoding = override.Decoding
	}
	if override.GitIgnore != nil {
		result.GitIgnore = cloneBool(override.GitIgnore)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	result.Rules = result.Rules.merge(override.Rules)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config RulesConfiguration) merge(override RulesConfiguration) RulesConfiguration {
	result := config
	if override.ExcludeDirectories != nil {
		result.ExcludeDirectories = append([]string{}, override.ExcludeDirectories...)
	}
	if override.ExcludeFiles != nil {
		result.ExcludeFiles = append([]string{}, override.ExcludeFiles...)
	}
	if override.Extensions != nil {
		result.Extensions = append([]string{}, override.Extensions...)
	}
	if override.Exclude != nil {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	if override.ExcludeFrom != "" {
		result.ExcludeFrom = override.ExcludeFrom
	}
	return result
}

func resolveRelativeTo(baseDirectory, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDirectory, path)
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
