// Package config loads application configuration from global and local
// files, merging the local file over the global one. Pointer-typed fields
// distinguish "unset" from an explicit false or zero.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/repoprompt/repoprompt/internal/cache"
	"github.com/repoprompt/repoprompt/internal/formatter"
)

const (
	// ConfigFileName is the per-project configuration file.
	ConfigFileName = ".repoprompt.yaml"
	// GlobalConfigDirectoryName holds the user-wide configuration.
	GlobalConfigDirectoryName = ".repoprompt"
	// GlobalConfigFileName is the file inside the global directory.
	GlobalConfigFileName = "config.yaml"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds every configurable default.
type ApplicationConfiguration struct {
	Cache     CacheConfiguration     `mapstructure:"cache"`
	Formatter FormatterConfiguration `mapstructure:"formatter"`
	Serve     ServeConfiguration     `mapstructure:"serve"`
	Pack      CommandConfiguration   `mapstructure:"pack"`
	Repo      CommandConfiguration   `mapstructure:"repo"`
}

// CacheConfiguration configures the repository cache.
type CacheConfiguration struct {
	Root                string `mapstructure:"root"`
	Prefix              string `mapstructure:"prefix"`
	CloneTimeoutSeconds *int   `mapstructure:"clone_timeout_seconds"`
}

// FormatterConfiguration configures the external formatter invocation.
type FormatterConfiguration struct {
	Executable     string `mapstructure:"executable"`
	TimeoutSeconds *int   `mapstructure:"timeout_seconds"`
}

// ServeConfiguration configures the tool server.
type ServeConfiguration struct {
	Address string `mapstructure:"address"`
}

// CommandConfiguration defines per-command defaults for pack and repo.
type CommandConfiguration struct {
	Format string             `mapstructure:"format"`
	Tokens TokenConfiguration `mapstructure:"tokens"`
	Copy   *bool              `mapstructure:"copy"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from the global file and
// a local file, the local overlaying the global.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, GlobalConfigDirectoryName, GlobalConfigFileName)
		globalConfiguration, loadError := loadConfigurationFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfiguration)
	}

	localPath, resolveError := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveError != nil {
		return ApplicationConfiguration{}, resolveError
	}
	if localPath != "" {
		localConfiguration, loadError := loadConfigurationFromPath(localPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(localConfiguration)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	pathInformation, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statError)
	}
	if pathInformation.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readError := reader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readError)
	}
	var configuration ApplicationConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeError)
	}
	return configuration, nil
}

// Merge overlays override onto the receiver returning the combined
// configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	result.Cache = result.Cache.merge(override.Cache)
	result.Formatter = result.Formatter.merge(override.Formatter)
	result.Serve = result.Serve.merge(override.Serve)
	result.Pack = result.Pack.merge(override.Pack)
	result.Repo = result.Repo.merge(override.Repo)
	return result
}

func (configuration CacheConfiguration) merge(override CacheConfiguration) CacheConfiguration {
	result := configuration
	if override.Root != "" {
		result.Root = override.Root
	}
	if override.Prefix != "" {
		result.Prefix = override.Prefix
	}
	if override.CloneTimeoutSeconds != nil {
		result.CloneTimeoutSeconds = cloneInt(override.CloneTimeoutSeconds)
	}
	return result
}

func (configuration FormatterConfiguration) merge(override FormatterConfiguration) FormatterConfiguration {
	result := configuration
	if override.Executable != "" {
		result.Executable = override.Executable
	}
	if override.TimeoutSeconds != nil {
		result.TimeoutSeconds = cloneInt(override.TimeoutSeconds)
	}
	return result
}

func (configuration ServeConfiguration) merge(override ServeConfiguration) ServeConfiguration {
	result := configuration
	if override.Address != "" {
		result.Address = override.Address
	}
	return result
}

func (configuration CommandConfiguration) merge(override CommandConfiguration) CommandConfiguration {
	result := configuration
	if override.Format != "" {
		result.Format = override.Format
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	if override.Copy != nil {
		result.Copy = cloneBool(override.Copy)
	}
	return result
}

func (configuration TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := configuration
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// EffectiveCacheRoot resolves the cache root directory: the configured root
// (made absolute against the working directory) or the working directory
// itself, matching the durable default of keeping clones next to the
// process.
func (configuration ApplicationConfiguration) EffectiveCacheRoot(workingDirectory string) string {
	root := configuration.Cache.Root
	if root == "" {
		return workingDirectory
	}
	if filepath.IsAbs(root) {
		return root
	}
	return filepath.Join(workingDirectory, root)
}

// EffectiveCloneTimeout resolves the clone timeout.
func (configuration ApplicationConfiguration) EffectiveCloneTimeout() time.Duration {
	if configuration.Cache.CloneTimeoutSeconds != nil && *configuration.Cache.CloneTimeoutSeconds > 0 {
		return time.Duration(*configuration.Cache.CloneTimeoutSeconds) * time.Second
	}
	return cache.DefaultCloneTimeout
}

// EffectiveFormatterTimeout resolves the formatter invocation timeout.
func (configuration ApplicationConfiguration) EffectiveFormatterTimeout() time.Duration {
	if configuration.Formatter.TimeoutSeconds != nil && *configuration.Formatter.TimeoutSeconds > 0 {
		return time.Duration(*configuration.Formatter.TimeoutSeconds) * time.Second
	}
	return formatter.DefaultInvocationTimeout
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
