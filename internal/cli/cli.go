// Package cli provides the command line interface and the tool executors
// registered with the dispatcher.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/repoprompt/repoprompt/internal/cache"
	"github.com/repoprompt/repoprompt/internal/config"
	"github.com/repoprompt/repoprompt/internal/formatter"
	"github.com/repoprompt/repoprompt/internal/giturl"
	"github.com/repoprompt/repoprompt/internal/resolve"
	"github.com/repoprompt/repoprompt/internal/services/clipboard"
	"github.com/repoprompt/repoprompt/internal/services/prompt"
	"github.com/repoprompt/repoprompt/internal/types"
	"github.com/repoprompt/repoprompt/internal/utils"
)

const (
	rootUse              = "repoprompt"
	rootShortDescription = "repoprompt command line interface"
	rootLongDescription  = `repoprompt concatenates files and repositories into a single prompt.
Inputs may be local paths or remote git URLs; remote repositories are cloned
once into a durable cache and reused on later runs. The actual concatenation
is delegated to the external files-to-prompt executable.`

	packUse              = "pack [inputs...]"
	packAlias            = "p"
	packShortDescription = "format local paths and repository URLs into one prompt (" + packAlias + ")"
	packLongDescription  = `Format a mixed list of local paths and remote repository URLs.
Remote repositories are resolved through the clone cache before the external
formatter runs over the whole set in input order.`
	packUsageExample = `  # Concatenate a local directory and a remote repository as Markdown
  repoprompt pack ./src https://github.com/spf13/cobra --format markdown

  # Only Python and Markdown files, with line numbers
  repoprompt pack . -e py -e md --line-numbers`

	repoUse              = "repo <url>"
	repoAlias            = "r"
	repoShortDescription = "format a single remote repository (" + repoAlias + ")"
	repoLongDescription  = `Clone (or reuse) a single remote repository and format it.
Output defaults to Markdown.`
	repoUsageExample = `  # Produce a Markdown prompt for one repository
  repoprompt repo https://github.com/spf13/cobra`

	configFlagName          = "config"
	configFlagDescription   = "path to a configuration file"
	versionFlagName         = "version"
	versionFlagDescription  = "display application version"
	versionTemplate         = "repoprompt version: %s\n"
	extensionFlagName       = "extension"
	extensionFlagShorthand  = "e"
	extensionFlagUsage      = "only include files with this extension (repeatable)"
	includeHiddenFlagName   = "include-hidden"
	includeHiddenFlagUsage  = "include hidden files and directories"
	ignoreFlagName          = "ignore"
	ignoreFlagUsage         = "exclude paths matching this glob pattern (repeatable)"
	ignoreFilesOnlyFlagName = "ignore-files-only"
	ignoreFilesOnlyUsage    = "apply ignore patterns to files but not directories"
	ignoreGitignoreFlagName = "ignore-gitignore"
	ignoreGitignoreUsage    = "do not honor .gitignore rules"
	formatFlagName          = "format"
	formatFlagUsage         = "output format: default, cxml, or markdown"
	lineNumbersFlagName     = "line-numbers"
	lineNumbersFlagUsage    = "annotate output with line numbers"
	outputFileFlagName      = "output"
	outputFileFlagShorthand = "o"
	outputFileFlagUsage     = "also write the output to this file"
	tokensFlagName          = "tokens"
	tokensFlagUsage         = "report the token count of the produced prompt"
	modelFlagName           = "model"
	modelFlagUsage          = "tokenizer model used for token counting"
	copyFlagName            = "copy"
	copyFlagUsage           = "copy the produced prompt to the system clipboard"

	tokenReportFormat    = "tokens: %d (%s)\n"
	clipboardCopyWarning = "copy to clipboard failed"
)

// formatterFlags mirrors formatter.Options as CLI flags.
type formatterFlags struct {
	extensions      []string
	includeHidden   bool
	ignorePatterns  []string
	ignoreFilesOnly bool
	ignoreGitignore bool
	format          string
	lineNumbers     bool
	outputFile      string
}

func (flags formatterFlags) toOptions() formatter.Options {
	return formatter.Options{
		Extensions:      flags.extensions,
		IncludeHidden:   flags.includeHidden,
		IgnorePatterns:  flags.ignorePatterns,
		IgnoreFilesOnly: flags.ignoreFilesOnly,
		IgnoreGitignore: flags.ignoreGitignore,
		Format:          flags.format,
		LineNumbers:     flags.lineNumbers,
		OutputFile:      flags.outputFile,
	}
}

func addFormatterFlags(command *cobra.Command, flags *formatterFlags, defaultFormat string) {
	command.Flags().StringArrayVarP(&flags.extensions, extensionFlagName, extensionFlagShorthand, nil, extensionFlagUsage)
	command.Flags().BoolVar(&flags.includeHidden, includeHiddenFlagName, false, includeHiddenFlagUsage)
	command.Flags().StringArrayVar(&flags.ignorePatterns, ignoreFlagName, nil, ignoreFlagUsage)
	command.Flags().BoolVar(&flags.ignoreFilesOnly, ignoreFilesOnlyFlagName, false, ignoreFilesOnlyUsage)
	command.Flags().BoolVar(&flags.ignoreGitignore, ignoreGitignoreFlagName, false, ignoreGitignoreUsage)
	command.Flags().StringVar(&flags.format, formatFlagName, defaultFormat, formatFlagUsage)
	command.Flags().BoolVar(&flags.lineNumbers, lineNumbersFlagName, false, lineNumbersFlagUsage)
	command.Flags().StringVarP(&flags.outputFile, outputFileFlagName, outputFileFlagShorthand, "", outputFileFlagUsage)
}

// tokenFlags mirrors prompt.TokenOptions as CLI flags.
type tokenFlags struct {
	enabled bool
	model   string
}

func addTokenFlags(command *cobra.Command, flags *tokenFlags) {
	command.Flags().BoolVar(&flags.enabled, tokensFlagName, false, tokensFlagUsage)
	command.Flags().StringVar(&flags.model, modelFlagName, "", modelFlagUsage)
}

// toolRuntime bundles the assembled pipeline behind every command.
type toolRuntime struct {
	configuration config.ApplicationConfiguration
	service       *prompt.Service
	copier        clipboard.Copier
	logger        *zap.Logger
}

// newToolRuntime loads configuration and assembles the resolution and
// formatting pipeline.
func newToolRuntime(configFilePath string) (*toolRuntime, error) {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return nil, fmt.Errorf("determine working directory: %w", workingDirectoryError)
	}
	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: configFilePath,
	})
	if configurationError != nil {
		return nil, configurationError
	}
	logger, loggerError := utils.NewApplicationLogger()
	if loggerError != nil {
		return nil, fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}

	cloner := cache.NewGitCloner("", configuration.EffectiveCloneTimeout())
	store, storeError := cache.NewStore(cache.StoreOptions{
		RootDirectory:   configuration.EffectiveCacheRoot(workingDirectory),
		DirectoryPrefix: configuration.Cache.Prefix,
		Cloner:          cloner,
		Logger:          logger,
	})
	if storeError != nil {
		return nil, storeError
	}
	inputResolver := resolve.NewResolver(giturl.IsRemoteReference, store)
	commandRunner := formatter.NewCommandRunner(formatter.RunnerOptions{
		Executable: configuration.Formatter.Executable,
		Timeout:    configuration.EffectiveFormatterTimeout(),
		Logger:     logger,
	})
	service := prompt.NewService(inputResolver, commandRunner, logger)

	return &toolRuntime{
		configuration: configuration,
		service:       service,
		copier:        clipboard.NewService(),
		logger:        logger,
	}, nil
}

// Execute runs the repoprompt application.
func Execute() error {
	rootCommand := createRootCommand()
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var showVersion bool
	var configFilePath string

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		createPackCommand(&configFilePath),
		createRepoCommand(&configFilePath),
		createServeCommand(&configFilePath),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createPackCommand returns the generic multi-input formatting subcommand.
func createPackCommand(configFilePath *string) *cobra.Command {
	var flags formatterFlags
	var tokens tokenFlags
	var copyEnabled bool

	packCommand := &cobra.Command{
		Use:     packUse,
		Aliases: []string{packAlias},
		Short:   packShortDescription,
		Long:    packLongDescription,
		Example: packUsageExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, runtimeError := newToolRuntime(*configFilePath)
			if runtimeError != nil {
				return runtimeError
			}
			applyCommandDefaults(command, runtime.configuration.Pack, &flags, &tokens, &copyEnabled)
			return runOneShot(command, runtime, arguments, flags, tokens, copyEnabled)
		},
	}

	addFormatterFlags(packCommand, &flags, types.FormatDefault)
	addTokenFlags(packCommand, &tokens)
	packCommand.Flags().BoolVar(&copyEnabled, copyFlagName, false, copyFlagUsage)
	return packCommand
}

// createRepoCommand returns the single-repository convenience subcommand.
func createRepoCommand(configFilePath *string) *cobra.Command {
	var flags formatterFlags
	var tokens tokenFlags
	var copyEnabled bool

	repoCommand := &cobra.Command{
		Use:     repoUse,
		Aliases: []string{repoAlias},
		Short:   repoShortDescription,
		Long:    repoLongDescription,
		Example: repoUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, runtimeError := newToolRuntime(*configFilePath)
			if runtimeError != nil {
				return runtimeError
			}
			applyCommandDefaults(command, runtime.configuration.Repo, &flags, &tokens, &copyEnabled)
			return runOneShot(command, runtime, []string{arguments[0]}, flags, tokens, copyEnabled)
		},
	}

	// The single-repository form renders Markdown unless told otherwise.
	addFormatterFlags(repoCommand, &flags, types.FormatMarkdown)
	addTokenFlags(repoCommand, &tokens)
	repoCommand.Flags().BoolVar(&copyEnabled, copyFlagName, false, copyFlagUsage)
	return repoCommand
}

// applyCommandDefaults overlays configuration-file defaults onto flags the
// caller did not set explicitly.
func applyCommandDefaults(
	command *cobra.Command,
	defaults config.CommandConfiguration,
	flags *formatterFlags,
	tokens *tokenFlags,
	copyEnabled *bool,
) {
	if defaults.Format != "" && !command.Flags().Changed(formatFlagName) {
		flags.format = defaults.Format
	}
	if defaults.Tokens.Enabled != nil && !command.Flags().Changed(tokensFlagName) {
		tokens.enabled = *defaults.Tokens.Enabled
	}
	if defaults.Tokens.Model != "" && !command.Flags().Changed(modelFlagName) {
		tokens.model = defaults.Tokens.Model
	}
	if defaults.Copy != nil && !command.Flags().Changed(copyFlagName) {
		*copyEnabled = *defaults.Copy
	}
}

// runOneShot generates a prompt for the provided inputs and renders it to
// standard output, with optional token reporting and clipboard copy.
func runOneShot(
	command *cobra.Command,
	runtime *toolRuntime,
	inputs []string,
	flags formatterFlags,
	tokens tokenFlags,
	copyEnabled bool,
) error {
	request := prompt.Request{
		Inputs:  inputs,
		Options: flags.toOptions(),
		Tokens:  prompt.TokenOptions{Enabled: tokens.enabled, Model: tokens.model},
	}
	result, generateError := runtime.service.Generate(command.Context(), request)
	if generateError != nil {
		return generateError
	}

	fmt.Fprint(command.OutOrStdout(), result.Output)
	if result.Tokens != nil {
		fmt.Fprintf(command.ErrOrStderr(), tokenReportFormat, result.Tokens.Count, result.Tokens.Model)
	}
	if copyEnabled && strings.TrimSpace(result.Output) != "" {
		if copyError := runtime.copier.Copy(result.Output); copyError != nil {
			runtime.logger.Warn(clipboardCopyWarning, zap.Error(copyError))
		}
	}
	return nil
}
