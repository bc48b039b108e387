// Package formatter defines the contract around the external
// files-to-prompt executable: the options record, deterministic argument
// construction, and the process orchestration that captures its output.
package formatter

import (
	"context"
	"strings"

	"github.com/repoprompt/repoprompt/internal/types"
)

// Options is the structured request record for one formatter invocation.
// Empty collections and strings mean "unset": the corresponding argument
// is omitted entirely.
type Options struct {
	// Extensions restricts output to files with these extensions, without
	// leading dots. Case-sensitive.
	Extensions []string
	// IncludeHidden includes hidden files and directories.
	IncludeHidden bool
	// IgnorePatterns excludes paths matching these glob patterns.
	IgnorePatterns []string
	// IgnoreFilesOnly applies IgnorePatterns to files but not directories.
	IgnoreFilesOnly bool
	// IgnoreGitignore disables .gitignore exclusion rules.
	IgnoreGitignore bool
	// Format selects the output flavor: default, cxml, or markdown.
	Format string
	// LineNumbers annotates output with line numbers.
	LineNumbers bool
	// OutputFile asks the formatter to also write its output to this path.
	OutputFile string
}

// Normalized returns a copy with blank collection elements dropped, blank
// strings trimmed, and an empty format promoted to the default. The
// boundary delivers empty rather than absent values; normalization turns
// empty back into unset before any argument is built.
func (options Options) Normalized() Options {
	normalized := options
	normalized.Extensions = withoutBlankElements(options.Extensions)
	normalized.IgnorePatterns = withoutBlankElements(options.IgnorePatterns)
	normalized.Format = strings.TrimSpace(options.Format)
	if normalized.Format == "" {
		normalized.Format = types.FormatDefault
	}
	normalized.OutputFile = strings.TrimSpace(options.OutputFile)
	return normalized
}

// Validate rejects unknown output formats before any I/O happens.
func (options Options) Validate() error {
	if !types.IsSupportedOutputFormat(options.Format) {
		return types.NewFailure(types.FailureInvalidInput, nil,
			"invalid output_format %q: must be one of %s, %s, %s",
			options.Format, types.FormatDefault, types.FormatCXML, types.FormatMarkdown)
	}
	return nil
}

// Formatter is the capability of turning a set of local paths into one
// concatenated text artifact. The external-process runner is the production
// implementation; tests substitute fakes.
type Formatter interface {
	Format(ctx context.Context, paths []string, options Options) (string, error)
}

// FormatterFunc adapts a function into a Formatter.
type FormatterFunc func(ctx context.Context, paths []string, options Options) (string, error)

// Format invokes the underlying function.
func (formatter FormatterFunc) Format(ctx context.Context, paths []string, options Options) (string, error) {
	return formatter(ctx, paths, options)
}

func withoutBlankElements(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	var kept []string
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return kept
}
