package formatter

import "github.com/repoprompt/repoprompt/internal/types"

// Flag spellings of the external files-to-prompt executable.
const (
	extensionFlag       = "-e"
	includeHiddenFlag   = "--include-hidden"
	ignorePatternFlag   = "--ignore"
	ignoreFilesOnlyFlag = "--ignore-files-only"
	ignoreGitignoreFlag = "--ignore-gitignore"
	cxmlFlag            = "--cxml"
	markdownFlag        = "--markdown"
	lineNumbersFlag     = "--line-numbers"
	outputFileFlag      = "-o"
)

// BuildArguments translates resolved paths and options into the external
// formatter's argument list. The translation is deterministic and
// order-preserving: paths first in input order, then options in a fixed
// order. Options left at their defaults emit no argument at all.
func BuildArguments(resolvedPaths []string, options Options) []string {
	arguments := make([]string, 0, len(resolvedPaths)+2*len(options.Extensions)+2*len(options.IgnorePatterns)+8)
	arguments = append(arguments, resolvedPaths...)

	for _, extension := range options.Extensions {
		arguments = append(arguments, extensionFlag, extension)
	}
	if options.IncludeHidden {
		arguments = append(arguments, includeHiddenFlag)
	}
	for _, ignorePattern := range options.IgnorePatterns {
		arguments = append(arguments, ignorePatternFlag, ignorePattern)
	}
	if options.IgnoreFilesOnly {
		arguments = append(arguments, ignoreFilesOnlyFlag)
	}
	if options.IgnoreGitignore {
		arguments = append(arguments, ignoreGitignoreFlag)
	}
	switch options.Format {
	case types.FormatCXML:
		arguments = append(arguments, cxmlFlag)
	case types.FormatMarkdown:
		arguments = append(arguments, markdownFlag)
	}
	if options.LineNumbers {
		arguments = append(arguments, lineNumbersFlag)
	}
	if options.OutputFile != "" {
		arguments = append(arguments, outputFileFlag, options.OutputFile)
	}
	return arguments
}
