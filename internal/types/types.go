// Package types defines cross-package constants and the failure taxonomy
// shared by the repoprompt tool surface and its services.
package types

const (
	// ToolFilesToPrompt is the generic multi-input formatting tool.
	ToolFilesToPrompt = "files_to_prompt"
	// ToolRepoToPrompt is the single-repository convenience tool.
	ToolRepoToPrompt = "repo_to_prompt"

	// FormatDefault emits the formatter's plain concatenated output.
	FormatDefault = "default"
	// FormatCXML emits Claude-style XML document markup.
	FormatCXML = "cxml"
	// FormatMarkdown emits fenced Markdown blocks.
	FormatMarkdown = "markdown"
)

// IsSupportedOutputFormat reports whether the provided output format is one
// of the recognized formatter formats.
func IsSupportedOutputFormat(format string) bool {
	switch format {
	case FormatDefault, FormatCXML, FormatMarkdown:
		return true
	default:
		return false
	}
}
