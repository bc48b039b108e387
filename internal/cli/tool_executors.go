package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/repoprompt/repoprompt/internal/formatter"
	"github.com/repoprompt/repoprompt/internal/services/mcp"
	"github.com/repoprompt/repoprompt/internal/services/prompt"
	"github.com/repoprompt/repoprompt/internal/types"
)

// promptGenerator is the slice of the prompt service the executors need.
type promptGenerator interface {
	Generate(ctx context.Context, request prompt.Request) (prompt.Result, error)
}

// filesToPromptRequest is the JSON payload of the generic formatting tool.
// Collection fields default to empty, meaning "no restriction".
type filesToPromptRequest struct {
	Paths              []string       `json:"paths"`
	Extensions         []string       `json:"extensions"`
	IncludeHidden      bool           `json:"include_hidden"`
	IgnorePatterns     []string       `json:"ignore_patterns"`
	IgnoreFilesOnly    bool           `json:"ignore_files_only"`
	IgnoreGitignore    bool           `json:"ignore_gitignore"`
	OutputFormat       string         `json:"output_format"`
	IncludeLineNumbers bool           `json:"include_line_numbers"`
	OutputFile         string         `json:"output_file"`
	Tokens             *tokensRequest `json:"tokens"`
}

// repoToPromptRequest is the JSON payload of the single-repository tool.
type repoToPromptRequest struct {
	RepositoryURL      string         `json:"repo_url"`
	Extensions         []string       `json:"extensions"`
	IncludeHidden      bool           `json:"include_hidden"`
	IgnorePatterns     []string       `json:"ignore_patterns"`
	IgnoreFilesOnly    bool           `json:"ignore_files_only"`
	IgnoreGitignore    bool           `json:"ignore_gitignore"`
	OutputFormat       string         `json:"output_format"`
	IncludeLineNumbers bool           `json:"include_line_numbers"`
	OutputFile         string         `json:"output_file"`
	Tokens             *tokensRequest `json:"tokens"`
}

type tokensRequest struct {
	Enabled bool   `json:"enabled"`
	Model   string `json:"model"`
}

// toolExecutors maps tool names to their executors.
func toolExecutors(generator promptGenerator) map[string]mcp.ToolExecutor {
	return map[string]mcp.ToolExecutor{
		types.ToolFilesToPrompt: mcp.ToolExecutorFunc(func(ctx context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
			return executeFilesToPrompt(ctx, generator, request)
		}),
		types.ToolRepoToPrompt: mcp.ToolExecutorFunc(func(ctx context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
			return executeRepoToPrompt(ctx, generator, request)
		}),
	}
}

func executeFilesToPrompt(ctx context.Context, generator promptGenerator, request mcp.ToolRequest) (mcp.ToolResponse, error) {
	var payload filesToPromptRequest
	if len(request.Payload) > 0 {
		if decodeError := json.Unmarshal(request.Payload, &payload); decodeError != nil {
			return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("decode %s request: %w", types.ToolFilesToPrompt, decodeError))
		}
	}
	if len(payload.Paths) == 0 {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("paths must not be empty"))
	}

	promptRequest := prompt.Request{
		Inputs: payload.Paths,
		Options: formatter.Options{
			Extensions:      payload.Extensions,
			IncludeHidden:   payload.IncludeHidden,
			IgnorePatterns:  payload.IgnorePatterns,
			IgnoreFilesOnly: payload.IgnoreFilesOnly,
			IgnoreGitignore: payload.IgnoreGitignore,
			Format:          payload.OutputFormat,
			LineNumbers:     payload.IncludeLineNumbers,
			OutputFile:      payload.OutputFile,
		},
		Tokens: tokenOptionsFromRequest(payload.Tokens),
	}
	return respondWithGeneration(ctx, generator, promptRequest)
}

func executeRepoToPrompt(ctx context.Context, generator promptGenerator, request mcp.ToolRequest) (mcp.ToolResponse, error) {
	var payload repoToPromptRequest
	if len(request.Payload) > 0 {
		if decodeError := json.Unmarshal(request.Payload, &payload); decodeError != nil {
			return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("decode %s request: %w", types.ToolRepoToPrompt, decodeError))
		}
	}
	repositoryURL := strings.TrimSpace(payload.RepositoryURL)
	if repositoryURL == "" {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf("repo_url is required"))
	}
	outputFormat := payload.OutputFormat
	if strings.TrimSpace(outputFormat) == "" {
		outputFormat = types.FormatMarkdown
	}

	promptRequest := prompt.Request{
		Inputs: []string{repositoryURL},
		Options: formatter.Options{
			Extensions:      payload.Extensions,
			IncludeHidden:   payload.IncludeHidden,
			IgnorePatterns:  payload.IgnorePatterns,
			IgnoreFilesOnly: payload.IgnoreFilesOnly,
			IgnoreGitignore: payload.IgnoreGitignore,
			Format:          outputFormat,
			LineNumbers:     payload.IncludeLineNumbers,
			OutputFile:      payload.OutputFile,
		},
		Tokens: tokenOptionsFromRequest(payload.Tokens),
	}
	return respondWithGeneration(ctx, generator, promptRequest)
}

// respondWithGeneration runs a generation and shapes the tool response.
// Invalid input is a dispatcher-level rejection; every other failure is
// rendered as error-shaped text inside a successful response, so the tool
// always answers.
func respondWithGeneration(ctx context.Context, generator promptGenerator, request prompt.Request) (mcp.ToolResponse, error) {
	result, generateError := generator.Generate(ctx, request)
	if generateError != nil {
		if failureKind, classified := types.FailureKindOf(generateError); classified && failureKind == types.FailureInvalidInput {
			return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, generateError)
		}
		return mcp.ToolResponse{Output: prompt.ErrorText(generateError)}, nil
	}
	response := mcp.ToolResponse{Output: result.Output}
	if result.Tokens != nil {
		response.Tokens = &mcp.TokenReport{Count: result.Tokens.Count, Model: result.Tokens.Model}
	}
	return response, nil
}

func tokenOptionsFromRequest(request *tokensRequest) prompt.TokenOptions {
	if request == nil {
		return prompt.TokenOptions{}
	}
	return prompt.TokenOptions{Enabled: request.Enabled, Model: request.Model}
}
