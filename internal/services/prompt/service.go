// Package prompt orchestrates the full pipeline behind both public tools:
// input resolution, formatter invocation, optional token counting, and the
// textual error contract at the tool boundary.
package prompt

import (
	"context"

	"go.uber.org/zap"

	"github.com/repoprompt/repoprompt/internal/formatter"
	"github.com/repoprompt/repoprompt/internal/tokenizer"
	"github.com/repoprompt/repoprompt/internal/types"
)

const (
	// errorRunningPrefix renders pipeline failures at the tool boundary.
	errorRunningPrefix = "Error running files_to_prompt: "
	// genericErrorPrefix renders failures without a pipeline classification.
	genericErrorPrefix = "Error: "
)

// InputResolver resolves mixed inputs to local paths.
type InputResolver interface {
	ResolveAll(ctx context.Context, inputs []string) ([]string, error)
}

// TokenOptions controls optional token counting of the produced output.
type TokenOptions struct {
	Enabled bool
	Model   string
}

// Request describes one prompt generation.
type Request struct {
	Inputs  []string
	Options formatter.Options
	Tokens  TokenOptions
}

// TokenCount reports the tokens of the produced output for one model.
type TokenCount struct {
	Count int
	Model string
}

// Result is a successful generation outcome.
type Result struct {
	Output string
	Tokens *TokenCount
}

// Service wires the resolver and formatter into the two public operations.
type Service struct {
	resolver  InputResolver
	formatter formatter.Formatter
	logger    *zap.Logger
}

// NewService constructs a Service. A nil logger is replaced by a no-op.
func NewService(resolver InputResolver, promptFormatter formatter.Formatter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, formatter: promptFormatter, logger: logger}
}

// Generate resolves the request inputs, runs the formatter over the
// resolved paths, and optionally counts tokens of the produced output.
// Failures carry a types.Failure classification.
func (service *Service) Generate(ctx context.Context, request Request) (Result, error) {
	if len(request.Inputs) == 0 {
		return Result{}, types.NewFailure(types.FailureInvalidInput, nil, "paths must not be empty")
	}
	options := request.Options.Normalized()
	if validationError := options.Validate(); validationError != nil {
		return Result{}, validationError
	}

	resolvedPaths, resolveError := service.resolver.ResolveAll(ctx, request.Inputs)
	if resolveError != nil {
		return Result{}, resolveError
	}

	output, formatError := service.formatter.Format(ctx, resolvedPaths, options)
	if formatError != nil {
		return Result{}, formatError
	}

	result := Result{Output: output}
	if request.Tokens.Enabled {
		result.Tokens = service.countTokens(output, request.Tokens.Model)
	}
	return result, nil
}

// countTokens estimates the token count of the produced output. Counting is
// advisory: failures are logged and the report is omitted, never failing a
// generation that already succeeded.
func (service *Service) countTokens(output string, model string) *TokenCount {
	counter, resolvedModel, counterError := tokenizer.NewCounter(model)
	if counterError != nil {
		service.logger.Warn("tokenizer unavailable", zap.String("model", model), zap.Error(counterError))
		return nil
	}
	tokenTotal, countError := counter.CountString(output)
	if countError != nil {
		service.logger.Warn("token counting failed", zap.String("model", resolvedModel), zap.Error(countError))
		return nil
	}
	return &TokenCount{Count: tokenTotal, Model: resolvedModel}
}

// ErrorText renders a generation failure as the error-shaped text returned
// to tool callers: classified pipeline failures get the operation-specific
// prefix, anything else the generic one. The tool surface always produces a
// textual response; failures never propagate past the dispatcher boundary.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	if _, classified := types.FailureKindOf(err); classified {
		return errorRunningPrefix + err.Error()
	}
	return genericErrorPrefix + err.Error()
}
