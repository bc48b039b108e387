// Package mcp exposes registered tools over an HTTP dispatcher: clients
// list tool descriptors and invoke tools with JSON payloads. Tool
// executors supply the behavior; the server only routes, decodes, and
// shapes responses.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	headerContentType       = "Content-Type"
	mimeTypeJSON            = "application/json"
	toolsPath               = "/tools"
	rootPath                = "/"
	toolsPrefix             = "/tools/"
	errorFieldName          = "error"
	errorToolNotFound       = "tool not found"
)

// ToolDescriptor describes one tool exposed by the server.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolRequest holds the raw payload supplied by clients together with an
// invocation identifier for log correlation.
type ToolRequest struct {
	InvocationID string
	Payload      json.RawMessage
}

// ToolResponse contains the outcome of a tool invocation. Output carries
// the produced text; failures from the core arrive as error-shaped text in
// Output rather than as dispatcher faults.
type ToolResponse struct {
	Output string       `json:"output"`
	Tokens *TokenReport `json:"tokens,omitempty"`
}

// TokenReport summarizes a token count of the produced output.
type TokenReport struct {
	Count int    `json:"count"`
	Model string `json:"model"`
}

// ToolExecutor executes one tool against an incoming request.
type ToolExecutor interface {
	Execute(ctx context.Context, request ToolRequest) (ToolResponse, error)
}

// ToolExecutorFunc adapts a function into a ToolExecutor.
type ToolExecutorFunc func(context.Context, ToolRequest) (ToolResponse, error)

// Execute invokes the underlying function.
func (executor ToolExecutorFunc) Execute(ctx context.Context, request ToolRequest) (ToolResponse, error) {
	return executor(ctx, request)
}

// ToolExecutionError is a dispatcher-level rejection carrying an HTTP
// status code. Only malformed requests produce it; core failures travel
// inside successful ToolResponses.
type ToolExecutionError struct {
	statusCode int
	err        error
}

// Error returns the error string.
func (executionError ToolExecutionError) Error() string {
	return executionError.err.Error()
}

// Unwrap exposes the wrapped error.
func (executionError ToolExecutionError) Unwrap() error {
	return executionError.err
}

// StatusCode reports the associated HTTP status code.
func (executionError ToolExecutionError) StatusCode() int {
	return executionError.statusCode
}

// NewToolExecutionError creates a new ToolExecutionError.
func NewToolExecutionError(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return ToolExecutionError{statusCode: statusCode, err: err}
}

// Config defines runtime options for the tool server.
type Config struct {
	Address         string
	Tools           []ToolDescriptor
	Executors       map[string]ToolExecutor
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Server serves tool metadata and dispatches tool invocations over HTTP.
type Server struct {
	config Config
}

// NewServer creates a new Server with defaults applied.
func NewServer(config Config) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.Tools == nil {
		normalized.Tools = []ToolDescriptor{}
	}
	if normalized.Executors == nil {
		normalized.Executors = map[string]ToolExecutor{}
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	return Server{config: normalized}
}

// Run starts the tool server and blocks until the provided context is
// canceled. The notify callback receives the bound address once the
// listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenError := net.Listen("tcp", server.config.Address)
	if listenError != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenError)
	}
	actualAddress := listener.Addr().String()

	router := http.NewServeMux()
	router.HandleFunc(toolsPath, server.handleToolList)
	router.HandleFunc(rootPath, server.handleRoot)
	router.HandleFunc(toolsPrefix, server.handleToolInvocation)

	httpServer := &http.Server{Handler: router}
	group, groupContext := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveError := httpServer.Serve(listener)
		if serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
			return fmt.Errorf("serve tools: %w", serveError)
		}
		return nil
	})

	if notify != nil {
		notify(actualAddress)
	}
	server.config.Logger.Info("tool server listening", zap.String("address", actualAddress))

	group.Go(func() error {
		<-groupContext.Done()
		shutdownContext, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownError := httpServer.Shutdown(shutdownContext)
		if shutdownError != nil && !errors.Is(shutdownError, context.Canceled) && !errors.Is(shutdownError, http.ErrServerClosed) {
			return fmt.Errorf("shutdown tools: %w", shutdownError)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) handleToolList(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	payload := struct {
		Tools []ToolDescriptor `json:"tools"`
	}{Tools: server.config.Tools}
	server.writeJSON(writer, http.StatusOK, payload)
}

func (server Server) handleRoot(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (server Server) handleToolInvocation(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	toolName := strings.TrimPrefix(request.URL.Path, toolsPrefix)
	if toolName == "" || strings.Contains(toolName, "/") {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorToolNotFound})
		return
	}
	executor, found := server.config.Executors[toolName]
	if !found {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorToolNotFound})
		return
	}
	body, readError := io.ReadAll(request.Body)
	if readError != nil {
		server.writeJSON(writer, http.StatusBadRequest, map[string]string{errorFieldName: fmt.Sprintf("read request body: %v", readError)})
		return
	}

	invocationID := uuid.NewString()
	invocationLogger := server.config.Logger.With(
		zap.String("tool", toolName),
		zap.String("invocation_id", invocationID))
	invocationLogger.Info("tool invocation received")

	toolRequest := ToolRequest{InvocationID: invocationID, Payload: json.RawMessage(body)}
	toolResponse, executeError := executor.Execute(request.Context(), toolRequest)
	if executeError != nil {
		invocationLogger.Warn("tool request rejected", zap.Error(executeError))
		statusCode := server.statusCodeFromError(executeError)
		server.writeJSON(writer, statusCode, map[string]string{errorFieldName: executeError.Error()})
		return
	}
	invocationLogger.Info("tool invocation completed", zap.Int("output_bytes", len(toolResponse.Output)))
	server.writeJSON(writer, http.StatusOK, toolResponse)
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload any) {
	var buffer bytes.Buffer
	if encodeError := json.NewEncoder(&buffer).Encode(payload); encodeError != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeError)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

func (server Server) statusCodeFromError(err error) int {
	var executionError ToolExecutionError
	if errors.As(err, &executionError) {
		return executionError.StatusCode()
	}
	return http.StatusInternalServerError
}
