package mcp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/repoprompt/repoprompt/internal/services/mcp"
)

type serverHarness struct {
	address string
	cancel  context.CancelFunc
	done    chan error
}

func startServer(t *testing.T, config mcp.Config) *serverHarness {
	t.Helper()

	serverContext, cancel := context.WithCancel(context.Background())
	addressChannel := make(chan string, 1)
	done := make(chan error, 1)

	server := mcp.NewServer(config)
	go func() {
		done <- server.Run(serverContext, func(boundAddress string) {
			addressChannel <- boundAddress
		})
	}()

	var boundAddress string
	select {
	case boundAddress = <-addressChannel:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatalf("server did not report a bound address")
	}

	harness := &serverHarness{address: boundAddress, cancel: cancel, done: done}
	t.Cleanup(func() {
		harness.cancel()
		select {
		case runError := <-harness.done:
			if runError != nil {
				t.Errorf("server run: %v", runError)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("server did not shut down")
		}
	})
	return harness
}

func (harness *serverHarness) url(path string) string {
	return fmt.Sprintf("http://%s%s", harness.address, path)
}

func TestServerListsRegisteredTools(t *testing.T) {
	t.Parallel()

	harness := startServer(t, mcp.Config{
		Tools: []mcp.ToolDescriptor{
			{Name: "files_to_prompt", Description: "format local paths and repositories"},
			{Name: "repo_to_prompt", Description: "format one repository as markdown"},
		},
	})

	response, requestError := http.Get(harness.url("/tools"))
	if requestError != nil {
		t.Fatalf("list tools: %v", requestError)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", response.StatusCode)
	}

	var listing struct {
		Tools []mcp.ToolDescriptor `json:"tools"`
	}
	if decodeError := json.NewDecoder(response.Body).Decode(&listing); decodeError != nil {
		t.Fatalf("decode listing: %v", decodeError)
	}
	if len(listing.Tools) != 2 {
		t.Fatalf("tool count = %d", len(listing.Tools))
	}
	if listing.Tools[0].Name != "files_to_prompt" || listing.Tools[1].Name != "repo_to_prompt" {
		t.Fatalf("tool names = %+v", listing.Tools)
	}
}

func TestServerInvokesExecutorAndReturnsResponse(t *testing.T) {
	t.Parallel()

	var receivedPayload string
	harness := startServer(t, mcp.Config{
		Executors: map[string]mcp.ToolExecutor{
			"echo": mcp.ToolExecutorFunc(func(_ context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
				receivedPayload = string(request.Payload)
				if request.InvocationID == "" {
					return mcp.ToolResponse{}, errors.New("missing invocation id")
				}
				return mcp.ToolResponse{Output: "echoed"}, nil
			}),
		},
	})

	response, requestError := http.Post(harness.url("/tools/echo"), "application/json", bytes.NewBufferString(`{"value": 7}`))
	if requestError != nil {
		t.Fatalf("invoke tool: %v", requestError)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", response.StatusCode)
	}

	var toolResponse mcp.ToolResponse
	if decodeError := json.NewDecoder(response.Body).Decode(&toolResponse); decodeError != nil {
		t.Fatalf("decode response: %v", decodeError)
	}
	if toolResponse.Output != "echoed" {
		t.Fatalf("output = %q", toolResponse.Output)
	}
	if receivedPayload != `{"value": 7}` {
		t.Fatalf("payload = %q", receivedPayload)
	}
}

func TestServerReportsExecutorStatusCode(t *testing.T) {
	t.Parallel()

	harness := startServer(t, mcp.Config{
		Executors: map[string]mcp.ToolExecutor{
			"strict": mcp.ToolExecutorFunc(func(context.Context, mcp.ToolRequest) (mcp.ToolResponse, error) {
				return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, errors.New("paths must not be empty"))
			}),
		},
	})

	response, requestError := http.Post(harness.url("/tools/strict"), "application/json", bytes.NewBufferString(`{}`))
	if requestError != nil {
		t.Fatalf("invoke tool: %v", requestError)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", response.StatusCode)
	}

	var faultBody map[string]string
	if decodeError := json.NewDecoder(response.Body).Decode(&faultBody); decodeError != nil {
		t.Fatalf("decode fault: %v", decodeError)
	}
	if faultBody["error"] != "paths must not be empty" {
		t.Fatalf("fault = %q", faultBody["error"])
	}
}

func TestServerRejectsUnknownTool(t *testing.T) {
	t.Parallel()

	harness := startServer(t, mcp.Config{})

	response, requestError := http.Post(harness.url("/tools/unknown"), "application/json", bytes.NewBufferString(`{}`))
	if requestError != nil {
		t.Fatalf("invoke tool: %v", requestError)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", response.StatusCode)
	}
}

func TestServerRejectsWrongMethod(t *testing.T) {
	t.Parallel()

	harness := startServer(t, mcp.Config{})

	response, requestError := http.Get(harness.url("/tools/anything"))
	if requestError != nil {
		t.Fatalf("request: %v", requestError)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", response.StatusCode)
	}
}
