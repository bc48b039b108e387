package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/repoprompt/repoprompt/internal/services/mcp"
	"github.com/repoprompt/repoprompt/internal/types"
)

const (
	serveUse              = "serve"
	serveShortDescription = "run the tool server"
	serveLongDescription  = `Run the HTTP tool server until interrupted.
The server exposes the files_to_prompt and repo_to_prompt tools; clients
list descriptors at /tools and invoke a tool by POSTing JSON to
/tools/<name>.`

	addressFlagName      = "address"
	addressFlagUsage     = "listen address"
	defaultServeAddress  = "127.0.0.1:8137"
	serverStoppedMessage = "tool server stopped"
)

// createServeCommand returns the serve subcommand.
func createServeCommand(configFilePath *string) *cobra.Command {
	var listenAddress string

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Long:  serveLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, runtimeError := newToolRuntime(*configFilePath)
			if runtimeError != nil {
				return runtimeError
			}
			if !command.Flags().Changed(addressFlagName) && runtime.configuration.Serve.Address != "" {
				listenAddress = runtime.configuration.Serve.Address
			}

			serveContext, stop := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := mcp.NewServer(mcp.Config{
				Address:   listenAddress,
				Tools:     toolDescriptors(),
				Executors: toolExecutors(runtime.service),
				Logger:    runtime.logger,
			})
			runError := server.Run(serveContext, nil)
			runtime.logger.Info(serverStoppedMessage)
			return runError
		},
	}

	serveCommand.Flags().StringVar(&listenAddress, addressFlagName, defaultServeAddress, addressFlagUsage)
	return serveCommand
}

// toolDescriptors lists the public tools.
func toolDescriptors() []mcp.ToolDescriptor {
	return []mcp.ToolDescriptor{
		{
			Name:        types.ToolFilesToPrompt,
			Description: "Concatenate local paths and git repository URLs into a single prompt",
		},
		{
			Name:        types.ToolRepoToPrompt,
			Description: "Concatenate one git repository into a Markdown prompt",
		},
	}
}
