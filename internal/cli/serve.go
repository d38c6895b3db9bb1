package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PaulDuvall/rules-engine/internal/server"
)

// NewServeCmd creates the 'serve' command: run the stdio JSON-RPC server
// that exposes the pipeline to a host process.
func NewServeCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the selection pipeline over stdio (JSON-RPC)",
		Long: `Start a line-delimited JSON-RPC 2.0 server on stdio.

Exposed methods:
  rules/select   - run the selection pipeline for {message, directory}
  rules/classify - classify a prompt
  context/detect - detect project context for a directory
  cache/stats    - content cache counters
  cache/clear    - drop all cached content`,
		Example: `  rules-engine serve --catalog rules.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(&flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (default ~/.rules-engine.json)")
	cmd.Flags().StringVar(&flags.catalogPath, "catalog", "", "Rule catalog YAML file")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// runServe starts the server with graceful shutdown on SIGINT/SIGTERM.
func runServe(flags *commonFlags) error {
	eng, recorder, err := flags.buildEngine(true)
	if err != nil {
		return err
	}
	if recorder != nil {
		defer recorder.Stop()
	}

	log, err := flags.buildLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(eng, os.Stdin, os.Stdout, log)
	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
