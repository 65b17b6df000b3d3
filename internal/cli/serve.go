package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/server"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve extraction and verification over HTTP",
	Long: `Serve starts a JSON API for editors and other tools:

  GET  /healthz
  POST /v1/extract   {"subject": "...", "text": "..."}
  POST /v1/verify    {"subject": "...", "text": "..."}
  POST /v1/resolve   {"citation": "...", "case_name": "..."}

Verification requests are handled one at a time so lookups stay sequential.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (default from config)")
	addLookupFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := lookupConfig(cmd)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}

	stack, err := newLookupStack(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	fmt.Fprintf(os.Stderr, "citecheck listening on http://%s\n", cfg.Server.Addr)
	return server.New(cfg.Server, stack.newPipeline(cfg), stack.resolver).ListenAndServe(ctx)
}
