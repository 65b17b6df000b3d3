package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/mcp"
)

var mcpHTTPAddr string

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as a Model Context Protocol server",
	Long: `Run citecheck as an MCP server so AI assistants can check the case
citations in their own drafts before presenting them.

Tools: extract_citations, verify_citations, resolve_citation.

Serves over stdio by default; use --http to serve the streamable HTTP transport.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve over HTTP on this address instead of stdio")
	addLookupFlags(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := lookupConfig(cmd)
	if err != nil {
		return err
	}

	stack, err := newLookupStack(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	srv, err := mcp.NewServer(stack.newPipeline(cfg), stack.resolver, Version)
	if err != nil {
		return err
	}

	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	if mcpHTTPAddr != "" {
		fmt.Fprintf(os.Stderr, "citecheck MCP listening on http://%s\n", mcpHTTPAddr)
		return srv.RunHTTP(ctx, mcpHTTPAddr)
	}
	return srv.Run(ctx)
}
