// Package mcp exposes citation extraction and verification to AI assistants
// as Model Context Protocol tools, so a drafted answer can be checked before
// its citations are relied on.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/citecheck/internal/pipeline"
	"github.com/ppiankov/citecheck/internal/resolve"
)

var (
	// ErrMissingPipeline is returned when no pipeline is provided
	ErrMissingPipeline = errors.New("mcp: pipeline is required")

	// ErrMissingResolver is returned when no resolver is provided
	ErrMissingResolver = errors.New("mcp: resolver is required")
)

// Server is the citecheck MCP server
type Server struct {
	pipeline *pipeline.Pipeline
	resolver resolve.Resolver
	server   *mcp.Server

	// lookups stay sequential across concurrent tool calls
	verifyMu sync.Mutex
}

// NewServer creates a server verifying through p and resolving through r
func NewServer(p *pipeline.Pipeline, r resolve.Resolver, version string) (*Server, error) {
	if p == nil {
		return nil, ErrMissingPipeline
	}
	if r == nil {
		return nil, ErrMissingResolver
	}

	s := &Server{
		pipeline: p,
		resolver: r,
		server:   mcp.NewServer(&mcp.Implementation{Name: "citecheck", Version: version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}
