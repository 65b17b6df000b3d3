package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/pipeline"
	"github.com/ppiankov/citecheck/internal/resolve"
	"github.com/ppiankov/citecheck/internal/source"
)

// lookupStack is the HTTP resolver, optionally behind the resolution cache
type lookupStack struct {
	resolver resolve.Resolver
	http     *resolve.HTTPResolver
	cache    *cache.LayeredCache
}

func newLookupStack(cfg *model.Config) (*lookupStack, error) {
	httpResolver := resolve.NewHTTPResolver(cfg)
	stack := &lookupStack{resolver: httpResolver, http: httpResolver}
	if !cfg.Cache.Enabled {
		return stack, nil
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	stack.cache = c
	stack.resolver = resolve.NewCachedResolver(httpResolver, c)
	return stack, nil
}

// Close releases the cache
func (s *lookupStack) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

// newPipeline builds a pipeline reading files, stdin and judgment URLs
func (s *lookupStack) newPipeline(cfg *model.Config) *pipeline.Pipeline {
	fetcher := pipeline.NewFetcher(source.NewRegistry(), s.http.Client(), os.Stdin)
	return pipeline.NewPipeline(cfg, fetcher, s.resolver)
}

// inputsOrStdin reads stdin when no inputs are named
func inputsOrStdin(args []string) []string {
	if len(args) == 0 {
		return []string{pipeline.StdinInput}
	}
	return args
}

// interruptibleContext is cancelled by the first interrupt; a second one exits
func interruptibleContext(w io.Writer) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-done:
			return
		}
		fmt.Fprintln(w, "\nInterrupted: finishing the current lookup (Ctrl-C again to quit)")
		cancel()

		select {
		case <-sigCh:
			os.Exit(130)
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}

// isInterrupted reports whether err came from a cancelled run
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// progressPrinter draws "Verifying (i/n)" lines, redrawing in place on a terminal
type progressPrinter struct {
	w         io.Writer
	tty       bool
	citations []model.ExtractedCitation
	drawn     bool
}

func newProgressPrinter(w io.Writer, tty bool, citations []model.ExtractedCitation) *progressPrinter {
	return &progressPrinter{w: w, tty: tty, citations: citations}
}

// stderrProgress writes progress to stderr
func stderrProgress(citations []model.ExtractedCitation) *progressPrinter {
	return newProgressPrinter(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), citations)
}

// Update reports that item pr.Current is about to be looked up
func (p *progressPrinter) Update(pr model.Progress) {
	line := fmt.Sprintf("Verifying (%d/%d)", pr.Current, pr.Total)
	if i := pr.Current - 1; i >= 0 && i < len(p.citations) {
		line += " " + p.citations[i].Citation
	}

	if p.tty {
		fmt.Fprintf(p.w, "\r\033[K%s", line)
		p.drawn = true
		return
	}
	fmt.Fprintln(p.w, line)
}

// Done clears the progress line
func (p *progressPrinter) Done() {
	if p.drawn {
		fmt.Fprint(p.w, "\r\033[K")
		p.drawn = false
	}
}
