package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/pipeline"
	"github.com/ppiankov/citecheck/internal/score"
)

var (
	outJSON   string
	outMD     string
	timeout   time.Duration
	rps       float64
	noCache   bool
	noFooter  bool
	strict    bool
	robots    bool
	userAgent string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [files or judgment URLs...]",
	Short: "Extract citations and check each one against BAILII and Find Case Law",
	Long: `Verify extracts every UK case citation from the inputs and looks each one up,
one at a time, against BAILII and the National Archives' Find Case Law.

Inputs may be text, Markdown or HTML files, judgment URLs, or "-" for stdin.
With no inputs, stdin is read.

Ctrl-C stops after the lookup in progress; the report then covers the
citations already checked.

Example:
  citecheck verify skeleton.md
  citecheck verify skeleton.md --json report.json --md report.md
  pbpaste | citecheck verify --json -`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&outJSON, "json", "", `write JSON report to path ("-" for stdout)`)
	verifyCmd.Flags().StringVar(&outMD, "md", "", `write Markdown report to path ("-" for stdout)`)
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "omit the footer in Markdown reports")
	verifyCmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero unless every citation verified")
	addLookupFlags(verifyCmd)
}

// addLookupFlags registers the flags shared by every command that goes online
func addLookupFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request HTTP timeout (default from config)")
	cmd.Flags().Float64Var(&rps, "rps", 0, "requests per second per host (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the resolution cache")
	cmd.Flags().BoolVar(&robots, "robots", false, "honour robots.txt")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
}

// lookupConfig loads configuration and applies lookup flag overrides
func lookupConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if flags.Changed("rps") {
		cfg.RateLimiting.RequestsPerSecond = rps
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("robots") {
		cfg.HTTP.RespectRobots = robots
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	return cfg, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := lookupConfig(cmd)
	if err != nil {
		return err
	}

	stack, err := newLookupStack(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	p := stack.newPipeline(cfg)
	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	ex, err := p.Extract(ctx, inputsOrStdin(args))
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d citations from %s\n", len(ex.Citations), ex.Subject)
	}

	progress := stderrProgress(ex.Citations)
	report, runErr := p.Verify(ctx, ex, progress.Update)
	progress.Done()

	if runErr != nil {
		if !isInterrupted(runErr) {
			return fmt.Errorf("verify: %w", runErr)
		}
		fmt.Fprintf(os.Stderr, "Stopped early: %d of %d citations not checked\n", report.Summary.Pending, report.Summary.Total)
	}

	if err := p.RenderReport(cmd.OutOrStdout(), report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if runErr != nil {
		return runErr
	}
	if strict && (report.Summary.Verified != report.Summary.Total) {
		return fmt.Errorf("%d of %d citations not verified (risk: %s)",
			report.Summary.Total-report.Summary.Verified, report.Summary.Total, report.Summary.RiskLevel)
	}
	if report.Summary.RiskLevel == score.RiskHigh && outJSON != pipeline.StdoutPath && outMD != pipeline.StdoutPath {
		fmt.Fprintln(os.Stderr, "Some citations could not be found. Check them by hand before relying on them.")
	}
	return nil
}
