package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/pipeline"
	"github.com/ppiankov/citecheck/internal/resolve"
	"github.com/ppiankov/citecheck/internal/source"
)

var extractJSON bool

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [files or judgment URLs...]",
	Short: "List the UK case citations found in documents",
	Long: `Extract lists every UK neutral citation and law report citation in the
inputs, with the case name read from the preceding text where it is safe
to attribute one. Nothing is looked up.

Example:
  citecheck extract skeleton.md
  citecheck extract judgment.html --json`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print citations as JSON")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// extraction never resolves, so no resolver is wired
	fetcher := pipeline.NewFetcher(source.NewRegistry(), resolve.NewClient(cfg), os.Stdin)
	p := pipeline.NewPipeline(cfg, fetcher, nil)

	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	ex, err := p.Extract(ctx, inputsOrStdin(args))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if extractJSON {
		return writeJSON(out, ex.Citations)
	}
	printCitations(out, ex.Citations)
	return nil
}

func printCitations(w io.Writer, citations []model.ExtractedCitation) {
	if len(citations) == 0 {
		fmt.Fprintln(w, "No citations found.")
		return
	}
	for i, c := range citations {
		kind := "report"
		if c.IsNeutral {
			kind = "neutral"
		}
		fmt.Fprintf(w, "%3d. %-28s %-8s %s\n", i+1, c.Citation, kind, c.CaseNameOrEmpty())
	}
}
