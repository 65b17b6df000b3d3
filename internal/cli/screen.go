package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/source"
	"github.com/ppiankov/citecheck/internal/worker"
)

var (
	concurrency int
	listFile    string
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen [files...]",
	Short: "Find which documents contain case citations",
	Long: `Screen reads many documents in parallel and reports which ones contain at
least one UK case citation, without extracting or verifying them. Use it to
pick the documents worth a full "citecheck verify".

Example:
  citecheck screen bundle/*.md
  citecheck screen --list paths.txt --concurrency 8`,
	RunE: runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent readers (default from config)")
	screenCmd.Flags().StringVar(&listFile, "list", "", "file listing document paths, one per line")
}

func runScreen(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && listFile == "" {
		return fmt.Errorf("name documents to screen or pass --list")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workers := cfg.Concurrency.ScreenWorkers
	if cmd.Flags().Changed("concurrency") {
		workers = concurrency
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	paths := args
	if listFile != "" {
		listed, err := worker.ReadPathsFromFile(listFile)
		if err != nil {
			return fmt.Errorf("read list: %w", err)
		}
		paths = append(paths, listed...)
	}

	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	registry := source.NewRegistry()
	results := worker.NewScreener(registry.LoadFile, workers).ScreenPaths(ctx, paths)

	return printScreenResults(cmd.OutOrStdout(), results)
}

func printScreenResults(w io.Writer, results []*worker.ScreenResult) error {
	var withCitations, without, failed int
	for _, r := range results {
		switch {
		case r.Error != nil:
			failed++
			fmt.Fprintf(w, "✗ %s: %v\n", r.Path, r.Error)
		case r.HasCitations:
			withCitations++
			fmt.Fprintf(w, "✓ %s\n", r.Path)
		default:
			without++
			fmt.Fprintf(w, "· %s\n", r.Path)
		}
	}

	fmt.Fprintf(w, "\n%d with citations, %d without, %d failed\n", withCitations, without, failed)
	if failed > 0 {
		return fmt.Errorf("%d documents could not be screened", failed)
	}
	return nil
}
