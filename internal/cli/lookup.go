package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/source"
)

var (
	lookupJSON   bool
	searchSource string
	fetchRaw     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <citation>",
	Short: "Look up one citation and show every strategy tried",
	Example: `  citecheck resolve "[2019] UKSC 41"
  citecheck resolve "[1932] AC 562" --case-name "Donoghue v Stevenson"`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search BAILII or Find Case Law for judgments by party names",
	Example: `  citecheck search "donoghue stevenson"
  citecheck search "patel mirza" --source fcl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var checkCmd = &cobra.Command{
	Use:   "check <url>...",
	Short: "Check that judgment URLs lead to real judgment pages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a judgment and print its text",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(resolveCmd, searchCmd, checkCmd, fetchCmd)

	resolveCmd.Flags().StringVar(&authCaseName, "case-name", "", "case name to search with")
	resolveCmd.Flags().BoolVar(&lookupJSON, "json", false, "print the resolution as JSON")
	searchCmd.Flags().StringVar(&searchSource, "source", "bailii", "source to search: bailii or fcl")
	searchCmd.Flags().BoolVar(&lookupJSON, "json", false, "print candidates as JSON")
	checkCmd.Flags().BoolVar(&lookupJSON, "json", false, "print results as JSON")
	fetchCmd.Flags().BoolVar(&fetchRaw, "raw", false, "print the page as served instead of its text")

	for _, cmd := range []*cobra.Command{resolveCmd, searchCmd, checkCmd, fetchCmd} {
		addLookupFlags(cmd)
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	citation, err := parseCitation(args[0])
	if err != nil {
		return err
	}
	if authCaseName != "" {
		citation.CaseName = &authCaseName
	}

	stack, err := openStack(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	res, err := stack.resolver.Resolve(ctx, citation.Citation, citation.CaseName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if lookupJSON {
		return writeJSON(out, res)
	}
	fmt.Fprintf(out, "%s: %s\n\n", res.Citation, res.Status)
	for _, line := range res.AttemptsLog {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
	printCandidates(out, res.Candidates)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	stack, err := openStack(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	query := strings.Join(args, " ")
	var candidates []model.ResolvedCandidate
	switch searchSource {
	case "bailii":
		candidates, err = stack.http.SearchBailii(ctx, query)
	case "fcl", "find_case_law":
		candidates, err = stack.http.SearchFindCaseLaw(ctx, query)
	default:
		return fmt.Errorf("unknown source %q (want bailii or fcl)", searchSource)
	}
	if err != nil {
		return err
	}

	if lookupJSON {
		return writeJSON(cmd.OutOrStdout(), candidates)
	}
	printCandidates(cmd.OutOrStdout(), candidates)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	stack, err := openStack(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	results, err := stack.http.Client().CheckURLs(ctx, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if lookupJSON {
		return writeJSON(out, results)
	}
	missing := 0
	for _, r := range results {
		if !r.Exists {
			missing++
			fmt.Fprintf(out, "✗ %s (status %d)\n", r.URL, r.StatusCode)
			continue
		}
		title := ""
		if r.Title != nil {
			title = "  " + *r.Title
		}
		fmt.Fprintf(out, "✓ %s%s\n", r.URL, title)
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d URLs are not judgment pages", missing, len(results))
	}
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	stack, err := openStack(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	judgment, err := stack.http.Client().FetchJudgment(ctx, args[0])
	if err != nil {
		return err
	}
	if !judgment.OK {
		return fmt.Errorf("fetch %s: page not available", args[0])
	}

	out := cmd.OutOrStdout()
	if fetchRaw {
		_, err := io.WriteString(out, judgment.Content)
		return err
	}
	text, err := source.NewRegistry().Text("", judgment.ContentType, []byte(judgment.Content))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

func openStack(cmd *cobra.Command) (*lookupStack, error) {
	cfg, err := lookupConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newLookupStack(cfg)
}

func printCandidates(w io.Writer, candidates []model.ResolvedCandidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return
	}
	for i, c := range candidates {
		title := ""
		if c.Title != nil {
			title = *c.Title
		}
		fmt.Fprintf(w, "%d. [%.2f] %s\n   %s (%s, %s)\n", i+1, c.Confidence, title, c.URL, c.Source, c.ResolutionMethod)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
