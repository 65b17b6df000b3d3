package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/citecheck/internal/authority"
	"github.com/ppiankov/citecheck/internal/extract"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/verify"
)

var (
	caseDir       string
	authCaseName  string
	authURL       string
	authNotes     string
	authorityJSON bool
)

// authorityCmd represents the authority command
var authorityCmd = &cobra.Command{
	Use:   "authority",
	Short: "Manage the verified authorities kept for a case",
	Long: `Authorities are verified citations recorded for a case folder, stored in
<case-dir>/.casekit/authorities.json.`,
}

var authorityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded authorities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		authorities, err := authority.NewStore(caseDir).Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if authorityJSON {
			return writeJSON(out, authorities)
		}
		if len(authorities) == 0 {
			fmt.Fprintln(out, "No authorities recorded.")
			return nil
		}
		for _, a := range authorities {
			name := ""
			if a.CaseName != nil {
				name = *a.CaseName
			}
			fmt.Fprintf(out, "%s  %-24s %s\n    %s\n", a.ID, a.Citation, name, a.URL)
		}
		return nil
	},
}

var authorityAddCmd = &cobra.Command{
	Use:   "add <citation>",
	Short: "Verify a citation and record it as an authority",
	Long: `Add looks the citation up and records its best match. With --url the given
judgment page is checked and recorded instead.

Example:
  citecheck authority add "[2019] UKSC 41" --case-name "R (Miller) v The Prime Minister"
  citecheck authority add "[1932] AC 562" --url https://www.bailii.org/uk/cases/UKHL/1932/100.html`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthorityAdd,
}

var authorityRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a recorded authority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remaining, err := authority.NewStore(caseDir).Remove(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s (%d remaining)\n", args[0], len(remaining))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authorityCmd)
	authorityCmd.AddCommand(authorityListCmd, authorityAddCmd, authorityRemoveCmd)

	authorityCmd.PersistentFlags().StringVar(&caseDir, "case-dir", ".", "case folder holding .casekit/authorities.json")
	authorityListCmd.Flags().BoolVar(&authorityJSON, "json", false, "print authorities as JSON")

	authorityAddCmd.Flags().StringVar(&authCaseName, "case-name", "", "case name to search with and record")
	authorityAddCmd.Flags().StringVar(&authURL, "url", "", "record this judgment URL instead of searching")
	authorityAddCmd.Flags().StringVar(&authNotes, "notes", "", "free-text notes")
	addLookupFlags(authorityAddCmd)
}

// parseCitation reads exactly one citation from user input
func parseCitation(input string) (model.ExtractedCitation, error) {
	found := extract.Extract(input)
	if len(found) != 1 {
		return model.ExtractedCitation{}, fmt.Errorf("%q is not a single UK case citation", input)
	}
	return found[0], nil
}

func runAuthorityAdd(cmd *cobra.Command, args []string) error {
	citation, err := parseCitation(args[0])
	if err != nil {
		return err
	}
	if authCaseName != "" {
		citation.CaseName = &authCaseName
	}

	cfg, err := lookupConfig(cmd)
	if err != nil {
		return err
	}
	stack, err := newLookupStack(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	ctx, stop := interruptibleContext(os.Stderr)
	defer stop()

	var verified model.VerifiedCitation
	if authURL != "" {
		check, err := stack.http.Client().CheckURL(ctx, authURL)
		if err != nil {
			return err
		}
		if !check.Exists {
			return fmt.Errorf("%s does not look like a judgment page (status %d)", authURL, check.StatusCode)
		}
		verified = manuallyVerified(citation, check, stack.http.Client().SourceFor(authURL))
	} else {
		citations := verify.Wrap([]model.ExtractedCitation{citation})
		if err := verify.Single(ctx, citations, 0, stack.resolver); err != nil {
			return err
		}
		verified = citations[0]
	}

	store := authority.NewStore(caseDir)
	a, err := store.FromVerified(verified, authNotes)
	if err != nil {
		if errors.Is(err, authority.ErrNoVerifiedCandidate) && verified.Error != nil {
			return fmt.Errorf("look up %s: %s", citation.Citation, *verified.Error)
		}
		if errors.Is(err, authority.ErrNoVerifiedCandidate) {
			return fmt.Errorf("no judgment found for %s; pass --url to record one by hand", citation.Citation)
		}
		return err
	}
	if _, err := store.Save(a); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %s as %s\n    %s\n", a.Citation, a.ID, a.URL)
	return nil
}

// manuallyVerified records a user-supplied judgment page as the only candidate
func manuallyVerified(c model.ExtractedCitation, check model.URLCheckResult, source string) model.VerifiedCitation {
	v := model.NewVerifiedCitation(c)
	v.Status = model.StatusVerified
	v.Resolution = &model.CitationResolution{
		Citation: c.Citation,
		CaseName: c.CaseName,
		Candidates: []model.ResolvedCandidate{{
			URL:              check.URL,
			Source:           source,
			Confidence:       1,
			Title:            check.Title,
			ResolutionMethod: "manual",
		}},
		Status:      model.ResolutionResolved,
		AttemptsLog: []string{"Recorded by hand: " + check.URL},
	}
	return v
}
