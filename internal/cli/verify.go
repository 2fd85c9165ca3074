package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"claimcheck/internal/model"
)

var (
	verifyTimeout time.Duration
	noCache       bool
	noRetrieval   bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a single claim",
	Long: `Verify runs one claim through the full pipeline:
- Classify the claim into a domain (politics, economics, health)
- Retrieve archived evidence for that domain
- Search the web when local evidence is insufficient
- Analyze the evidence and extract a verdict

Example:
  claimcheck verify "GDP grew 5% last quarter"
  claimcheck verify "GDP grew 5% last quarter" --no-cache
  claimcheck verify "the new vaccine is 95% effective" --timeout 2m`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "overall verification timeout")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache (force recomputation)")
	verifyCmd.Flags().BoolVar(&noRetrieval, "no-retrieval", false, "skip local retrieval (always search)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	claim := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noRetrieval {
		cfg.Retrieval.Enabled = false
	}
	cfg.Output.Verbose = verbose

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", claim)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n\n", verifyTimeout)
	}

	bundle := a.engine.Verify(ctx, claim)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Domain: %s\n", bundle.Domain)
		if bundle.Provenance.CacheHit {
			fmt.Fprintf(os.Stderr, "✓ Served from cache\n")
		}
		if bundle.Provenance.SearchProvider != "" {
			fmt.Fprintf(os.Stderr, "✓ Searched via %s\n", bundle.Provenance.SearchProvider)
		}
		if bundle.Provenance.Reason != model.ReasonNone {
			fmt.Fprintf(os.Stderr, "! Degraded: %s\n", bundle.Provenance.Reason)
		}
		fmt.Fprintln(os.Stderr)
	}

	return printBundle(bundle)
}
