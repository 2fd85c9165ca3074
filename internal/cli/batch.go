package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"claimcheck/internal/model"
	"claimcheck/internal/worker"
)

var (
	concurrency  int
	outputPath   string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple claims from a file in parallel",
	Long: `Batch verifies many claims concurrently:
- Read claims from the input file (one per line, # comments allowed)
- Run claims in parallel under a bounded worker count
- All workers share one quota ledger, rate limiter, and cache
- Results keep the input order regardless of completion order

Example:
  claimcheck batch claims.txt
  claimcheck batch claims.txt --concurrency 10 --output results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (0 = config default)")
	batchCmd.Flags().StringVar(&outputPath, "output", "", "write results JSON to a file instead of stdout")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache (force recomputation)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	claims, err := worker.ReadClaimsFromFile(file)
	if err != nil {
		return fmt.Errorf("read claims: %w", err)
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims found in %s", file)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Verbose = verbose

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.BatchWorkers
	}

	fmt.Fprintf(os.Stderr, "⚙️  Verifying %d claims with %d workers...\n\n", len(claims), workers)

	bundles := a.coordinator.VerifyBatch(ctx, claims, workers)

	verdictCounts := make(map[model.Verdict]int)
	for _, b := range bundles {
		verdictCounts[b.Verdict]++
		mark := "✓"
		if b.Provenance.Reason != model.ReasonNone && b.Verdict == model.VerdictInsufficient {
			mark = "✗"
		}
		fmt.Fprintf(os.Stderr, "%s [%s] %s\n", mark, b.Verdict, b.Claim.Text)
	}

	fmt.Fprintf(os.Stderr, "\n  Total:        %d claims\n", len(bundles))
	fmt.Fprintf(os.Stderr, "  True:         %d\n", verdictCounts[model.VerdictTrue])
	fmt.Fprintf(os.Stderr, "  False:        %d\n", verdictCounts[model.VerdictFalse])
	fmt.Fprintf(os.Stderr, "  Insufficient: %d\n\n", verdictCounts[model.VerdictInsufficient])

	data, err := json.MarshalIndent(bundles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Results written to %s\n", outputPath)
		return nil
	}

	fmt.Println(string(data))
	return nil
}
