package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/okian/linemate/internal/domain/pairing"
	"github.com/okian/linemate/internal/printer"
)

var (
	pairingsLimit  int
	pairingsReset  bool
	pairingsOutput string

	pairingsLedger *ledgerFlags
)

var pairingsCmd = &cobra.Command{
	Use:   "pairings",
	Short: "Show who has played together most often",
	Long: `Pairings lists the most frequent pairs in the Redis pairing ledger.

Examples:
  linemate pairings --limit 20
  linemate pairings --redis redis:6379 --namespace club
  linemate pairings --reset`,
	Args: cobra.NoArgs,
	RunE: runPairings,
}

func init() {
	pairingsCmd.Flags().IntVarP(&pairingsLimit, "limit", "l", 10, "Number of pairs to show (0 shows all)")
	pairingsCmd.Flags().BoolVar(&pairingsReset, "reset", false, "Clear the ledger")
	pairingsCmd.Flags().StringVarP(&pairingsOutput, "output", "o", "text", "Output format: text or json")
	pairingsLedger = addRedisFlags(pairingsCmd, "localhost:6379")

	rootCmd.AddCommand(pairingsCmd)
}

func runPairings(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ledger, err := pairingsLedger.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ledger.Close() }()

	if pairingsReset {
		if err := ledger.Reset(ctx); err != nil {
			return printer.Error("Cannot reset the ledger", err.Error(), nil)
		}
		printer.Success(out, "Cleared pairings in %s\n", ledger.Key())
		return nil
	}

	counts, err := ledger.Snapshot(ctx)
	if err != nil {
		return printer.Error("Cannot read the ledger", err.Error(), nil)
	}
	recs := pairing.Top(counts, pairingsLimit)
	if pairingsOutput == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	printer.Pairings(out, recs)
	return nil
}
