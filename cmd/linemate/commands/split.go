package commands

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/okian/linemate/internal/adapters/rosterfile"
	service "github.com/okian/linemate/internal/app"
	"github.com/okian/linemate/internal/domain/lines"
	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/internal/printer"
)

var (
	splitForwards        int
	splitDefense         int
	splitTrials          int
	splitWeight          float64
	splitSeed            int64
	splitPolicy          string
	splitAllowIncomplete bool
	splitEveryone        bool
	splitFinalize        bool
	splitOutput          string

	splitLedger *ledgerFlags
)

var splitCmd = &cobra.Command{
	Use:   "split ROSTER_FILE",
	Short: "Split the present players into two balanced teams",
	Long: `Split reads a CSV or YAML roster and builds two teams of two forward
lines and two defense pairs from the players marked present.

With --redis the split avoids pairings recorded in the ledger, and
--finalize records the result so the next split steers away from it.

Examples:
  # Split tonight's roster
  linemate split roster.csv

  # Reproducible split, everyone on the roster plays
  linemate split roster.yaml --all --seed 42

  # Use and update the shared pairing ledger
  linemate split roster.csv --redis localhost:6379 --finalize`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	d := service.DefaultSplit()
	splitCmd.Flags().IntVar(&splitForwards, "forwards", d.ForwardsTotal, "Number of forwards to place")
	splitCmd.Flags().IntVar(&splitDefense, "defense", d.DefenseTotal, "Number of defensemen to place")
	splitCmd.Flags().IntVar(&splitTrials, "trials", d.Trials, "Randomized line-building trials per role")
	splitCmd.Flags().Float64Var(&splitWeight, "weight", d.PenaltyWeight, "Weight of the repeated-pairing penalty")
	splitCmd.Flags().Int64Var(&splitSeed, "seed", 0, "Random seed (0 picks one)")
	splitCmd.Flags().StringVar(&splitPolicy, "policy", string(d.Policy), "Leftover policy: drop, undersized or error")
	splitCmd.Flags().BoolVar(&splitAllowIncomplete, "allow-incomplete", false, "Accept lines that are short of players")
	splitCmd.Flags().BoolVar(&splitEveryone, "all", false, "Treat every roster player as present")
	splitCmd.Flags().BoolVar(&splitFinalize, "finalize", false, "Record the split in the pairing ledger (needs --redis)")
	splitCmd.Flags().StringVarP(&splitOutput, "output", "o", "text", "Output format: text or json")
	splitLedger = addRedisFlags(splitCmd, "")

	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if splitOutput != "text" && splitOutput != "json" {
		return printer.Error("Unknown output format", fmt.Sprintf("--output %q is not text or json", splitOutput), nil)
	}
	if splitFinalize && splitLedger.addr == "" {
		return printer.Error("Nowhere to record the split", "--finalize needs a pairing ledger", []string{"Pass --redis with the ledger address"})
	}
	policy, err := lines.ParsePolicy(splitPolicy)
	if err != nil {
		return printer.Error("Unknown leftover policy", err.Error(), []string{"Use drop, undersized or error"})
	}

	players, err := rosterfile.Load(args[0])
	if err != nil {
		return printer.Error("Cannot read roster", err.Error(), []string{"Check the file exists and has a name,attack,defense,present header"})
	}
	if splitEveryone {
		players = lo.Map(players, func(p model.Player, _ int) model.Player {
			p.Present = true
			return p
		})
	}

	opts := []service.Option{
		service.WithRoster(players),
		service.WithSplitDefaults(service.SplitDefaults{
			ForwardsTotal:   splitForwards,
			DefenseTotal:    splitDefense,
			Trials:          splitTrials,
			PenaltyWeight:   splitWeight,
			Policy:          policy,
			AllowIncomplete: splitAllowIncomplete,
		}),
	}
	if splitSeed != 0 {
		opts = append(opts, service.WithFixedSeed(splitSeed))
	}
	if splitLedger.addr != "" {
		ledger, err := splitLedger.open(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithLedger(ledger))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return printer.Error("Cannot start", err.Error(), nil)
	}
	defer svc.Stop()

	split, err := svc.ComputeSplit(ctx, service.SplitRequest{})
	if err != nil {
		return printer.Error("Cannot build the teams", err.Error(), []string{
			"Mark more players present",
			"Pass --allow-incomplete to accept short lines",
		})
	}

	if splitOutput == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(split); err != nil {
			return err
		}
	} else {
		printer.Split(out, split)
	}

	if splitFinalize {
		if _, err := svc.Finalize(ctx, service.FinalizeRequest{SplitID: split.ID}); err != nil {
			return printer.Error("Cannot record the split", err.Error(), nil)
		}
		if splitOutput == "text" {
			printer.Success(out, "Recorded split %s\n", split.ID)
		}
	}
	return nil
}
