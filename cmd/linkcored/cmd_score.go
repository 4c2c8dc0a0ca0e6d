package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkcore/internal/scoring"
)

var scoreProfile string

// scoreCmd prints the full per-dimension score breakdown for every fact
// under a profile against a query, the CLI mirror of the score.breakdown
// wire endpoint.
var scoreCmd = &cobra.Command{
	Use:   "score [query]",
	Short: "Score every fact under a profile against a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreProfile, "profile", "primary_user", "Profile to score facts from")
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	facts, err := a.store.ListFactsByProfile(scoreProfile)
	if err != nil {
		return err
	}
	if len(facts) == 0 {
		fmt.Printf("no facts for profile %q\n", scoreProfile)
		return nil
	}

	scored, err := a.api.Score(cmd.Context(), args[0], facts)
	degraded := err != nil
	if degraded {
		fmt.Printf("warning: %v (keyword-only fallback)\n", err)
	}

	printScored(scored)
	return nil
}

func printScored(scored []scoring.ScoredFact) {
	for _, sf := range scored {
		fmt.Printf("%-32s final=%.3f  embed=%.3f cooc=%.3f spread=%.3f kw=%.3f\n",
			sf.Fact.Key, sf.Final,
			sf.Breakdown.Embedding, sf.Breakdown.Cooccurrence, sf.Breakdown.Spread, sf.Breakdown.Keyword)
	}
}
