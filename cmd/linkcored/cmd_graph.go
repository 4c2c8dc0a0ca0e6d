package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// graphCmd is the parent command for concept-graph inspection and
// maintenance.
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect and maintain the concept graph",
}

var graphGetMaxNodes int

var graphGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print a snapshot of the concept graph",
	RunE:  runGraphGet,
}

var graphActivateCmd = &cobra.Command{
	Use:   "activate [query]",
	Short: "Run spread activation for a query and print resulting concept weights",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphActivate,
}

var graphStrengthenDelta float64

var graphStrengthenCmd = &cobra.Command{
	Use:   "strengthen [concept-a] [concept-b]",
	Short: "Apply a Hebbian strengthening delta to an edge",
	Args:  cobra.ExactArgs(2),
	RunE:  runGraphStrengthen,
}

var graphReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild concept indexing from every stored fact",
	RunE:  runGraphReindex,
}

func init() {
	graphGetCmd.Flags().IntVar(&graphGetMaxNodes, "max-nodes", 100, "Maximum distinct concepts to include")
	graphStrengthenCmd.Flags().Float64Var(&graphStrengthenDelta, "delta", 0.1, "Strengthening delta to apply")
}

func runGraphGet(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.api.GetGraph(graphGetMaxNodes)
	if err != nil {
		return err
	}

	fmt.Printf("%d concepts, %d links (%d total)\n", len(snap.Nodes), len(snap.Links), snap.TotalLinks)
	sort.Slice(snap.Links, func(i, j int) bool { return snap.Links[i].Strength > snap.Links[j].Strength })
	for _, l := range snap.Links {
		fmt.Printf("  %s -- %s  strength=%.3f fires=%d\n", l.ConceptA, l.ConceptB, l.Strength, l.FireCount)
	}
	return nil
}

func runGraphActivate(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.api.Activate(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("input concepts: %v\n", result.InputConcepts)
	type row struct {
		concept string
		weight  float64
	}
	rows := make([]row, 0, len(result.Activation))
	for c, w := range result.Activation {
		rows = append(rows, row{c, w})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].weight > rows[j].weight })
	for _, r := range rows {
		fmt.Printf("  %-24s %.3f\n", r.concept, r.weight)
	}
	return nil
}

func runGraphStrengthen(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	strength, err := a.api.Strengthen(args[0], args[1], graphStrengthenDelta)
	if err != nil {
		return err
	}
	fmt.Printf("%s -- %s strength now %.3f\n", args[0], args[1], strength)
	return nil
}

func runGraphReindex(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	count, err := a.api.Reindex()
	if err != nil {
		return err
	}
	fmt.Printf("reindexed: %d links\n", count)
	return nil
}
