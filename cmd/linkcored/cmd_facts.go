package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkcore/internal/store"
)

// factsCmd is the parent command for reading and writing stored facts.
var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "List, upsert, and delete stored facts",
}

var factsListProfile string

var factsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List facts under a profile",
	RunE:  runFactsList,
}

var (
	factsUpsertProfile string
	factsUpsertKey     string
	factsUpsertKind    string
	factsUpsertV1      string
	factsUpsertV2      string
	factsUpsertV3      string
	factsUpsertWeight  float64
)

var factsUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create or update a fact",
	RunE:  runFactsUpsert,
}

var factsDeleteCmd = &cobra.Command{
	Use:   "delete [profile] [key]",
	Short: "Delete a fact by profile and key",
	Args:  cobra.ExactArgs(2),
	RunE:  runFactsDelete,
}

func init() {
	factsListCmd.Flags().StringVar(&factsListProfile, "profile", "primary_user", "Profile to list facts from")

	factsUpsertCmd.Flags().StringVar(&factsUpsertProfile, "profile", "primary_user", "Profile the fact belongs to")
	factsUpsertCmd.Flags().StringVar(&factsUpsertKey, "key", "", "Dotted fact key (required)")
	factsUpsertCmd.Flags().StringVar(&factsUpsertKind, "kind", "", "Fact kind/category")
	factsUpsertCmd.Flags().StringVar(&factsUpsertV1, "v1", "", "Brief variant (~10 tokens)")
	factsUpsertCmd.Flags().StringVar(&factsUpsertV2, "v2", "", "Standard variant (~50 tokens)")
	factsUpsertCmd.Flags().StringVar(&factsUpsertV3, "v3", "", "Full variant (~200 tokens)")
	factsUpsertCmd.Flags().Float64Var(&factsUpsertWeight, "weight", 0.5, "Confidence/permanence weight")
	factsUpsertCmd.MarkFlagRequired("key")
}

func runFactsList(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	facts, err := a.store.ListFactsByProfile(factsListProfile)
	if err != nil {
		return err
	}
	if len(facts) == 0 {
		fmt.Printf("no facts for profile %q\n", factsListProfile)
		return nil
	}
	for _, f := range facts {
		fmt.Printf("%-32s weight=%.2f  %s\n", f.Key, f.Weight, f.BestText())
	}
	return nil
}

func runFactsUpsert(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	written, err := a.api.UpsertFact(store.Fact{
		Profile: factsUpsertProfile,
		Key:     factsUpsertKey,
		Kind:    factsUpsertKind,
		V1:      factsUpsertV1,
		V2:      factsUpsertV2,
		V3:      factsUpsertV3,
		Weight:  factsUpsertWeight,
	})
	if err != nil {
		return err
	}
	fmt.Printf("upserted fact id=%d key=%s\n", written.ID, written.Key)
	return nil
}

func runFactsDelete(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	deleted, err := a.api.DeleteFact(args[0], args[1])
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Printf("no fact found for profile=%s key=%s\n", args[0], args[1])
		return nil
	}
	fmt.Println("deleted")
	return nil
}
