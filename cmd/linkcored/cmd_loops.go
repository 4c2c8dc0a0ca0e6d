package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// loopsCmd prints the persisted status of every background loop, the CLI
// mirror of the loops.status wire endpoint.
var loopsCmd = &cobra.Command{
	Use:   "loops",
	Short: "Show background loop status",
	RunE:  runLoops,
}

// triggersCmd prints the persisted status of every registered trigger,
// the CLI mirror of the triggers.status wire endpoint.
var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Show event trigger status",
	RunE:  runTriggers,
}

func runLoops(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	loops, err := a.store.ListLoopDescriptors()
	if err != nil {
		return err
	}
	if len(loops) == 0 {
		fmt.Println("no loops recorded yet (has linkcored serve run?)")
		return nil
	}
	for _, l := range loops {
		status := "enabled"
		if !l.Enabled {
			status = "disabled"
		}
		fmt.Printf("%-16s %-9s period=%ds errors=%d/%d last_run=%s\n",
			l.Name, status, l.PeriodSeconds, l.ConsecutiveErrors, l.MaxConsecutiveErrors, l.LastRun.Format("2006-01-02T15:04:05Z"))
		if l.LastError != "" {
			fmt.Printf("  last error: %s\n", l.LastError)
		}
	}
	return nil
}

func runTriggers(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	triggers, err := a.store.ListTriggerDescriptors()
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		fmt.Println("no triggers recorded yet (has linkcored serve run?)")
		return nil
	}
	for _, t := range triggers {
		fmt.Printf("%-16s fires=%-6d cooldown=%ds last_fired=%s  (%s)\n",
			t.ID, t.FireCount, t.CooldownSecs, t.LastFired.Format("2006-01-02T15:04:05Z"), t.Predicate)
	}
	return nil
}
