package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	eventsKind  string
	eventsLimit int
)

// eventsCmd tails the event log, the CLI mirror of the events.stream wire
// endpoint (a poll, not a live stream, since linkcored has no push
// transport for one-off invocations).
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent events from the event log",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "Filter by event kind (empty = all kinds)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "Maximum events to return")
}

func runEvents(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	events, err := a.store.ListEvents(eventsKind, eventsLimit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("no events")
		return nil
	}
	for _, ev := range events {
		fmt.Printf("[%s] %-28s %s  %s\n", ev.CreatedAt.Format("2006-01-02T15:04:05Z"), ev.Kind, ev.Source, ev.Message)
	}
	return nil
}
