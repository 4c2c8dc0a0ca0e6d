package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestDataDir(t *testing.T) {
	t.Helper()
	dataDir = t.TempDir()
	configPath = ""
	verbose = false
	t.Cleanup(func() { dataDir = "" })
}

func TestFactsUpsertThenList(t *testing.T) {
	withTestDataDir(t)

	factsUpsertProfile = "primary_user"
	factsUpsertKey = "sarah.likes.coffee"
	factsUpsertKind = "preference"
	factsUpsertV1 = "sarah likes coffee"
	factsUpsertV2 = ""
	factsUpsertV3 = ""
	factsUpsertWeight = 0.7

	cmd := &cobra.Command{}
	require.NoError(t, runFactsUpsert(cmd, nil))

	factsListProfile = "primary_user"
	require.NoError(t, runFactsList(cmd, nil))
}

func TestFactsDeleteReportsMissing(t *testing.T) {
	withTestDataDir(t)

	cmd := &cobra.Command{}
	require.NoError(t, runFactsDelete(cmd, []string{"nobody", "nothing"}))
}

func TestGraphReindexRunsCleanOnEmptyStore(t *testing.T) {
	withTestDataDir(t)

	cmd := &cobra.Command{}
	require.NoError(t, runGraphReindex(cmd, nil))
}

func TestGraphActivateOnEmptyGraph(t *testing.T) {
	withTestDataDir(t)

	cmd := &cobra.Command{}
	require.NoError(t, runGraphActivate(cmd, []string{"sarah coffee"}))
}

func TestLoopsAndTriggersReportEmptyBeforeServe(t *testing.T) {
	withTestDataDir(t)

	cmd := &cobra.Command{}
	assert.NoError(t, runLoops(cmd, nil))
	assert.NoError(t, runTriggers(cmd, nil))
}
