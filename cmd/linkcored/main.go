// Package main implements linkcored, the Linking Core's CLI and daemon
// entry point. This file is the entry point and command registration hub;
// the actual command implementations live in the other cmd_*.go files.
//
// # File Index
//
//   - main.go        - entry point, rootCmd, global flags, boot()
//   - cmd_serve.go   - serveCmd, runs the background runtime + HTTP introspection server
//   - cmd_graph.go   - graphCmd and its get/activate/strengthen/reindex subcommands
//   - cmd_score.go   - scoreCmd (score breakdown)
//   - cmd_facts.go   - factsCmd and its list/upsert/delete subcommands
//   - cmd_events.go  - eventsCmd (event stream tail)
//   - cmd_loops.go   - loopsCmd, triggersCmd (runtime introspection)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"linkcore/internal/config"
	"linkcore/internal/context"
	"linkcore/internal/embedding"
	"linkcore/internal/graph"
	"linkcore/internal/introspect"
	"linkcore/internal/logging"
	"linkcore/internal/scoring"
	"linkcore/internal/store"
)

var (
	// Global flags
	configPath string
	dataDir    string
	verbose    bool

	// logger is the CLI-facing structured logger, built once per
	// invocation; the per-category file logger (internal/logging) handles
	// telemetry, this one handles what the operator sees on stderr.
	logger *zap.Logger
)

// app bundles every component wired together at boot, the composition
// root every subcommand's RunE pulls from.
type app struct {
	cfg       *config.Config
	store     *store.Store
	graph     *graph.Graph
	scorer    *scoring.Engine
	assembler *context.Assembler
	api       *introspect.API
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "linkcored",
	Short: "linkcored - the Linking Core associative-memory engine",
	Long: `linkcored runs and inspects the Linking Core: a weighted concept graph,
fact scorer, consolidation pipeline, and context assembler backing a
local-LLM assistant's long-term memory.

Run 'linkcored serve' to start the background runtime and introspection
server. Other subcommands talk to an already-running store directly for
one-off inspection and maintenance.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		dir := dataDir
		if dir == "" {
			dir, _ = os.Getwd()
		}
		if err := logging.Initialize(dir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config YAML (defaults embedded if omitted)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory for the SQLite store (default: config storage.data_dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	graphCmd.AddCommand(graphGetCmd, graphActivateCmd, graphStrengthenCmd, graphReindexCmd)
	factsCmd.AddCommand(factsListCmd, factsUpsertCmd, factsDeleteCmd)

	rootCmd.AddCommand(
		serveCmd,
		graphCmd,
		scoreCmd,
		factsCmd,
		eventsCmd,
		loopsCmd,
		triggersCmd,
	)
}

// boot loads config and opens every component an introspection command or
// the daemon needs, in the same "open once, hand off a bundle" shape as
// the teacher's coresys.GetOrBootCortex.
func boot() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	mode := store.ModePrimary
	if cfg.Storage.Mode == "demo" {
		mode = store.ModeDemo
	}
	s, err := store.Open(cfg.Storage.DataDir, mode)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	g := graph.New(s)

	var embedder embedding.EmbeddingEngine
	if cfg.Embedding.Enabled {
		embedder, err = embedding.NewEngine(embedding.Config{
			Provider:       cfg.Embedding.Provider,
			OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
			OllamaModel:    cfg.Embedding.OllamaModel,
			GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
			GenAIModel:     cfg.Embedding.GenAIModel,
			TaskType:       "RETRIEVAL_DOCUMENT",
		})
		if err != nil {
			// Degrade rather than fail boot: scoring.Engine treats a nil
			// embedder as "keyword-only" via corerr.ScoringDegraded.
			logging.Get(logging.CategoryEmbedding).Warn("embedding engine unavailable, falling back to keyword-only scoring: %v", err)
			embedder = nil
		}
	}

	scorer := scoring.New(g, embedder, cfg.Score.Weights)
	assembler := context.New(s, scorer, cfg.Budget)
	api := introspect.New(s, g, scorer, cfg)

	return &app{cfg: cfg, store: s, graph: g, scorer: scorer, assembler: assembler, api: api}, nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
