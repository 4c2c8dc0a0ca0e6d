// Package config loads and defaults the Linking Core's configuration, in
// the same YAML-backed style as the teacher's internal/config package.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable named in spec.md §6.
type Config struct {
	Hebbian       HebbianConfig       `yaml:"hebbian"`
	Decay         DecayConfig         `yaml:"decay"`
	Spread        SpreadConfig        `yaml:"spread"`
	Score         ScoreConfig         `yaml:"score"`
	Consolidation ConsolidationConfig `yaml:"consolidation"`
	Budget        BudgetConfig        `yaml:"budget"`
	Runtime       RuntimeConfig       `yaml:"runtime"`
	Storage       StorageConfig       `yaml:"storage"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Loop          LoopConfig          `yaml:"loop"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type HebbianConfig struct {
	Rate float64 `yaml:"rate"`
}

type DecayConfig struct {
	RatePerDay  float64 `yaml:"rate_per_day"`
	MinStrength float64 `yaml:"min_strength"`
}

type SpreadConfig struct {
	MaxHops   int     `yaml:"max_hops"`
	Threshold float64 `yaml:"threshold"`
	Limit     int     `yaml:"limit"`
}

type ScoreConfig struct {
	Weights ScoreWeights `yaml:"weights"`
}

type ScoreWeights struct {
	Embedding    float64 `yaml:"embedding"`
	Cooccurrence float64 `yaml:"cooccurrence"`
	Spread       float64 `yaml:"spread"`
	Keyword      float64 `yaml:"keyword"`
}

type ConsolidationConfig struct {
	Thresholds      ConsolidationThresholds `yaml:"thresholds"`
	MaxRetries      int                     `yaml:"max_retries"`
	CooldownSeconds int                     `yaml:"cooldown_seconds"`
	EveryNTurns     int                     `yaml:"every_n_turns"`
	DeferredTTLDays int                     `yaml:"deferred_ttl_days"`
}

type ConsolidationThresholds struct {
	High float64 `yaml:"high"`
	Mid  float64 `yaml:"mid"`
	Low  float64 `yaml:"low"`
}

type BudgetConfig struct {
	L1Tokens int `yaml:"l1_tokens"`
	L2Tokens int `yaml:"l2_tokens"`
	L3Tokens int `yaml:"l3_tokens"`
}

type RuntimeConfig struct {
	WorkerPool       int `yaml:"worker_pool"`
	ShutdownGraceMS  int `yaml:"shutdown_grace_ms"`
}

type StorageConfig struct {
	Mode    string `yaml:"mode"` // "primary" | "demo"
	DataDir string `yaml:"data_dir"`
}

type EmbeddingConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Provider       string `yaml:"provider"` // "ollama" | "genai"
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
	GenAIAPIKey    string `yaml:"genai_api_key"`
	GenAIModel     string `yaml:"genai_model"`
}

type LoopConfig struct {
	Periods LoopPeriods `yaml:"periods"`
}

type LoopPeriods struct {
	ConsolidationSeconds int `yaml:"consolidation"`
	DecaySeconds         int `yaml:"decay"`
	HealthSeconds        int `yaml:"health"`
}

type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Level     string `yaml:"level"`
}

// DefaultConfig returns the defaults enumerated in spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		Hebbian: HebbianConfig{Rate: 0.10},
		Decay: DecayConfig{
			RatePerDay:  0.95,
			MinStrength: 0.05,
		},
		Spread: SpreadConfig{
			MaxHops:   1,
			Threshold: 0.10,
			Limit:     50,
		},
		Score: ScoreConfig{
			Weights: ScoreWeights{
				Embedding:    0.50,
				Cooccurrence: 0.30,
				Spread:       0.20,
				Keyword:      0.10,
			},
		},
		Consolidation: ConsolidationConfig{
			Thresholds: ConsolidationThresholds{
				High: 0.80,
				Mid:  0.50,
				Low:  0.30,
			},
			MaxRetries:      3,
			CooldownSeconds: 30,
			EveryNTurns:     20,
			DeferredTTLDays: 7,
		},
		Budget: BudgetConfig{
			L1Tokens: 10,
			L2Tokens: 50,
			L3Tokens: 200,
		},
		Runtime: RuntimeConfig{
			WorkerPool:      4,
			ShutdownGraceMS: 5000,
		},
		Storage: StorageConfig{
			Mode:    "primary",
			DataDir: "data",
		},
		Embedding: EmbeddingConfig{
			Enabled:        false,
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
		},
		Loop: LoopConfig{
			Periods: LoopPeriods{
				ConsolidationSeconds: 300,
				DecaySeconds:         86400,
				HealthSeconds:        60,
			},
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads a YAML config file, falling back to defaults for any field
// the file omits. A missing file is not an error; DefaultConfig() is
// returned unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// DBPath returns the SQLite file path for the configured storage mode.
func (c *Config) DBPath() string {
	name := "linkcore.db"
	if c.Storage.Mode == "demo" {
		name = "linkcore-demo.db"
	}
	return filepath.Join(c.Storage.DataDir, name)
}
