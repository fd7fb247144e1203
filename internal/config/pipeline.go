package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PipelineConfig is the tunable half of the configuration. The constants in
// config.go cover operational knobs; this file covers the corpus-shaping
// options that differ between ingestion runs, loaded from pipeline.yaml.
type PipelineConfig struct {
	Granularity    string           `yaml:"granularity"`     // per_file | per_flashcard
	ChunkStrategy  string           `yaml:"chunk_strategy"`  // no_split | term_definition | recursive
	DedupeScope    string           `yaml:"dedupe_scope"`    // off | per_file | corpus
	EmbedProvider  string           `yaml:"embed_provider"`  // google | openai
	StoreProvider  string           `yaml:"store_provider"`  // qdrant | memory
	Classifier     ClassifierConfig `yaml:"classifier"`
	CollectionName string           `yaml:"collection_name"`
}

type ClassifierConfig struct {
	Enabled             bool    `yaml:"enabled"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	BatchSize           int     `yaml:"batch_size"`
	UseCues             string  `yaml:"use_cues"` // never | strong_only | always
}

// LoadPipeline reads pipeline.yaml from the given path. A missing file is not
// an error; defaults are returned so the service can run with zero setup.
func LoadPipeline(path string) (*PipelineConfig, error) {
	_ = godotenv.Load() //.env is optional, real env always wins

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultPipeline(), nil
		}
		return nil, err
	}
	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyPipelineDefaults(&cfg)
	return &cfg, nil
}

func defaultPipeline() *PipelineConfig {
	cfg := &PipelineConfig{}
	applyPipelineDefaults(cfg)
	return cfg
}

func applyPipelineDefaults(cfg *PipelineConfig) {
	if cfg.Granularity == "" {
		cfg.Granularity = "per_flashcard"
	}
	if cfg.ChunkStrategy == "" {
		cfg.ChunkStrategy = "no_split"
	}
	if cfg.DedupeScope == "" {
		cfg.DedupeScope = "per_file"
	}
	if cfg.EmbedProvider == "" {
		cfg.EmbedProvider = "google"
	}
	if cfg.StoreProvider == "" {
		cfg.StoreProvider = "qdrant"
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = CardCollectionName
	}
	if cfg.Classifier.ConfidenceThreshold == 0 {
		cfg.Classifier.ConfidenceThreshold = ConfidenceThreshold
	}
	if cfg.Classifier.BatchSize == 0 {
		cfg.Classifier.BatchSize = ClassifierBatchSize
	}
	if cfg.Classifier.UseCues == "" {
		cfg.Classifier.UseCues = "strong_only"
	}
}

// GoogleAPIKey and friends read credentials at call time so tests can set env.
func GoogleAPIKey() string { return os.Getenv("GOOGLE_API_KEY") }
func OpenAIAPIKey() string { return os.Getenv("OPENAI_API_KEY") }
