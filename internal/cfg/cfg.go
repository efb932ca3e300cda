package cfg

import (
	"fmt"
	"os"
	"strings"

	"majority-vote/internal/ensemble"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	defaultLabelColumn = "label"
	defaultTestRatio   = 0.25
	defaultSplitSeed   = 1
	defaultLogLevel    = "info"
	maxParallelism     = 256
)

type Settings struct {
	Algorithms  []string
	Params      map[string]map[string]any
	Weighted    bool
	Folds       int
	Parallelism int

	DatasetPath string
	LabelColumn string
	TestRatio   float64
	SplitSeed   int64

	DataPath    string // bbolt directory, empty disables run history
	ReportPath  string // report directory, empty disables reports
	MetricsPort int    // 0 disables the metrics endpoint
	LogLevel    string
}

type ConfigFile struct {
	Ensemble struct {
		Algorithms  []string                  `yaml:"algorithms"`
		Params      map[string]map[string]any `yaml:"params"`
		Weighted    bool                      `yaml:"weighted"`
		Folds       int                       `yaml:"folds"`
		Parallelism int                       `yaml:"parallelism"`
	} `yaml:"ensemble"`

	Dataset struct {
		Path        string  `yaml:"path"`
		LabelColumn string  `yaml:"labelColumn"`
		TestRatio   float64 `yaml:"testRatio"`
		SplitSeed   int64   `yaml:"splitSeed"`
	} `yaml:"dataset"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		ReportPath  string `yaml:"reportPath"`
		MetricsPort int    `yaml:"metricsPort"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A missing algorithms key selects every built-in learner; an explicit empty list
	// builds an empty ensemble.
	algorithms := config.Ensemble.Algorithms
	if algorithms == nil {
		algorithms = ensemble.DefaultConfig().Algorithms
	}

	settings := Settings{
		Algorithms:  getListFromEnvOrConfig("ALGORITHMS", algorithms),
		Params:      config.Ensemble.Params,
		Weighted:    getBoolFromEnvOrConfig("WEIGHTED", config.Ensemble.Weighted),
		Folds:       getIntFromEnvOrConfig("FOLDS", config.Ensemble.Folds, ensemble.DefaultFolds),
		Parallelism: getIntFromEnvOrConfig("PARALLELISM", config.Ensemble.Parallelism, 0),
		DatasetPath: getEnvOrDefault("DATASET_PATH", config.Dataset.Path),
		LabelColumn: getEnvOrDefault("LABEL_COLUMN", orDefault(config.Dataset.LabelColumn, defaultLabelColumn)),
		TestRatio:   getFloatFromEnvOrConfig("TEST_RATIO", config.Dataset.TestRatio, defaultTestRatio),
		SplitSeed:   getInt64FromEnvOrConfig("SPLIT_SEED", config.Dataset.SplitSeed, defaultSplitSeed),
		DataPath:    getEnvOrDefault("DATA_PATH", config.System.DataPath),
		ReportPath:  getEnvOrDefault("REPORT_PATH", config.System.ReportPath),
		MetricsPort: getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 0),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", orDefault(config.System.LogLevel, defaultLogLevel)),
	}
	if settings.Params == nil {
		settings.Params = make(map[string]map[string]any)
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Algorithms:  splitOrDefault(os.Getenv("ALGORITHMS"), ensemble.DefaultConfig().Algorithms),
		Params:      make(map[string]map[string]any),
		Weighted:    getBoolOrDefault("WEIGHTED", false),
		Folds:       getIntOrDefault("FOLDS", ensemble.DefaultFolds),
		Parallelism: getIntOrDefault("PARALLELISM", 0),
		DatasetPath: os.Getenv("DATASET_PATH"), // may come from the -data flag
		LabelColumn: getEnvOrDefault("LABEL_COLUMN", defaultLabelColumn),
		TestRatio:   getFloatOrDefault("TEST_RATIO", defaultTestRatio),
		SplitSeed:   getInt64OrDefault("SPLIT_SEED", defaultSplitSeed),
		DataPath:    os.Getenv("DATA_PATH"),   // optional
		ReportPath:  os.Getenv("REPORT_PATH"), // optional
		MetricsPort: getIntOrDefault("METRICS_PORT", 0),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// EnsembleConfig returns the ensemble part of the settings.
func (s *Settings) EnsembleConfig() ensemble.Config {
	return ensemble.Config{
		Algorithms:  append([]string(nil), s.Algorithms...),
		Params:      s.Params,
		Weighted:    s.Weighted,
		Folds:       s.Folds,
		Parallelism: s.Parallelism,
	}
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	// Validate algorithm list; unknown identifiers are reported by the registry
	seen := make(map[string]bool, len(settings.Algorithms))
	for _, id := range settings.Algorithms {
		if id == "" {
			return fmt.Errorf("algorithm identifiers cannot be empty")
		}
		if seen[id] {
			return fmt.Errorf("algorithm %s is listed more than once", id)
		}
		seen[id] = true
	}

	// Validate integer values
	if settings.Folds < 2 || settings.Folds > 100 {
		return fmt.Errorf("folds must be between 2 and 100, got %d", settings.Folds)
	}
	if settings.Parallelism < 0 || settings.Parallelism > maxParallelism {
		return fmt.Errorf("parallelism must be between 0 and %d, got %d", maxParallelism, settings.Parallelism)
	}
	if settings.MetricsPort != 0 && (settings.MetricsPort < 1024 || settings.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be 0 or between 1024 and 65535, got %d", settings.MetricsPort)
	}

	// Validate dataset parameters
	if strings.TrimSpace(settings.LabelColumn) == "" {
		return fmt.Errorf("label column cannot be empty")
	}
	if settings.TestRatio <= 0 || settings.TestRatio >= 1 {
		return fmt.Errorf("test ratio must be between 0 and 1 (exclusive), got %f", settings.TestRatio)
	}

	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}

	return nil
}
