package cfg

import (
	"strings"
	"testing"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		Algorithms:  []string{"svm", "knn", "mnb", "rf", "mlp"},
		Params:      map[string]map[string]any{},
		Weighted:    true,
		Folds:       3,
		Parallelism: 4,
		DatasetPath: "iris.csv",
		LabelColumn: "species",
		TestRatio:   0.25,
		SplitSeed:   1,
		MetricsPort: 9090,
		LogLevel:    "info",
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	err := validateSettings(settings)
	if err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_EmptyEnsembleIsValid(t *testing.T) {
	settings := createValidSettings()
	settings.Algorithms = []string{}

	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected empty algorithm list to pass validation, got: %v", err)
	}
}

func TestValidateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"empty algorithm", func(s *Settings) { s.Algorithms = []string{"knn", ""} }, "cannot be empty"},
		{"duplicate algorithm", func(s *Settings) { s.Algorithms = []string{"rf", "rf"} }, "more than once"},
		{"folds too low", func(s *Settings) { s.Folds = 1 }, "folds must be"},
		{"folds too high", func(s *Settings) { s.Folds = 101 }, "folds must be"},
		{"negative parallelism", func(s *Settings) { s.Parallelism = -1 }, "parallelism must be"},
		{"excessive parallelism", func(s *Settings) { s.Parallelism = 1000 }, "parallelism must be"},
		{"metrics port too low", func(s *Settings) { s.MetricsPort = 1023 }, "metrics port"},
		{"metrics port too high", func(s *Settings) { s.MetricsPort = 70000 }, "metrics port"},
		{"blank label column", func(s *Settings) { s.LabelColumn = "  " }, "label column"},
		{"zero test ratio", func(s *Settings) { s.TestRatio = 0 }, "test ratio"},
		{"unit test ratio", func(s *Settings) { s.TestRatio = 1 }, "test ratio"},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateSettings_MetricsPortBoundaries(t *testing.T) {
	for _, port := range []int{0, 1024, 65535} {
		settings := createValidSettings()
		settings.MetricsPort = port
		if err := validateSettings(settings); err != nil {
			t.Errorf("Expected port %d to be valid, got error: %v", port, err)
		}
	}
}
