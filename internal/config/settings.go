package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the pipeline defaults
const (
	EnvDBPath             = "LEAD_SCORING_DB_PATH"
	EnvDBFileName         = "LEAD_SCORING_DB_FILE"
	EnvDataDirectory      = "LEAD_SCORING_DATA_DIR"
	EnvInteractionMapping = "LEAD_SCORING_INTERACTION_MAPPING"
)

// ErrInvalidSettings is returned by Validate for unusable settings
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the locations a run actually uses.
// It starts from the package constants and never writes back to them.
type Settings struct {
	DBPath             string `yaml:"db_path"`
	DBFileName         string `yaml:"db_file_name"`
	UnitTestDBFileName string `yaml:"unit_test_db_file_name"`
	DataDirectory      string `yaml:"data_directory"`
	InteractionMapping string `yaml:"interaction_mapping"`
}

// DefaultSettings returns settings equal to the pipeline constants
func DefaultSettings() Settings {
	return Settings{
		DBPath:             DBPath,
		DBFileName:         DBFileName,
		UnitTestDBFileName: UnitTestDBFileName,
		DataDirectory:      DataDirectory,
		InteractionMapping: InteractionMapping,
	}
}

// LoadSettings resolves settings from the defaults, an optional YAML file,
// an optional .env file and the process environment, in that order.
// An empty yamlPath skips the YAML step. A missing .env file is not an error.
func LoadSettings(yamlPath, envFile string) (Settings, error) {
	s := DefaultSettings()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
		}
		if err := s.mergeYAML(data); err != nil {
			return Settings{}, fmt.Errorf("failed to parse settings file %s: %w", yamlPath, err)
		}
	}

	if envFile != "" {
		// godotenv.Load never overrides variables already set in the environment
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	s.applyEnv(os.LookupEnv)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// mergeYAML overlays non-empty YAML fields on top of s
func (s *Settings) mergeYAML(data []byte) error {
	var overlay Settings
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}
	overrideIfSet(&s.DBPath, overlay.DBPath)
	overrideIfSet(&s.DBFileName, overlay.DBFileName)
	overrideIfSet(&s.UnitTestDBFileName, overlay.UnitTestDBFileName)
	overrideIfSet(&s.DataDirectory, overlay.DataDirectory)
	overrideIfSet(&s.InteractionMapping, overlay.InteractionMapping)
	return nil
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) {
	vars := map[string]*string{
		EnvDBPath:             &s.DBPath,
		EnvDBFileName:         &s.DBFileName,
		EnvDataDirectory:      &s.DataDirectory,
		EnvInteractionMapping: &s.InteractionMapping,
	}
	for key, ptr := range vars {
		if value, ok := lookup(key); ok {
			overrideIfSet(ptr, value)
		}
	}
}

func overrideIfSet(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

// Validate checks that every location is set and that file names are bare names
func (s Settings) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"db_path", s.DBPath},
		{"db_file_name", s.DBFileName},
		{"unit_test_db_file_name", s.UnitTestDBFileName},
		{"data_directory", s.DataDirectory},
		{"interaction_mapping", s.InteractionMapping},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidSettings, f.name)
		}
	}

	for _, name := range []string{s.DBFileName, s.UnitTestDBFileName, s.InteractionMapping} {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%w: file name %q must not contain a path separator", ErrInvalidSettings, name)
		}
	}
	return nil
}

// DatabaseFile joins DBPath and DBFileName the same way DatabaseFile does for the constants
func (s Settings) DatabaseFile() string {
	return withTrailingSlash(s.DBPath) + s.DBFileName
}

// UnitTestDatabaseFile joins DBPath and UnitTestDBFileName
func (s Settings) UnitTestDatabaseFile() string {
	return withTrailingSlash(s.DBPath) + s.UnitTestDBFileName
}

// InteractionMappingFile joins DataDirectory and InteractionMapping
func (s Settings) InteractionMappingFile() string {
	return withTrailingSlash(s.DataDirectory) + s.InteractionMapping
}

// Overridden directories may be given without the trailing slash the constants carry
func withTrailingSlash(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}
