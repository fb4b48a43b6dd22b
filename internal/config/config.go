// Package config loads the host configuration file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/rcliao/pattern-memory/internal/model"
)

const (
	EnvConfigPath = "PATTERN_MEMORY_CONFIG"
	EnvDBPath     = "PATTERN_MEMORY_DB"
)

const (
	defaultBackend    = "sqlite"
	defaultLogLevel   = "info"
	defaultKey        = "C"
	defaultMode       = "major"
	defaultInstrument = "piano"
)

type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Logging   LoggingConfig   `toml:"logging"`
	Detection DetectionConfig `toml:"detection"`
	Input     InputConfig     `toml:"input"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// DetectionConfig mirrors model.DetectionConfig. Fields left out of the file
// stay nil and do not override stored settings.
type DetectionConfig struct {
	SilenceThresholdMS          *int64   `toml:"silence_threshold_ms"`
	AutoPurgeAgeMS              *int64   `toml:"auto_purge_age_ms"`
	MaxHistorySize              *int     `toml:"max_history_size"`
	MinPatternLength            *int     `toml:"min_pattern_length"`
	MaxPatternLength            *int     `toml:"max_pattern_length"`
	DetectOnContextChange       *bool    `toml:"detect_on_context_change"`
	AutoSaveInterestingPatterns *bool    `toml:"auto_save_interesting_patterns"`
	AutoSaveComplexityThreshold *float64 `toml:"auto_save_complexity_threshold"`
}

// InputConfig is the musical context attached to notes from MIDI sources.
type InputConfig struct {
	Key        string `toml:"key"`
	Mode       string `toml:"mode"`
	Instrument string `toml:"instrument"`
	Port       string `toml:"port"`
}

func Default() Config {
	return Config{
		Storage: StorageConfig{Backend: defaultBackend},
		Logging: LoggingConfig{Level: defaultLogLevel},
		Input: InputConfig{
			Key:        defaultKey,
			Mode:       defaultMode,
			Instrument: defaultInstrument,
		},
	}
}

// Path returns the config file location: $PATTERN_MEMORY_CONFIG or
// ~/.pattern-memory/config.toml.
func Path() (string, error) {
	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		return resolvePath(env)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pattern-memory", "config.toml"), nil
}

// Load reads the config file at path. A missing or empty file yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	if err := readTOML(resolved, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path, nil
}

// DBPath picks the storage path: flag, then $PATTERN_MEMORY_DB, then the
// file, then ~/.pattern-memory/patterns.db.
func (c Config) DBPath(flag string) (string, error) {
	for _, p := range []string{flag, os.Getenv(EnvDBPath), c.Storage.Path} {
		if strings.TrimSpace(p) != "" {
			return resolvePath(p)
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pattern-memory", "patterns.db"), nil
}

func (c Config) Backend() string {
	b := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if b == "" {
		return defaultBackend
	}
	return b
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return defaultLogLevel
	}
	return level
}

// Patch converts the detection section into a partial update.
func (d DetectionConfig) Patch() model.ConfigPatch {
	p := model.ConfigPatch{
		MaxHistorySize:              d.MaxHistorySize,
		MinPatternLength:            d.MinPatternLength,
		MaxPatternLength:            d.MaxPatternLength,
		DetectOnContextChange:       d.DetectOnContextChange,
		AutoSaveInterestingPatterns: d.AutoSaveInterestingPatterns,
		AutoSaveComplexityThreshold: d.AutoSaveComplexityThreshold,
	}
	if d.SilenceThresholdMS != nil {
		v := time.Duration(*d.SilenceThresholdMS) * time.Millisecond
		p.SilenceThreshold = &v
	}
	if d.AutoPurgeAgeMS != nil {
		v := time.Duration(*d.AutoPurgeAgeMS) * time.Millisecond
		p.AutoPurgeAge = &v
	}
	return p
}
