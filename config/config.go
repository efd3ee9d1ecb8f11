package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/robmorgan/tempomap/logger"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDatabasePath  = "tempomap.db"
	DefaultLogLevel      = "info"
	DefaultBeatsPerBar   = 4
	DefaultBarsPerPhrase = 8
)

// Environment variables that override the defaults.
const (
	EnvDatabasePath  = "TEMPOMAP_DB"
	EnvLogLevel      = "TEMPOMAP_LOG_LEVEL"
	EnvBeatsPerBar   = "TEMPOMAP_BEATS_PER_BAR"
	EnvBarsPerPhrase = "TEMPOMAP_BARS_PER_PHRASE"
)

// Config represents options that configure the global behavior of the program
type Config struct {
	// Project logger
	Logger *logrus.Logger

	LogLevel string

	// DatabasePath is where serialized tempo maps are stored.
	DatabasePath string

	// Bar layout used for snapshots and markers.
	BeatsPerBar   int
	BarsPerPhrase int
}

// NewConfig creates a Config object with reasonable defaults for real usage, then applies the environment.
func NewConfig() (*Config, error) {
	return NewConfigFromLookup(os.LookupEnv)
}

// NewConfigFromLookup is NewConfig with a custom environment lookup.
func NewConfigFromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{
		Logger:        logger.GetProjectLogger(),
		LogLevel:      DefaultLogLevel,
		DatabasePath:  DefaultDatabasePath,
		BeatsPerBar:   DefaultBeatsPerBar,
		BarsPerPhrase: DefaultBarsPerPhrase,
	}

	if val, ok := lookup(EnvDatabasePath); ok && val != "" {
		cfg.DatabasePath = val
	}
	if val, ok := lookup(EnvLogLevel); ok && val != "" {
		cfg.LogLevel = val
	}
	if err := setPositiveInt(lookup, EnvBeatsPerBar, &cfg.BeatsPerBar); err != nil {
		return nil, err
	}
	if err := setPositiveInt(lookup, EnvBarsPerPhrase, &cfg.BarsPerPhrase); err != nil {
		return nil, err
	}

	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, InvalidValueError{Name: EnvLogLevel, Value: cfg.LogLevel}
	}
	return cfg, nil
}

func setPositiveInt(lookup func(string) (string, bool), name string, dst *int) error {
	val, ok := lookup(name)
	if !ok || val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return InvalidValueError{Name: name, Value: val}
	}
	*dst = n
	return nil
}

// InvalidValueError is returned for environment overrides that cannot be used.
type InvalidValueError struct {
	Name  string
	Value string
}

func (err InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %s", err.Value, err.Name)
}
