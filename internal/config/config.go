package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default configuration file name.
const FileName = "cashsync.yaml"

// Environment variables overriding file settings.
const (
	EnvLedger    = "CASHSYNC_LEDGER"
	EnvLogLevel  = "CASHSYNC_LOG_LEVEL"
	EnvLogFormat = "CASHSYNC_LOG_FORMAT"
	EnvLogFile   = "CASHSYNC_LOG_FILE"
)

// Config represents the top-level cashsync.yaml configuration.
type Config struct {
	Ledger  LedgerConfig  `yaml:"ledger"`
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
	Banks   []BankConfig  `yaml:"banks,omitempty"`
}

// LedgerConfig locates the workbook and the names inside it.
type LedgerConfig struct {
	Path       string `yaml:"path"`
	Table      string `yaml:"table"`
	RulesSheet string `yaml:"rules_sheet"`
}

// ImportConfig controls batch imports from a directory.
type ImportConfig struct {
	Dir           string `yaml:"dir"`
	MoveProcessed bool   `yaml:"move_processed"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
	File   string `yaml:"file,omitempty"`
}

// BankConfig overrides the account labels written for one bank.
type BankConfig struct {
	Name          string `yaml:"name"`
	Account       string `yaml:"account,omitempty"`
	AccountNumber string `yaml:"account_number,omitempty"`
}

// Load reads a cashsync.yaml file from disk. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Resolve loads path, or the defaults when it does not exist, then applies
// overrides from the environment and from a .env file next to path.
func Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	dotenv, _ := godotenv.Read(filepath.Join(filepath.Dir(path), ".env"))
	cfg.ApplyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings with non-empty values from lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvLedger, &c.Ledger.Path)
	set(EnvLogLevel, &c.Logging.Level)
	set(EnvLogFormat, &c.Logging.Format)
	set(EnvLogFile, &c.Logging.File)
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ledger.Table) == "" {
		return errors.New("config: ledger.table must not be empty")
	}
	if strings.TrimSpace(c.Ledger.RulesSheet) == "" {
		return errors.New("config: ledger.rules_sheet must not be empty")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: unknown logging.format %q (want console or json)", c.Logging.Format)
	}
	for _, b := range c.Banks {
		if strings.TrimSpace(b.Name) == "" {
			return errors.New("config: every banks entry needs a name")
		}
	}
	return nil
}

// Bank returns the overrides configured for the named bank.
func (c *Config) Bank(name string) (BankConfig, bool) {
	for _, b := range c.Banks {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return BankConfig{}, false
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Path:       "ledger.xlsx",
			Table:      "Transactions",
			RulesSheet: "AutoCat",
		},
		Import: ImportConfig{
			Dir:           "import",
			MoveProcessed: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "logs/app.log",
		},
	}
}
