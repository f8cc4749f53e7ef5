package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	toml "github.com/pelletier/go-toml/v2"

	"donelog/internal/views"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todo.db"
	DefaultDataDirName    = "data"
	DefaultLogFileName    = "donelog.log"
)

// Backends selectable with the backend key.
const (
	BackendLocal    = "local"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Environment variables consulted after the file is read.
const (
	EnvConfig      = "DONELOG_CONFIG"
	EnvBackend     = "DONELOG_BACKEND"
	EnvPostgresDSN = "DONELOG_POSTGRES_DSN"
)

var (
	backends  = []string{BackendLocal, BackendSQLite, BackendPostgres}
	logLevels = []string{"debug", "info", "warn", "error"}
)

type Keymap struct {
	Quit        string `toml:"quit"`
	Add         string `toml:"add"`
	Up          string `toml:"up"`
	Down        string `toml:"down"`
	Toggle      string `toml:"toggle"`
	Delete      string `toml:"delete"`
	Confirm     string `toml:"confirm"`
	Cancel      string `toml:"cancel"`
	Edit        string `toml:"edit"`
	CycleFilter string `toml:"cycle_filter"`
	CycleSort   string `toml:"cycle_sort"`
	CycleRange  string `toml:"cycle_range"`
	ListView    string `toml:"list_view"`
	Dashboard   string `toml:"dashboard"`
	Timeline    string `toml:"timeline"`
}

type Config struct {
	Backend       string `toml:"backend"`
	DataDir       string `toml:"data_dir"`
	DBPath        string `toml:"db_path"`
	PostgresDSN   string `toml:"postgres_dsn"`
	DefaultFilter string `toml:"default_filter"`
	DefaultSort   string `toml:"default_sort"`
	DefaultRange  string `toml:"default_range"`
	LogFile       string `toml:"log_file"`
	LogLevel      string `toml:"log_level"`
	Keys          Keymap `toml:"keys"`
}

// InvalidValueError reports a config key holding an unsupported value.
type InvalidValueError struct {
	Key   string
	Value string
	Valid []string
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("config %s: invalid value %q (valid: %v)", e.Key, e.Value, e.Valid)
}

// ResolveConfigPath returns $DONELOG_CONFIG, or config.toml under the user
// config directory.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "donelog", DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing defaults first if the file
// does not exist. Relative paths inside the file resolve against its directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.fillDefaults()
	cfg.applyEnv()
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and a postgres backend without a DSN.
func (c Config) Validate() error {
	if !slices.Contains(backends, c.Backend) {
		return InvalidValueError{Key: "backend", Value: c.Backend, Valid: backends}
	}
	if c.Backend == BackendPostgres && c.PostgresDSN == "" {
		return fmt.Errorf("config postgres_dsn: required for backend %q", BackendPostgres)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return InvalidValueError{Key: "log_level", Value: c.LogLevel, Valid: logLevels}
	}
	if _, err := views.ParseFilter(c.DefaultFilter); err != nil {
		return fmt.Errorf("config default_filter: %w", err)
	}
	if _, err := views.ParseSortMode(c.DefaultSort); err != nil {
		return fmt.Errorf("config default_sort: %w", err)
	}
	if _, err := views.ParseTimeRange(c.DefaultRange); err != nil {
		return fmt.Errorf("config default_range: %w", err)
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := defaultConfig()
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.PostgresDSN = v
	}
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.DataDir, &c.DBPath, &c.LogFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Backend:       BackendLocal,
		DataDir:       DefaultDataDirName,
		DBPath:        DefaultDBName,
		DefaultFilter: string(views.FilterAll),
		DefaultSort:   string(views.SortByDate),
		DefaultRange:  string(views.Range30d),
		LogFile:       DefaultLogFileName,
		LogLevel:      "info",
		Keys: Keymap{
			Quit:        "q",
			Add:         "a",
			Up:          "k",
			Down:        "j",
			Toggle:      " ",
			Delete:      "d",
			Confirm:     "enter",
			Cancel:      "esc",
			Edit:        "e",
			CycleFilter: "f",
			CycleSort:   "s",
			CycleRange:  "r",
			ListView:    "1",
			Dashboard:   "2",
			Timeline:    "3",
		},
	}
}
