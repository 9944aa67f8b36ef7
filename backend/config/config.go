// Package config loads backend settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

// Config holds all backend configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	// APIURL is where the terminal client finds a running backend.
	APIURL string `yaml:"api_url"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

// StoreConfig selects the profile store backend.
type StoreConfig struct {
	Driver     string `yaml:"driver"` // memory, postgres, sqlite, mongo, http
	DSN        string `yaml:"dsn"`
	Database   string `yaml:"database"` // mongo only
	Collection string `yaml:"collection"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3001"},
			ShutdownTimeout: "10s",
		},
		Store: StoreConfig{
			Driver:     store.DriverMemory,
			Database:   "directory",
			Collection: store.CollectionName,
		},
		Log: LogConfig{
			Level: "info",
		},
		APIURL: "http://localhost:8080",
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty or missing path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		c.Store.Driver = driver
	}
	// DATABASE_URL alone still means Postgres, unless the file already chose a driver.
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Store.DSN = dsn
		if c.Store.Driver == store.DriverMemory && os.Getenv("STORE_DRIVER") == "" {
			c.Store.Driver = store.DriverPostgres
		}
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" && c.Store.Driver == store.DriverMongo {
		c.Store.DSN = uri
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	if url := os.Getenv("API_URL"); url != "" {
		c.APIURL = url
	}
}

// ValidDrivers lists the supported store drivers.
var ValidDrivers = []string{store.DriverMemory, store.DriverPostgres, store.DriverSQLite, store.DriverMongo, store.DriverHTTP}

// Validate validates the configuration.
func (c *Config) Validate() error {
	valid := false
	for _, d := range ValidDrivers {
		if c.Store.Driver == d {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidDrivers)
	}
	if c.Store.Driver != store.DriverMemory && c.Store.DSN == "" {
		return fmt.Errorf("store driver %s needs a dsn (set DATABASE_URL, MONGO_URI or store.dsn)", c.Store.Driver)
	}
	if c.Store.Driver == store.DriverMongo && c.Store.Database == "" {
		return fmt.Errorf("store driver mongo needs store.database")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is empty")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid server.shutdown_timeout: %w", err)
	}
	return nil
}

// GetShutdownTimeout returns the graceful shutdown window, 10s when unset or invalid.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// StoreOptions converts the store section for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:     c.Store.Driver,
		DSN:        c.Store.DSN,
		Database:   c.Store.Database,
		Collection: c.Store.Collection,
	}
}
