// File path: internal/database/config.go
package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config controls the relational connection. Driver selects between the
// bundled sqlite driver and postgres via pgx.
type Config struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
	DSN    string `json:"dsn"`

	MaxOpenConns int `json:"max_open_conns"`
	MaxIdleConns int `json:"max_idle_conns"`

	ConnMaxLifetime       time.Duration `json:"-"`
	ConnMaxLifetimeString string        `json:"conn_max_lifetime"`

	SchemaTTL       time.Duration `json:"-"`
	SchemaTTLString string        `json:"schema_ttl"`

	SampleRowLimit int `json:"sample_row_limit"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.Driver) != "" {
		result.Driver = strings.TrimSpace(override.Driver)
	}
	if strings.TrimSpace(override.Path) != "" {
		result.Path = strings.TrimSpace(override.Path)
	}
	if strings.TrimSpace(override.DSN) != "" {
		result.DSN = strings.TrimSpace(override.DSN)
	}
	if override.MaxOpenConns > 0 {
		result.MaxOpenConns = override.MaxOpenConns
	}
	if override.MaxIdleConns > 0 {
		result.MaxIdleConns = override.MaxIdleConns
	}
	if override.ConnMaxLifetime > 0 {
		result.ConnMaxLifetime = override.ConnMaxLifetime
	}
	if strings.TrimSpace(override.ConnMaxLifetimeString) != "" {
		result.ConnMaxLifetimeString = strings.TrimSpace(override.ConnMaxLifetimeString)
	}
	if override.SchemaTTL > 0 {
		result.SchemaTTL = override.SchemaTTL
	}
	if strings.TrimSpace(override.SchemaTTLString) != "" {
		result.SchemaTTLString = strings.TrimSpace(override.SchemaTTLString)
	}
	if override.SampleRowLimit > 0 {
		result.SampleRowLimit = override.SampleRowLimit
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("DATABASE_CONFIG_FILE")); path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Driver) == "" {
		c.Driver = "sqlite"
	}
	if strings.TrimSpace(c.Path) == "" {
		c.Path = filepath.Join("data", "database.db")
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 8
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		if c.ConnMaxLifetimeString != "" {
			if parsed, err := time.ParseDuration(c.ConnMaxLifetimeString); err == nil {
				c.ConnMaxLifetime = parsed
			}
		}
		if c.ConnMaxLifetime <= 0 {
			c.ConnMaxLifetime = 15 * time.Minute
		}
	}
	if c.SchemaTTL <= 0 {
		if c.SchemaTTLString != "" {
			if parsed, err := time.ParseDuration(c.SchemaTTLString); err == nil {
				c.SchemaTTL = parsed
			}
		}
		if c.SchemaTTL <= 0 {
			c.SchemaTTL = 5 * time.Minute
		}
	}
	if c.SampleRowLimit <= 0 {
		c.SampleRowLimit = 5
	}
}

// dataSourceName resolves the sqlx driver name and DSN for the configured
// backend.
func (c Config) dataSourceName() (driver, dsn string, err error) {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "sqlite", "sqlite3", "":
		abs, pathErr := filepath.Abs(c.Path)
		if pathErr != nil {
			return "", "", fmt.Errorf("resolve sqlite path: %w", pathErr)
		}
		return "sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", abs), nil
	case "postgres", "postgresql", "pgx":
		if strings.TrimSpace(c.DSN) == "" {
			return "", "", fmt.Errorf("postgres driver requires DATABASE_DSN")
		}
		return "pgx", c.DSN, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read database config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse database config: %w", err)
	}
	return cfg, nil
}

func loadConfigEnv() (Config, error) {
	cfg := Config{}
	if driver := strings.TrimSpace(os.Getenv("DATABASE_DRIVER")); driver != "" {
		cfg.Driver = driver
	}
	if path := strings.TrimSpace(os.Getenv("DATABASE_PATH")); path != "" {
		cfg.Path = path
	}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN")); dsn != "" {
		cfg.DSN = dsn
	}
	if openConns := strings.TrimSpace(os.Getenv("DATABASE_MAX_OPEN_CONNS")); openConns != "" {
		value, err := strconv.Atoi(openConns)
		if err != nil {
			return Config{}, fmt.Errorf("parse DATABASE_MAX_OPEN_CONNS: %w", err)
		}
		if value > 0 {
			cfg.MaxOpenConns = value
		}
	}
	if idleConns := strings.TrimSpace(os.Getenv("DATABASE_MAX_IDLE_CONNS")); idleConns != "" {
		value, err := strconv.Atoi(idleConns)
		if err != nil {
			return Config{}, fmt.Errorf("parse DATABASE_MAX_IDLE_CONNS: %w", err)
		}
		if value > 0 {
			cfg.MaxIdleConns = value
		}
	}
	if lifetime := strings.TrimSpace(os.Getenv("DATABASE_CONN_MAX_LIFETIME")); lifetime != "" {
		cfg.ConnMaxLifetimeString = lifetime
		if parsed, err := time.ParseDuration(lifetime); err == nil {
			cfg.ConnMaxLifetime = parsed
		}
	}
	if ttl := strings.TrimSpace(os.Getenv("DATABASE_SCHEMA_TTL")); ttl != "" {
		cfg.SchemaTTLString = ttl
		if parsed, err := time.ParseDuration(ttl); err == nil {
			cfg.SchemaTTL = parsed
		}
	}
	if limit := strings.TrimSpace(os.Getenv("DATABASE_SAMPLE_ROW_LIMIT")); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil {
			return Config{}, fmt.Errorf("parse DATABASE_SAMPLE_ROW_LIMIT: %w", err)
		}
		if value > 0 {
			cfg.SampleRowLimit = value
		}
	}
	return cfg, nil
}
