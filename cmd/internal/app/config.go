package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration file. Only the server address and the
// database coordinates are mandatory in production; an empty dbname runs
// the server on in-memory stores.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type DatabaseConfig struct {
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	Address        string `yaml:"address"`
	MaxConnections int32  `yaml:"max_connections"`
}

const (
	defaultServerAddress  = "0.0.0.0:8080"
	defaultDBAddress      = "localhost"
	defaultMaxConnections = 5
)

// LoadConfig reads and validates the YAML file at path.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	if cfg.DatabaseEnabled() && (cfg.Database.Username == "" || cfg.Database.Password == "") {
		return Config{}, fmt.Errorf("config %s: database credentials are required when dbname is set", path)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.Address) == "" {
		c.Server.Address = defaultServerAddress
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
	if strings.TrimSpace(c.Database.Address) == "" {
		c.Database.Address = defaultDBAddress
	}
	if c.Database.MaxConnections <= 0 {
		c.Database.MaxConnections = defaultMaxConnections
	}
}

// DatabaseEnabled reports whether a Postgres database is configured.
func (c Config) DatabaseEnabled() bool {
	return strings.TrimSpace(c.Database.DBName) != ""
}

// DatabaseURL renders the pgx connection string.
func (c Config) DatabaseURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s",
		c.Database.Username, c.Database.Password, c.Database.Address, c.Database.DBName)
}
