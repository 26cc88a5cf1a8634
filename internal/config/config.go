// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	RepositoryNone     = "none"
	RepositoryInMemory = "inmemory"
	RepositoryPostgres = "postgres"
	RepositoryMySQL    = "mysql"
	RepositorySQLite   = "sqlite"
)

const DefaultPath = "config.yml"

type Config struct {
	Repository RepositoryConfig `yaml:"repository"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // none, inmemory, postgres, mysql или sqlite
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

type LoggingConfig struct {
	Development bool   `yaml:"development"`
	Output      string `yaml:"output"`
}

func Default() *Config {
	return &Config{
		Repository: RepositoryConfig{Type: RepositorySQLite},
		Database: DatabaseConfig{
			URL:            "tasks.db",
			MaxConnections: 10,
			MinConnections: 2,
			IdleTimeout:    5 * time.Minute,
			QueryTimeout:   5 * time.Second,
		},
		Logging: LoggingConfig{Output: "stderr"},
	}
}

// Load читает YAML поверх значений по умолчанию
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryNone, RepositoryInMemory, RepositoryPostgres, RepositoryMySQL, RepositorySQLite:
	default:
		return fmt.Errorf("неизвестный тип хранилища %q", c.Repository.Type)
	}
	if c.NeedsDatabase() && c.Database.URL == "" {
		return fmt.Errorf("для хранилища %s нужен database.url", c.Repository.Type)
	}

	if c.Database.MaxConnections < 0 || c.Database.MinConnections < 0 {
		return errors.New("число соединений не может быть отрицательным")
	}
	if c.Database.MaxConnections > 0 && c.Database.MinConnections > c.Database.MaxConnections {
		return errors.New("min_connections больше max_connections")
	}
	if c.Database.IdleTimeout < 0 || c.Database.QueryTimeout < 0 {
		return errors.New("таймауты не могут быть отрицательными")
	}
	return nil
}

// NeedsDatabase - хранилище работает через database.url
func (c *Config) NeedsDatabase() bool {
	switch c.Repository.Type {
	case RepositoryPostgres, RepositoryMySQL, RepositorySQLite:
		return true
	}
	return false
}
