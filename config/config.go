/*
config.go - Runtime configuration for the server and CLI

PURPOSE:
  One YAML document configures every process. Missing keys keep their
  defaults; command-line flags are applied on top by the entry points.

EXAMPLE:
  server:
    port: "8080"
    cors_origins: ["http://localhost:5173"]
  database:
    path: carbon.db
  logging:
    level: debug
    format: console
  carbon:
    regions_file: regions.yaml
  events:
    kafka:
      enabled: true
      brokers: ["localhost:9092"]
      topic: energy-records
  demo:
    seed_on_start: true

SEE ALSO:
  - cmd/server/main.go: Loads this and applies flags
  - carbon/registry.go: Format of regions_file
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/events"
	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/logging"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  logging.Config `yaml:"logging"`
	Carbon   CarbonConfig   `yaml:"carbon"`
	Events   EventsConfig   `yaml:"events"`
	Demo     DemoConfig     `yaml:"demo"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CarbonConfig points at an optional YAML file replacing the built-in
// region table.
type CarbonConfig struct {
	RegionsFile string `yaml:"regions_file"`
}

type EventsConfig struct {
	Kafka events.Config `yaml:"kafka"`
}

type DemoConfig struct {
	SeedOnStart bool `yaml:"seed_on_start"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Database: DatabaseConfig{Path: "carbon.db"},
		Logging:  logging.DefaultConfig(),
		Events: EventsConfig{Kafka: events.Config{
			Topic:        "energy-records",
			Acks:         1,
			WriteTimeout: 10 * time.Second,
		}},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, generic.Invalid("config", nil, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return generic.Invalid("server.port", c.Server.Port, "must not be empty")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return generic.Invalid("server", nil, "timeouts must not be negative")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return generic.Invalid("database.path", c.Database.Path, "must not be empty")
	}
	if err := c.Logging.Validate(); err != nil {
		return generic.Invalid("logging", nil, err.Error())
	}
	if err := c.Events.Kafka.Validate(); err != nil {
		return generic.Invalid("events.kafka", nil, err.Error())
	}
	return nil
}

// Registry returns the region table: the regions file when set, the
// built-in defaults otherwise.
func (c Config) Registry() (*carbon.Registry, error) {
	if c.Carbon.RegionsFile == "" {
		return carbon.DefaultRegistry(), nil
	}
	f, err := os.Open(c.Carbon.RegionsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open regions file: %w", err)
	}
	defer f.Close()
	return carbon.LoadRegistry(f)
}
