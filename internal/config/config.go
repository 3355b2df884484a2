package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/claude/repcounter/internal/exercise"
	"github.com/claude/repcounter/internal/pose"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Auth      AuthConfig       `yaml:"auth"`
	Tailscale TailscaleConfig  `yaml:"tailscale"`
	Storage   StorageConfig    `yaml:"storage"`
	Session   SessionConfig    `yaml:"session"`
	Logging   LoggingConfig    `yaml:"logging"`
	Exercises []ExerciseConfig `yaml:"exercises"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type StorageConfig struct {
	// Backend is one of json, sqlite or postgres.
	Backend    string         `yaml:"backend"`
	Path       string         `yaml:"path"`
	Migrations string         `yaml:"migrations"`
	Database   DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type SessionConfig struct {
	SmoothingWindow int           `yaml:"smoothing_window"`
	AutoCloseAfter  time.Duration `yaml:"auto_close_after"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
	Stdout bool   `yaml:"stdout"`
}

// ExerciseConfig is one catalog entry as written in the config file.
type ExerciseConfig struct {
	ID            string    `yaml:"id"`
	Name          string    `yaml:"name"`
	Joints        [3]string `yaml:"joints"`
	UpThreshold   float64   `yaml:"up_threshold"`
	DownThreshold float64   `yaml:"down_threshold"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used for values the file leaves unset.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8080},
		Storage: StorageConfig{Backend: "json", Path: "exercise_sessions.json", Migrations: "migrations"},
		Session: SessionConfig{SmoothingWindow: 8, AutoCloseAfter: 10 * time.Second},
		Logging: LoggingConfig{Level: "info", Format: "text", Stdout: true},
	}
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. Env vars use the prefix REPCOUNTER_:
//
//	REPCOUNTER_SERVER_HOST, REPCOUNTER_SERVER_PORT, REPCOUNTER_AUTH_API_KEY,
//	REPCOUNTER_STORAGE_BACKEND, REPCOUNTER_STORAGE_PATH,
//	REPCOUNTER_DB_HOST, REPCOUNTER_DB_PORT, REPCOUNTER_DB_NAME,
//	REPCOUNTER_DB_USER, REPCOUNTER_DB_PASSWORD, REPCOUNTER_DB_SSLMODE,
//	REPCOUNTER_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPCOUNTER_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPCOUNTER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPCOUNTER_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REPCOUNTER_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("REPCOUNTER_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("REPCOUNTER_DB_HOST"); v != "" {
		cfg.Storage.Database.Host = v
	}
	if v := os.Getenv("REPCOUNTER_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Database.Port = port
		}
	}
	if v := os.Getenv("REPCOUNTER_DB_NAME"); v != "" {
		cfg.Storage.Database.Name = v
	}
	if v := os.Getenv("REPCOUNTER_DB_USER"); v != "" {
		cfg.Storage.Database.User = v
	}
	if v := os.Getenv("REPCOUNTER_DB_PASSWORD"); v != "" {
		cfg.Storage.Database.Password = v
	}
	if v := os.Getenv("REPCOUNTER_DB_SSLMODE"); v != "" {
		cfg.Storage.Database.SSLMode = v
	}
	if v := os.Getenv("REPCOUNTER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	switch c.Storage.Backend {
	case "json", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case "postgres":
		d := c.Storage.Database
		if d.Host == "" {
			return fmt.Errorf("storage.database.host is required")
		}
		if d.Port == 0 {
			return fmt.Errorf("storage.database.port is required")
		}
		if d.Name == "" {
			return fmt.Errorf("storage.database.name is required")
		}
		if d.User == "" {
			return fmt.Errorf("storage.database.user is required")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of json, sqlite, postgres", c.Storage.Backend)
	}

	if c.Session.SmoothingWindow < 1 {
		return fmt.Errorf("session.smoothing_window must be at least 1")
	}
	if c.Session.AutoCloseAfter < 0 {
		return fmt.Errorf("session.auto_close_after must not be negative")
	}

	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("exercises: %w", err)
	}
	return nil
}

// Catalog builds the validated exercise catalog, falling back to the
// built-in profiles when the file lists none.
func (c *Config) Catalog() (*exercise.Catalog, error) {
	if len(c.Exercises) == 0 {
		return exercise.NewCatalog(exercise.DefaultProfiles()...)
	}

	profiles := make([]exercise.Profile, 0, len(c.Exercises))
	for i, e := range c.Exercises {
		var joints [3]pose.Landmark
		for j, name := range e.Joints {
			lm, err := pose.ParseLandmark(name)
			if err != nil {
				return nil, fmt.Errorf("entry %d (%s): joint %d: %w", i, e.ID, j, err)
			}
			joints[j] = lm
		}
		profiles = append(profiles, exercise.Profile{
			ID:     e.ID,
			Name:   e.Name,
			Joints: joints,
			Up:     e.UpThreshold,
			Down:   e.DownThreshold,
		})
	}
	return exercise.NewCatalog(profiles...)
}
