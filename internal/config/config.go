// Package config loads service settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	History   HistoryConfig   `yaml:"history"`
	AI        AIConfig        `yaml:"ai"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type HistoryConfig struct {
	Limit int `yaml:"limit"`
}

// AIConfig configures the Gemini solver. An empty APIKey disables it and a
// zero Timeout leaves calls unbounded.
type AIConfig struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// TelemetryConfig toggles OTLP export per signal. Prometheus /metrics is
// always served.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	Traces      bool   `yaml:"traces"`
	Metrics     bool   `yaml:"metrics"`
	Logs        bool   `yaml:"logs"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		History: HistoryConfig{Limit: 50},
		AI: AIConfig{
			Model:       "gemini-3-flash-preview",
			Temperature: 0.1,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "omnicalc",
			Traces:      true,
			Metrics:     true,
		},
	}
}

// Load reads path (skipped when empty) over the defaults and then applies
// the process environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString(getenv, "OMNICALC_ADDR", &cfg.Server.Addr)
	setString(getenv, "OMNICALC_AI_MODEL", &cfg.AI.Model)
	setString(getenv, "OTEL_SERVICE_NAME", &cfg.Telemetry.ServiceName)

	// API_KEY is the name the browser build reads; GEMINI_API_KEY wins.
	setString(getenv, "API_KEY", &cfg.AI.APIKey)
	setString(getenv, "GEMINI_API_KEY", &cfg.AI.APIKey)

	if err := setDuration(getenv, "OMNICALC_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	if err := setDuration(getenv, "OMNICALC_AI_TIMEOUT", &cfg.AI.Timeout); err != nil {
		return err
	}

	if v := getenv("OMNICALC_HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OMNICALC_HISTORY_LIMIT: %w", err)
		}
		cfg.History.Limit = n
	}

	if v := getenv("OMNICALC_AI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("OMNICALC_AI_TEMPERATURE: %w", err)
		}
		cfg.AI.Temperature = float32(f)
	}

	for key, dst := range map[string]*bool{
		"OMNICALC_OTLP_TRACES":  &cfg.Telemetry.Traces,
		"OMNICALC_OTLP_METRICS": &cfg.Telemetry.Metrics,
		"OMNICALC_OTLP_LOGS":    &cfg.Telemetry.Logs,
	} {
		if err := setBool(getenv, key, dst); err != nil {
			return err
		}
	}
	return nil
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(getenv func(string) string, key string, dst *time.Duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(getenv func(string) string, key string, dst *bool) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.History.Limit < 1 {
		errs = append(errs, fmt.Errorf("history.limit must be at least 1, got %d", c.History.Limit))
	}
	if c.AI.Model == "" {
		errs = append(errs, errors.New("ai.model is required"))
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("ai.temperature must be within [0, 2], got %g", c.AI.Temperature))
	}
	if c.AI.Timeout < 0 {
		errs = append(errs, errors.New("ai.timeout must not be negative"))
	}
	if c.Telemetry.ServiceName == "" {
		errs = append(errs, errors.New("telemetry.service_name is required"))
	}
	return errors.Join(errs...)
}

// SolverEnabled reports whether an API key is configured.
func (c Config) SolverEnabled() bool { return c.AI.APIKey != "" }
