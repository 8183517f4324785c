// Package config holds all aigpt configuration. Settings load from an
// optional YAML file with AIGPT_* environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all aigpt configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	LLM          LLMConfig          `yaml:"llm"`
	Persona      PersonaConfig      `yaml:"persona"`
	Relationship RelationshipConfig `yaml:"relationship"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Provider     string `yaml:"provider"` // "anthropic", "ollama", "none"
	Model        string `yaml:"model"`
	OllamaURL    string `yaml:"ollama_url"`
	OllamaModel  string `yaml:"ollama_model"`
	AnthropicKey string `yaml:"anthropic_key"`
}

type PersonaConfig struct {
	Name string `yaml:"name"`
}

type RelationshipConfig struct {
	Threshold  float64 `yaml:"threshold"`   // score at which transmission unlocks
	DecayRate  float64 `yaml:"decay_rate"`  // score lost per idle day
	DailyLimit int     `yaml:"daily_limit"` // interactions counted per calendar day
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38823,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		LLM: LLMConfig{
			Provider: "none",
			Model:    "claude-haiku-4-5-20251001",
		},
		Persona: PersonaConfig{
			Name: "ai",
		},
		Relationship: RelationshipConfig{
			Threshold:  100.0,
			DecayRate:  0.1,
			DailyLimit: 10,
		},
	}
}

// DefaultPath returns the default config file path: ~/.config/syui/ai/gpt/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "syui", "ai", "gpt", "config.yaml"), nil
}

// Load reads the config file at path (missing file is fine, defaults apply)
// and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AIGPT_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("AIGPT_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("AIGPT_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.LLM.OllamaURL = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.AnthropicKey = v
		if c.LLM.Provider == "none" {
			c.LLM.Provider = "anthropic"
		}
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
