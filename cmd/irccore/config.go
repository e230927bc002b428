package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig is one server to connect to at startup.
type ServerConfig struct {
	Address  string   `yaml:"address"`
	Nick     string   `yaml:"nick"`
	Autojoin []string `yaml:"autojoin"`
}

// Config holds all client configuration.
type Config struct {
	Servers []ServerConfig `yaml:"servers"`
	Verbose bool           `yaml:"verbose"`
	Version string         `yaml:"version"`
}

// LoadConfig reads and parses a YAML configuration file.
// A missing file is not an error; the client starts idle.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	for i, sv := range cfg.Servers {
		if sv.Address == "" || sv.Nick == "" {
			return nil, fmt.Errorf("server %d: address and nick are required", i)
		}
	}
	return &cfg, nil
}
