package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration. It is read from a JSON file, which is
// created with defaults when missing, and then overridden from the
// environment.
type Config struct {
	Host           string `json:"host"            env:"CMPPFEED_HOST"`
	Port           string `json:"port"            env:"CMPPFEED_PORT"`
	ServerName     string `json:"server_name"     env:"CMPPFEED_SERVER_NAME"`
	WelcomeMessage string `json:"welcome_message" env:"CMPPFEED_WELCOME_MESSAGE"`
	LogDir         string `json:"log_dir"         env:"CMPPFEED_LOG_DIR"`
	AllowOrigin    string `json:"allow_origin"    env:"CMPPFEED_ALLOW_ORIGIN"`
	MaxBodyBytes   int64  `json:"max_body_bytes"  env:"CMPPFEED_MAX_BODY_BYTES"`
	mu             sync.RWMutex
	configFile     string
}

func NewConfig(filename string) *Config {
	if filename == "" {
		filename = "serverconfig.json"
	}
	return &Config{
		configFile: filename,
		// Defaults
		Host:           "localhost",
		Port:           "8999",
		ServerName:     "CMPPFeed Server",
		WelcomeMessage: "Post from the terminal client to see your feed.",
		LogDir:         "logs",
		AllowOrigin:    "*",
		MaxBodyBytes:   100 << 10,
	}
}

// Load reads the config file, writes back any missing defaults, then applies
// environment overrides. Environment values are never written to the file.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadFile(); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configFile)
	if errors.Is(err, os.ErrNotExist) {
		// Create default config if not exists
		return c.saveInternal()
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", c.configFile, err)
	}

	// Auto-update config file with any missing fields (defaults)
	return c.saveInternal()
}

func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saveInternal()
}

func (c *Config) saveInternal() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.configFile, data, 0644)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return net.JoinHostPort(c.Host, c.Port)
}
