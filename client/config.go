package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

// Config holds the client settings.
//
// Sources, later ones winning: built-in defaults, the JSON file named by
// --config, CMPPFEED_* environment variables, then explicit flags.
type Config struct {
	ServerURL string `json:"server_url" env:"CMPPFEED_SERVER"`
	DBPath    string `json:"db_path"    env:"CMPPFEED_DB"`
	LogFile   string `json:"log_file"   env:"CMPPFEED_LOG_FILE"`
	Ephemeral bool   `json:"ephemeral"  env:"CMPPFEED_EPHEMERAL"`
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8999"
	c.DBPath = "cmppfeed.db"
	c.LogFile = "client.log"
	c.Ephemeral = false
}

// LoadConfig builds a Config from args (without the program name).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := pflag.NewFlagSet("client", pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "path to a JSON config file")
	server := fs.StringP("server", "s", cfg.ServerURL, "base URL of the posting server")
	dbPath := fs.String("db", cfg.DBPath, "path of the local session database")
	logFile := fs.String("log-file", cfg.LogFile, "file to write client logs to")
	ephemeral := fs.Bool("ephemeral", cfg.Ephemeral, "keep the identity in memory only")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configFile != "" {
		if err := parseJSON(*configFile, cfg); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if fs.Changed("server") {
		cfg.ServerURL = *server
	}
	if fs.Changed("db") {
		cfg.DBPath = *dbPath
	}
	if fs.Changed("log-file") {
		cfg.LogFile = *logFile
	}
	if fs.Changed("ephemeral") {
		cfg.Ephemeral = *ephemeral
	}
	return cfg, nil
}

// parseJSON overlays cfg with the fields present in the file.
func parseJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
