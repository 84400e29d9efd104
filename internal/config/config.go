package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Google   GoogleConfig   `json:"google"`
	Auth     AuthConfig     `json:"auth"`
	Schedule ScheduleConfig `json:"schedule"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type DatabaseConfig struct {
	URL string `json:"url"`
}

// GoogleConfig holds the OAuth client used for calendar mirroring.
type GoogleConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
}

type AuthConfig struct {
	// JWTSecret enables HMAC-signed bearer tokens when set.
	JWTSecret string `json:"jwt_secret"`
	// StaticTokens are accepted as-is, mainly for local development.
	StaticTokens []string `json:"static_tokens"`
}

// ScheduleConfig defines the dispatch board grid.
type ScheduleConfig struct {
	// BlockMinutes is the width of one time block; must divide a full day.
	BlockMinutes int `json:"block_minutes"`
	// Timezone is the civil timezone of the business, used for event times.
	Timezone string `json:"timezone"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

func (c *ScheduleConfig) SetDefaults() {
	if c.BlockMinutes == 0 {
		c.BlockMinutes = 60
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Berlin"
	}
}

func (c ScheduleConfig) Validate() error {
	if c.BlockMinutes <= 0 || 1440%c.BlockMinutes != 0 {
		return fmt.Errorf("block_minutes %d must evenly divide a day", c.BlockMinutes)
	}
	return nil
}

func (c DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database url is required")
	}
	return nil
}

// Load reads an optional yaml/json config file, applies DISPATCH_* environment
// overrides (DISPATCH_DATABASE__URL -> database.url), then defaults and
// validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var parser koanf.Parser
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				parser = yaml.Parser()
			case ".json":
				parser = json.Parser()
			default:
				return nil, fmt.Errorf("unsupported config format: %s", path)
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider("DISPATCH_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "dispatch_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Schedule.SetDefaults()
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
