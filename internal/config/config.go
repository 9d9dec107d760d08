package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/frojs/relay/internal/domain"
	"github.com/frojs/relay/internal/protocol"
)

type Config struct {
	Mode             string                      `mapstructure:"mode"`
	Port             int                         `mapstructure:"port"`
	StaticPath       string                      `mapstructure:"static_path"`
	Secret           string                      `mapstructure:"secret"`
	ValidateMessages bool                        `mapstructure:"validate_messages"`
	Domains          []domain.Tenant             `mapstructure:"domains"`
	Flooding         map[string]domain.FloodRule `mapstructure:"flooding"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "hi")
	v.SetDefault("validate_messages", true)
	v.SetDefault("flooding", map[string]domain.FloodRule{
		"say": {
			ResetInterval: 3 * time.Second,
			MaxUpdates:    5,
			ErrorMessage:  "Stop that shit",
		},
		"avatar": {
			ResetInterval: 5 * time.Second,
			MaxUpdates:    1,
			ErrorMessage:  "Who are you, Arturo Brachetti?",
		},
		"name": {
			ResetInterval: 5 * time.Second,
			MaxUpdates:    1,
			ErrorMessage:  "Please calm your identity crisis",
		},
	})
	v.SetDefault("domains", []map[string]string{
		{"ns": "sybolt", "tenant": "sybolt.com"},
		{"ns": "universe", "tenant": "frojs.com"},
	})

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Domains: %d\n", cfg.Mode, cfg.Port, len(cfg.Domains))
	return &cfg, nil
}

// FloodRules keys the flooding table by message kind for the guard.
func (c *Config) FloodRules() map[protocol.Kind]domain.FloodRule {
	out := make(map[protocol.Kind]domain.FloodRule, len(c.Flooding))
	for kind, rule := range c.Flooding {
		out[protocol.Kind(kind)] = rule
	}
	return out
}
