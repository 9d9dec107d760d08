package domain

import "time"

// FloodRule bounds how often one session may send a given message kind.
// Kinds without a rule are never throttled.
type FloodRule struct {
	ResetInterval time.Duration `mapstructure:"reset_interval" json:"reset_interval"`
	MaxUpdates    int           `mapstructure:"max_updates" json:"max_updates"`
	ErrorMessage  string        `mapstructure:"error_message" json:"error_message"`
}
