package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// HistoryCapacity bounds the in-memory message log; the oldest
	// messages are evicted beyond it.
	HistoryCapacity int `mapstructure:"history_capacity" yaml:"history_capacity"`
	// HistoryReplay is how many recent messages a joining client receives.
	HistoryReplay int `mapstructure:"history_replay" yaml:"history_replay"`
	// MessageRateLimit caps inbound messages per connection per minute.
	// Zero disables the limit.
	MessageRateLimit int `mapstructure:"message_rate_limit" yaml:"message_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		HistoryCapacity:   100,
		HistoryReplay:     20,
		MessageRateLimit:  120,
	}
}
