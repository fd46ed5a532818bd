/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package echoserver

import (
	"errors"
	"time"

	"github.com/acronis/go-bwlimit/config"
)

const cfgDefaultKeyPrefix = "server"

const (
	cfgKeyAddress         = "address"
	cfgKeyChunkSize       = "chunkSize"
	cfgKeyShutdownTimeout = "shutdownTimeout"
	cfgKeyStatsInterval   = "statsInterval"
)

// Default values.
const (
	DefaultAddress         = ":7070"
	DefaultChunkSize       = 16 * 1024
	DefaultShutdownTimeout = 5 * time.Second
	DefaultStatsInterval   = time.Minute
)

// Config represents a set of configuration parameters for the echo server.
type Config struct {
	Address         string            `mapstructure:"address" yaml:"address" json:"address"`
	ChunkSize       config.BytesCount `mapstructure:"chunkSize" yaml:"chunkSize" json:"chunkSize"`
	ShutdownTimeout time.Duration     `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout" json:"shutdownTimeout"`

	// StatsInterval is the period of logging traffic statistics. Zero disables it.
	StatsInterval time.Duration `mapstructure:"statsInterval" yaml:"statsInterval" json:"statsInterval"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.Address = DefaultAddress
	cfg.ChunkSize = DefaultChunkSize
	cfg.ShutdownTimeout = DefaultShutdownTimeout
	cfg.StatsInterval = DefaultStatsInterval
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the echo server in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyChunkSize, DefaultChunkSize)
	dp.SetDefault(cfgKeyShutdownTimeout, DefaultShutdownTimeout.String())
	dp.SetDefault(cfgKeyStatsInterval, DefaultStatsInterval.String())
}

// Set sets echo server configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.Address == "" {
		return dp.WrapKeyErr(cfgKeyAddress, errors.New("cannot be empty"))
	}
	if c.ChunkSize, err = dp.GetBytesCount(cfgKeyChunkSize); err != nil {
		return err
	}
	if c.ChunkSize == 0 {
		return dp.WrapKeyErr(cfgKeyChunkSize, errors.New("must be positive"))
	}
	if c.ShutdownTimeout, err = dp.GetDuration(cfgKeyShutdownTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyShutdownTimeout, errors.New("must not be negative"))
	}
	if c.StatsInterval, err = dp.GetDuration(cfgKeyStatsInterval); err != nil {
		return err
	}
	if c.StatsInterval < 0 {
		return dp.WrapKeyErr(cfgKeyStatsInterval, errors.New("must not be negative"))
	}
	return nil
}
