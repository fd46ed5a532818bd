/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwgroup

import (
	"fmt"
	"time"

	"github.com/acronis/go-bwlimit/budget"
	"github.com/acronis/go-bwlimit/config"
)

const cfgDefaultKeyPrefix = "bwgroup"

const (
	cfgKeyReadRate     = "readRate"
	cfgKeyWriteRate    = "writeRate"
	cfgKeyReadBurst    = "readBurst"
	cfgKeyWriteBurst   = "writeBurst"
	cfgKeyTickInterval = "tickInterval"
)

// Default values.
const (
	DefaultReadRate     = 1024 * 1024
	DefaultWriteRate    = 1024 * 1024
	DefaultTickInterval = budget.DefaultTick
)

// Config represents a set of configuration parameters of a bandwidth group.
// Rates are numbers of bytes per second and may be written in human-readable form ("512K", "1M").
// Zero bursts mean one tick worth of the corresponding rate.
type Config struct {
	ReadRate     config.BytesCount `mapstructure:"readRate" yaml:"readRate" json:"readRate"`
	WriteRate    config.BytesCount `mapstructure:"writeRate" yaml:"writeRate" json:"writeRate"`
	ReadBurst    config.BytesCount `mapstructure:"readBurst" yaml:"readBurst" json:"readBurst"`
	WriteBurst   config.BytesCount `mapstructure:"writeBurst" yaml:"writeBurst" json:"writeBurst"`
	TickInterval time.Duration     `mapstructure:"tickInterval" yaml:"tickInterval" json:"tickInterval"`

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

// NewDefaultConfig creates a new instance of the Config with default values (1 MiB/s in both directions).
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.ReadRate = DefaultReadRate
	cfg.WriteRate = DefaultWriteRate
	cfg.TickInterval = DefaultTickInterval
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyReadRate, DefaultReadRate)
	dp.SetDefault(cfgKeyWriteRate, DefaultWriteRate)
	dp.SetDefault(cfgKeyTickInterval, DefaultTickInterval.String())
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.ReadRate, err = dp.GetBytesCount(cfgKeyReadRate); err != nil {
		return err
	}
	if c.ReadRate == 0 {
		return dp.WrapKeyErr(cfgKeyReadRate, fmt.Errorf("must be positive"))
	}
	if c.WriteRate, err = dp.GetBytesCount(cfgKeyWriteRate); err != nil {
		return err
	}
	if c.WriteRate == 0 {
		return dp.WrapKeyErr(cfgKeyWriteRate, fmt.Errorf("must be positive"))
	}
	if c.ReadBurst, err = dp.GetBytesCount(cfgKeyReadBurst); err != nil {
		return err
	}
	if c.WriteBurst, err = dp.GetBytesCount(cfgKeyWriteBurst); err != nil {
		return err
	}
	if c.TickInterval, err = dp.GetDuration(cfgKeyTickInterval); err != nil {
		return err
	}
	if c.TickInterval < 0 {
		return dp.WrapKeyErr(cfgKeyTickInterval, fmt.Errorf("must not be negative"))
	}
	return nil
}

// BudgetConfig converts the Config to the configuration of the shared budget.
func (c *Config) BudgetConfig() budget.Config {
	return budget.Config{
		ReadRate:   uint64(c.ReadRate),
		WriteRate:  uint64(c.WriteRate),
		ReadBurst:  uint64(c.ReadBurst),
		WriteBurst: uint64(c.WriteBurst),
		Tick:       c.TickInterval,
	}
}
