/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package echoserver

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-bwlimit/config"
)

func loadConfig(cfgData string, dataType config.DataType, cfg *Config) error {
	return config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBufferString(cfgData), dataType, cfg)
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgDataType config.DataType
		cfgData     string
		expectedCfg func() *Config
	}{
		{
			name:        "defaults",
			cfgDataType: config.DataTypeYAML,
			expectedCfg: func() *Config { return NewDefaultConfig() },
		},
		{
			name:        "yaml config",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
server:
  address: 127.0.0.1:7777
  chunkSize: 4K
  shutdownTimeout: 1m
  statsInterval: 10s
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Address = "127.0.0.1:7777"
				cfg.ChunkSize = 4096
				cfg.ShutdownTimeout = time.Minute
				cfg.StatsInterval = 10 * time.Second
				return cfg
			},
		},
		{
			name:        "json config",
			cfgDataType: config.DataTypeJSON,
			cfgData:     `{"server": {"chunkSize": 512, "shutdownTimeout": "0s", "statsInterval": 0}}`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.ChunkSize = 512
				cfg.ShutdownTimeout = 0
				cfg.StatsInterval = 0
				return cfg
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			require.NoError(t, loadConfig(tt.cfgData, tt.cfgDataType, cfg))
			require.Equal(t, tt.expectedCfg(), cfg)
		})
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{name: "empty address", data: `server: {address: ""}`, errMsg: "server.address: cannot be empty"},
		{name: "zero chunk", data: `server: {chunkSize: 0}`, errMsg: "server.chunkSize: must be positive"},
		{name: "negative timeout", data: `server: {shutdownTimeout: -1s}`, errMsg: "server.shutdownTimeout: must not be negative"},
		{name: "negative stats interval", data: `server: {statsInterval: -1m}`, errMsg: "server.statsInterval: must not be negative"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.EqualError(t, loadConfig(tt.data, config.DataTypeYAML, NewConfig()), tt.errMsg)
		})
	}
}

func TestConfigWithKeyPrefix(t *testing.T) {
	cfg := NewConfig(WithKeyPrefix("echo"))
	require.NoError(t, loadConfig("echo:\n  address: \":1234\"\n", config.DataTypeYAML, cfg))
	require.Equal(t, ":1234", cfg.Address)
	require.EqualValues(t, DefaultChunkSize, cfg.ChunkSize)
}
