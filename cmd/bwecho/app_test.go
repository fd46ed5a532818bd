/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-bwlimit/bwgroup"
	"github.com/acronis/go-bwlimit/log"
	"github.com/acronis/go-bwlimit/log/logtest"
	"github.com/acronis/go-bwlimit/testutil"
)

const waitTimeout = 3 * time.Second

func writeConfigFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadAppConfig(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
log:
  level: debug
bwgroup:
  readRate: 2M
  writeRate: 512K
  tickInterval: 100ms
server:
  address: 127.0.0.1:7171
  chunkSize: 4K
metricsServer:
  enabled: false
  constLabels:
    instance: edge-1
`)
	cfg, err := loadAppConfig(path)
	require.NoError(t, err)
	require.Equal(t, log.LevelDebug, cfg.Log.Level)
	require.EqualValues(t, 2*1024*1024, cfg.Group.ReadRate)
	require.EqualValues(t, 512*1024, cfg.Group.WriteRate)
	require.Equal(t, 100*time.Millisecond, cfg.Group.TickInterval)
	require.Equal(t, "127.0.0.1:7171", cfg.Server.Address)
	require.EqualValues(t, 4096, cfg.Server.ChunkSize)
	require.False(t, cfg.Metrics.Enabled)
	require.Equal(t, map[string]string{"instance": "edge-1"}, cfg.Metrics.ConstLabels)
}

func TestLoadAppConfig_JSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{"bwgroup": {"readRate": 1000, "writeRate": "1K"}}`)
	cfg, err := loadAppConfig(path)
	require.NoError(t, err)
	require.EqualValues(t, 1000, cfg.Group.ReadRate)
	require.EqualValues(t, 1024, cfg.Group.WriteRate)
	require.Equal(t, bwgroup.DefaultTickInterval, cfg.Group.TickInterval)
}

func TestLoadAppConfig_EnvVars(t *testing.T) {
	t.Setenv("BWECHO_SERVER_ADDRESS", "127.0.0.1:7272")
	t.Setenv("BWECHO_BWGROUP_READRATE", "256K")

	cfg, err := loadAppConfig("")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7272", cfg.Server.Address)
	require.EqualValues(t, 256*1024, cfg.Group.ReadRate)
	require.EqualValues(t, bwgroup.DefaultWriteRate, cfg.Group.WriteRate)
	require.True(t, cfg.Metrics.Enabled)
}

func TestLoadAppConfig_Errors(t *testing.T) {
	_, err := loadAppConfig(writeConfigFile(t, "config.yaml", "bwgroup:\n  readRate: 0\n"))
	require.EqualError(t, err, "load config: bwgroup.readRate: must be positive")

	_, err = loadAppConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestApp_Run(t *testing.T) {
	cfg := newAppConfig()
	cfg.Group = bwgroup.NewDefaultConfig()
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Server.ChunkSize = 1024
	cfg.Server.StatsInterval = 20 * time.Millisecond
	cfg.Metrics.Enabled = true
	cfg.Metrics.Address = testutil.GetLocalAddrWithFreeTCPPort()
	cfg.Metrics.ConstLabels = map[string]string{"instance": "test"}

	logger := logtest.NewRecorder()
	a, err := newApp(cfg, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- a.run(ctx) }()

	select {
	case <-a.server.Started():
	case <-time.After(waitTimeout):
		t.Fatal("echo server was not started")
	}
	require.NoError(t, testutil.WaitListeningServer(cfg.Metrics.Address, waitTimeout))

	client, err := net.Dial("tcp", a.server.Addr().String())
	require.NoError(t, err)
	_, err = client.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(waitTimeout)))
	buf := make([]byte, 5)
	_, err = io.ReadFull(client, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))
	require.NoError(t, client.Close())

	resp, err := http.Get("http://" + cfg.Metrics.Address + "/metrics") //nolint:gosec,noctx // test
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	require.Contains(t, string(body), `bwecho_bwgroup_bytes_total{direction="read",go_bwlimit_version=`)
	require.Contains(t, string(body), `instance="test"`)

	require.Eventually(t, func() bool {
		_, found := logger.FindEntry("echo server stats")
		return found
	}, waitTimeout, 10*time.Millisecond)

	cancel()
	select {
	case err = <-runErr:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("app was not stopped")
	}
	require.Equal(t, 0, a.group.Len())

	_, found := logger.FindEntry("bandwidth group closed")
	require.True(t, found)

}

func TestApp_RunFatalError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { require.NoError(t, ln.Close()) }()

	cfg := newAppConfig()
	cfg.Group = bwgroup.NewDefaultConfig()
	cfg.Server.Address = ln.Addr().String()
	cfg.Server.ChunkSize = 1024
	cfg.Metrics.Enabled = false

	a, err := newApp(cfg, logtest.NewRecorder())
	require.NoError(t, err)
	require.Nil(t, a.metricsServer)
	require.Error(t, a.run(context.Background()))
}

func TestNewApp_InvalidGroupConfig(t *testing.T) {
	cfg := newAppConfig()
	cfg.Group = bwgroup.NewDefaultConfig()
	cfg.Group.ReadRate = 0
	_, err := newApp(cfg, logtest.NewRecorder())
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	require.Contains(t, buf.String(), "bwecho "+Version)
	require.Contains(t, buf.String(), "go-bwlimit: ")
}

func TestCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	require.True(t, names["run"])
	require.True(t, names["version"])
	require.NotNil(t, runCmd.Flags().Lookup("listen"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}
