/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureStd(t *testing.T, output Output, fn func()) []byte {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	if output == OutputStderr {
		old := os.Stderr
		os.Stderr = w
		defer func() { os.Stderr = old }()
	} else {
		old := os.Stdout
		os.Stdout = w
		defer func() { os.Stdout = old }()
	}
	fn()
	require.NoError(t, w.Close())
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func TestLoggerToStd(t *testing.T) {
	tests := []struct {
		name   string
		output Output
		level  Level
		msg    string
		err    error
	}{
		{name: "info to stdout", output: OutputStdout, level: LevelInfo, msg: "group created"},
		{name: "warn to stdout", output: OutputStdout, level: LevelWarn, msg: "report on removed handle"},
		{name: "error to stdout", output: OutputStdout, level: LevelError, msg: "accept failed", err: errors.New("boom")},
		{name: "info to stderr", output: OutputStderr, level: LevelInfo, msg: "group closed"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			data := captureStd(t, tt.output, func() {
				logger, closeFn := NewLogger(&Config{Output: tt.output, Format: FormatJSON, Level: LevelInfo})
				switch tt.level {
				case LevelInfo:
					logger.Info(tt.msg, Bytes("rate", 1024*1024))
				case LevelWarn:
					logger.Warn(tt.msg, Bytes("rate", 1024*1024))
				case LevelError:
					logger.Error(tt.msg, Bytes("rate", 1024*1024), Error(tt.err))
				}
				closeFn()
			})

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
			require.Equal(t, string(tt.level), entry["level"])
			require.Equal(t, tt.msg, entry["msg"])
			require.Equal(t, "1M", entry["rate"])
			require.EqualValues(t, os.Getpid(), entry["pid"])
			if tt.err != nil {
				require.Equal(t, tt.err.Error(), entry["error"])
			}
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	data := captureStd(t, OutputStdout, func() {
		logger, closeFn := NewLogger(&Config{Output: OutputStdout, Format: FormatJSON, Level: LevelWarn})
		logger.Debug("dropped debug")
		logger.Info("dropped info")
		logger.Warn("kept warn")
		logger.WithLevel(LevelError).Warn("dropped by WithLevel")
		logger.AtLevel(LevelError, func(logFunc LogFunc) {
			logFunc("kept via AtLevel")
		})
		closeFn()
	})
	out := string(data)
	require.NotContains(t, out, "dropped")
	require.Contains(t, out, "kept warn")
	require.Contains(t, out, "kept via AtLevel")
}

func TestLoggerTextFormat(t *testing.T) {
	data := captureStd(t, OutputStdout, func() {
		logger, closeFn := NewLogger(&Config{Output: OutputStdout, Format: FormatText, Level: LevelInfo, NoColor: true})
		logger.With(String("direction", "read")).Info("broadcast resume")
		closeFn()
	})
	out := string(data)
	require.Contains(t, out, "broadcast resume")
	require.Contains(t, out, "direction")
	require.Contains(t, out, "read")
}

func TestLoggerToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "bwecho-{{pid}}.log")
	cfg := NewDefaultConfig()
	cfg.Output = OutputFile
	cfg.File.Path = logPath

	logger, closeFn := NewLogger(cfg)
	logger.Info("written to file")
	closeFn()

	resolved := strings.ReplaceAll(logPath, "{{pid}}", strconv.Itoa(os.Getpid()))
	data, err := os.ReadFile(resolved)
	require.NoError(t, err)
	require.Contains(t, string(data), "written to file")
}

func TestDisabledLogger(t *testing.T) {
	data := captureStd(t, OutputStdout, func() {
		NewDisabledLogger().Error("nothing")
	})
	require.Empty(t, data)
}
