/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-bwlimit/log"
)

func TestRecorder(t *testing.T) {
	logRecorder := NewRecorder()
	logRecorder.Warn("bandwidth report on removed handle", log.Int("bytes", 10), log.String("direction", "read"))
	logRecorder.Info("bandwidth group created")

	require.Len(t, logRecorder.Entries(), 2)

	_, found := logRecorder.FindEntry("unknown")
	require.False(t, found)

	logEntry, found := logRecorder.FindEntry("bandwidth report on removed handle")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, logEntry.Level)

	num, found := logEntry.IntField("bytes")
	require.True(t, found)
	require.EqualValues(t, 10, num)

	dir, found := logEntry.StringField("direction")
	require.True(t, found)
	require.Equal(t, "read", dir)

	_, found = logEntry.StringField("bytes")
	require.False(t, found)
}

func TestRecorderWith(t *testing.T) {
	logRecorder := NewRecorder()
	derived := logRecorder.With(log.String("group", "g1"))
	derived.Debug("broadcast suspend")
	derived.Debug("broadcast suspend")
	derived.WithLevel(log.LevelInfo).Debug("dropped")

	entries := logRecorder.FindAllEntries("broadcast suspend")
	require.Len(t, entries, 2)
	group, found := entries[0].StringField("group")
	require.True(t, found)
	require.Equal(t, "g1", group)

	_, found = logRecorder.FindEntry("dropped")
	require.False(t, found)

	logRecorder.Reset()
	require.Empty(t, logRecorder.Entries())
}
