/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyPrefixedDataProvider(t *testing.T) {
	va := NewViperAdapter()
	kp := NewKeyPrefixedDataProvider(va, "groups.uploads")

	kp.SetDefault("readRate", "1M")
	kp.Set("tickInterval", "100ms")
	require.True(t, va.IsSet("groups.uploads.readRate"))
	require.True(t, kp.IsSet("tickInterval"))
	require.False(t, kp.IsSet("writeRate"))

	rate, err := kp.GetBytesCount("readRate")
	require.NoError(t, err)
	require.EqualValues(t, 1024*1024, rate)

	str, err := kp.GetString("tickInterval")
	require.NoError(t, err)
	require.Equal(t, "100ms", str)

	require.EqualError(t, kp.WrapKeyErr("writeRate", errors.New("must be positive")),
		"groups.uploads.writeRate: must be positive")

	va.Set("groups.uploads.writeRate", "slow")
	_, err = kp.GetBytesCount("writeRate")
	require.Error(t, err)
	require.Contains(t, err.Error(), "groups.uploads.writeRate: ")
}

func TestKeyPrefixedDataProvider_EmptyPrefix(t *testing.T) {
	va := NewViperAdapter()
	kp := NewKeyPrefixedDataProvider(va, "")
	kp.Set("address", ":7070")
	require.Equal(t, ":7070", va.Get("address"))
	require.EqualError(t, kp.WrapKeyErr("address", errors.New("bad")), "address: bad")
}
