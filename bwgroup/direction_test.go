/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwgroup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirection(t *testing.T) {
	require.Equal(t, "read", DirectionRead.String())
	require.Equal(t, "write", DirectionWrite.String())
	require.Equal(t, "unknown", Direction(7).String())

	require.True(t, DirectionRead.Valid())
	require.True(t, DirectionWrite.Valid())
	require.False(t, Direction(-1).Valid())
	require.False(t, Direction(7).Valid())
}

func TestDirections(t *testing.T) {
	dirs := Directions()
	require.Equal(t, []Direction{DirectionRead, DirectionWrite}, dirs)

	dirs[0] = DirectionWrite
	require.Equal(t, []Direction{DirectionRead, DirectionWrite}, Directions())
}

func TestGroup_SuspendedUnknownDirection(t *testing.T) {
	fb := &fakeBudget{readCredit: 10, writeCredit: 10}
	g, _ := newFakeBudgetGroup(t, fb, Opts{})
	handles := addHandles(t, g, 1)

	require.NoError(t, handles[0].ReportWrite(10))
	require.True(t, g.WriteSuspended())
	require.False(t, g.Suspended(Direction(7)))
	require.False(t, g.Suspended(Direction(-1)))
}
