/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func makeUnits(n int, running *atomic.Int32) ([]*mockUnit, *CompositeUnit) {
	var mocks []*mockUnit
	var units []Unit
	for i := 0; i < n; i++ {
		u := newMockUnit(fmt.Sprintf("unit#%d", i), running)
		mocks = append(mocks, u)
		units = append(units, u)
	}
	return mocks, NewCompositeUnit(units...)
}

func TestCompositeUnit(t *testing.T) {
	t.Run("start and stop gracefully", func(t *testing.T) {
		var running atomic.Int32
		mocks, cu := makeUnits(3, &running)

		fatalErr := make(chan error, 1)
		started := make(chan struct{})
		go func() {
			cu.Start(fatalErr)
			close(started)
		}()
		require.True(t, waitTrue(func() bool { return running.Load() == 3 }, time.Second*3))

		require.NoError(t, cu.Stop(true))
		<-started
		require.Empty(t, fatalErr)
		require.EqualValues(t, 0, running.Load())
		for _, m := range mocks {
			require.EqualValues(t, 1, m.stopGracefullyCalled.Load())
		}
	})

	t.Run("stop errors are collected", func(t *testing.T) {
		var running atomic.Int32
		mocks, cu := makeUnits(3, &running)
		mocks[0].stopWithError = true
		mocks[2].stopWithError = true

		err := cu.Stop(true)
		var cuErr *CompositeUnitError
		require.ErrorAs(t, err, &cuErr)
		require.Len(t, cuErr.UnitErrors, 2)
		require.Contains(t, err.Error(), "unit#0: internal error")
		require.Contains(t, err.Error(), "unit#2: internal error")
	})

	t.Run("failed unit stops the others", func(t *testing.T) {
		errBind := errors.New("bind failed")
		var running atomic.Int32
		mocks, cu := makeUnits(3, &running)
		mocks[1].startError = errBind

		fatalErr := make(chan error, 1)
		cu.Start(fatalErr)

		err := <-fatalErr
		require.ErrorIs(t, err, errBind)
		require.EqualValues(t, 0, running.Load())
		for _, m := range mocks {
			require.EqualValues(t, 1, m.stopCalled.Load())
			require.EqualValues(t, 0, m.stopGracefullyCalled.Load())
		}
	})

	t.Run("metrics registration is delegated", func(t *testing.T) {
		var running atomic.Int32
		mocks, cu := makeUnits(2, &running)
		cu.MustRegisterMetrics()
		cu.UnregisterMetrics()
		for _, m := range mocks {
			require.EqualValues(t, 1, m.registerMetricsCalled.Load())
			require.EqualValues(t, 1, m.unregisterMetricsCalled.Load())
		}
	})
}
