/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestWorkerUnit_Start_Stop(t *testing.T) {
	t.Run("stop gracefully waits for the worker", func(t *testing.T) {
		var finished atomic.Bool
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(time.Millisecond * 20)
			finished.Store(true)
			return nil
		}))
		fatalErr := make(chan error, 1)
		go unit.Start(fatalErr)
		require.True(t, waitTrue(unit.started.Load, time.Second*3))

		require.NoError(t, unit.Stop(true))
		require.True(t, finished.Load())
		require.NoError(t, unit.Stop(true))
		require.Empty(t, fatalErr)
	})

	t.Run("stop gracefully with timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		unit := NewWorkerUnitWithOpts(WorkerFunc(func(ctx context.Context) error {
			<-release
			return nil
		}), WorkerUnitOpts{GracefulStopTimeout: time.Millisecond * 20})
		go unit.Start(make(chan error, 1))
		require.True(t, waitTrue(unit.started.Load, time.Second*3))

		require.ErrorIs(t, unit.Stop(true), ErrWorkerUnitStopTimeoutExceeded)
	})

	t.Run("stop before start", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return ctx.Err()
		}))
		require.NoError(t, unit.Stop(true))

		fatalErr := make(chan error, 1)
		unit.Start(fatalErr)
		require.ErrorIs(t, <-fatalErr, context.Canceled)
	})

	t.Run("worker error is fatal", func(t *testing.T) {
		errWorker := errors.New("worker failed")
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return errWorker
		}))
		fatalErr := make(chan error, 1)
		unit.Start(fatalErr)
		require.ErrorIs(t, <-fatalErr, errWorker)
	})
}
