/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-bwlimit/bwgroup"
	"github.com/acronis/go-bwlimit/config"
	"github.com/acronis/go-bwlimit/echoserver"
	"github.com/acronis/go-bwlimit/evloop"
	"github.com/acronis/go-bwlimit/log"
	"github.com/acronis/go-bwlimit/metricsserver"
	"github.com/acronis/go-bwlimit/service"
)

const envVarsPrefix = "bwecho"

const metricsNamespace = "bwecho"

const statsStopTimeout = time.Second

type appConfig struct {
	Log     *log.Config
	Group   *bwgroup.Config
	Server  *echoserver.Config
	Metrics *metricsserver.Config
}

func newAppConfig() *appConfig {
	return &appConfig{
		Log:     log.NewConfig(),
		Group:   bwgroup.NewConfig(),
		Server:  echoserver.NewConfig(),
		Metrics: metricsserver.NewConfig(),
	}
}

// loadAppConfig loads configuration from the file (if the path is not empty) and environment variables.
func loadAppConfig(path string) (*appConfig, error) {
	cfg := newAppConfig()
	if err := config.NewDefaultLoader(envVarsPrefix).LoadFromPath(path, cfg.Log, cfg.Group, cfg.Server, cfg.Metrics); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

type app struct {
	loop          *evloop.Loop
	group         *bwgroup.Group
	server        *echoserver.Server
	metricsServer *metricsserver.MetricsServer
	service       *service.Service
	logger        log.FieldLogger
}

func newApp(cfg *appConfig, logger log.FieldLogger) (*app, error) {
	loop := evloop.New(logger)
	metrics := bwgroup.NewPrometheusMetricsWithOpts(bwgroup.PrometheusMetricsOpts{
		Namespace:   metricsNamespace,
		ConstLabels: cfg.Metrics.ConstLabels,
	})
	group, err := bwgroup.NewWithOpts(loop, cfg.Group, bwgroup.Opts{Logger: logger, Metrics: metrics})
	if err != nil {
		_ = loop.Stop(false)
		return nil, fmt.Errorf("create bandwidth group: %w", err)
	}

	a := &app{loop: loop, group: group, logger: logger}
	a.server = echoserver.NewWithOpts(cfg.Server, group, echoserver.Opts{Logger: logger, Metrics: metrics})
	units := []service.Unit{loop, a.server}
	if interval := cfg.Server.StatsInterval; interval > 0 {
		stats := service.NewPeriodicWorkerWithOpts(a.server.StatsWorker(), interval, logger,
			service.PeriodicWorkerOpts{Name: "echo-stats", InitialDelay: interval})
		units = append(units, service.NewWorkerUnitWithOpts(stats, service.WorkerUnitOpts{GracefulStopTimeout: statsStopTimeout}))
	}
	if cfg.Metrics.Enabled {
		a.metricsServer = metricsserver.New(cfg.Metrics, prometheus.DefaultGatherer, logger)
		units = append(units, a.metricsServer)
	}
	a.service = service.New(logger, service.NewCompositeUnit(units...))
	return a, nil
}

// run blocks until ctx is done, a shutdown signal is received or a unit fails.
func (a *app) run(ctx context.Context) error {
	runErr := a.service.StartContext(ctx)
	if err := a.group.Close(); err != nil {
		a.logger.Warn("close bandwidth group", log.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	var unitErr *service.CompositeUnitError
	if errors.As(runErr, &unitErr) {
		for _, err := range unitErr.UnitErrors {
			a.logger.Error("unit error", log.Error(err))
		}
	}
	return runErr
}
