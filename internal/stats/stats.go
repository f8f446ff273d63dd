// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package stats counts what happens to the fixes passing through the service and
// periodically logs the totals.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/wneessen/fixreporter/internal/logger"
)

const jobName = "stats_log_job"

// Counters are safe for concurrent use.
type Counters struct {
	received           atomic.Uint64
	parseFailures      atomic.Uint64
	inaccurate         atomic.Uint64
	projectionFailures atomic.Uint64
	skipped            atomic.Uint64
	delivered          atomic.Uint64
	rejected           atomic.Uint64
	failed             atomic.Uint64
}

func (c *Counters) Received()          { c.received.Add(1) }
func (c *Counters) ParseFailure()      { c.parseFailures.Add(1) }
func (c *Counters) Inaccurate()        { c.inaccurate.Add(1) }
func (c *Counters) ProjectionFailure() { c.projectionFailures.Add(1) }
func (c *Counters) Skipped()           { c.skipped.Add(1) }
func (c *Counters) Delivered()         { c.delivered.Add(1) }
func (c *Counters) Rejected()          { c.rejected.Add(1) }
func (c *Counters) Failed()            { c.failed.Add(1) }

// Snapshot is a point-in-time copy of the Counters.
type Snapshot struct {
	Received           uint64
	ParseFailures      uint64
	Inaccurate         uint64
	ProjectionFailures uint64
	Skipped            uint64
	Delivered          uint64
	Rejected           uint64
	Failed             uint64
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Received:           c.received.Load(),
		ParseFailures:      c.parseFailures.Load(),
		Inaccurate:         c.inaccurate.Load(),
		ProjectionFailures: c.projectionFailures.Load(),
		Skipped:            c.skipped.Load(),
		Delivered:          c.delivered.Load(),
		Rejected:           c.rejected.Load(),
		Failed:             c.failed.Load(),
	}
}

// LogValue implements slog.LogValuer.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("received", s.Received),
		slog.Uint64("parse_failures", s.ParseFailures),
		slog.Uint64("inaccurate", s.Inaccurate),
		slog.Uint64("projection_failures", s.ProjectionFailures),
		slog.Uint64("skipped", s.Skipped),
		slog.Uint64("delivered", s.Delivered),
		slog.Uint64("rejected", s.Rejected),
		slog.Uint64("failed", s.Failed),
	)
}

// Logger periodically writes the counters to the log.
type Logger struct {
	counters  *Counters
	logger    *logger.Logger
	interval  time.Duration
	scheduler gocron.Scheduler
}

// NewLogger returns a stats Logger for the given counters and interval.
func NewLogger(counters *Counters, log *logger.Logger, interval time.Duration) *Logger {
	return &Logger{
		counters: counters,
		logger:   log,
		interval: interval,
	}
}

// Start schedules the stats job and starts the scheduler. A non-positive interval disables
// the job.
func (l *Logger) Start(ctx context.Context) error {
	if l.interval <= 0 {
		return nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(l.interval),
		gocron.NewTask(l.Log),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	l.scheduler = scheduler
	l.scheduler.Start()
	return nil
}

// Log writes the current counter values.
func (l *Logger) Log(context.Context) {
	l.logger.Info("fix statistics", slog.Any("stats", l.counters.Snapshot()))
}

// Shutdown stops the scheduler if it was started.
func (l *Logger) Shutdown() error {
	if l.scheduler == nil {
		return nil
	}
	return l.scheduler.Shutdown()
}
