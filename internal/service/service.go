// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/fixreporter/internal/config"
	"github.com/wneessen/fixreporter/internal/gga"
	"github.com/wneessen/fixreporter/internal/http"
	"github.com/wneessen/fixreporter/internal/logger"
	"github.com/wneessen/fixreporter/internal/motion"
	"github.com/wneessen/fixreporter/internal/projection"
	"github.com/wneessen/fixreporter/internal/reporter"
	"github.com/wneessen/fixreporter/internal/source"
	"github.com/wneessen/fixreporter/internal/stats"
)

// MaxAccuracy is the largest accuracy value in meters a fix may have to be considered.
const MaxAccuracy = 100.0

// sender dispatches a payload to the remote endpoint.
type sender interface {
	Send(ctx context.Context, payload reporter.Payload) reporter.Report
}

type Service struct {
	config    *config.Config
	logger    *logger.Logger
	parser    gga.Parser
	projector projection.Projector
	state     *motion.State
	policy    *motion.Policy
	sender    sender
	counters  *stats.Counters
	statsLog  *stats.Logger

	newSource func(context.Context) (source.Source, error)
	now       func() time.Time
}

func New(conf *config.Config, log *logger.Logger) (*Service, error) {
	if conf == nil {
		return nil, errors.New("config must not be nil")
	}
	counters := new(stats.Counters)
	state := motion.NewState(time.Now())
	limits := motion.Limits{
		Distance:   conf.Motion.DistanceLimit,
		Moving:     conf.Motion.MovingTimeLimit,
		Stationary: conf.Motion.StationaryTimeLimit,
	}

	service := &Service{
		config:    conf,
		logger:    log,
		parser:    gga.Parser{StrictChecksum: conf.NMEA.StrictChecksum},
		projector: projection.NewUTM(),
		state:     state,
		policy:    motion.NewPolicy(limits, state),
		sender:    reporter.New(http.New(log), log, conf.API.URL, conf.API.MaxRetries, conf.API.Timeout),
		counters:  counters,
		statsLog:  stats.NewLogger(counters, log, conf.Stats.Interval),
		now:       time.Now,
	}
	newSource, err := service.selectSource()
	if err != nil {
		return nil, err
	}
	service.newSource = newSource

	return service, nil
}

// Run opens the configured source and processes its readings one by one until the source
// ends or the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.statsLog.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.statsLog.Shutdown(); err != nil {
			s.logger.Error("failed to shut down stats scheduler", logger.Err(err))
		}
	}()

	src, err := s.newSource(ctx)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			s.logger.Error("failed to close source", logger.Err(err))
		}
	}()

	for {
		reading, err := src.Receive(ctx)
		switch {
		case errors.Is(err, source.ErrEndOfStream):
			s.logger.Info("source reached end of stream")
			return nil
		case ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		}
		s.process(ctx, reading)
	}
}

// State returns the motion state of the service.
func (s *Service) State() *motion.State {
	return s.state
}

// Stats returns the current statistics.
func (s *Service) Stats() stats.Snapshot {
	return s.counters.Snapshot()
}

// process runs a single reading through the pipeline. Every failure skips the reading.
func (s *Service) process(ctx context.Context, reading source.Reading) {
	s.counters.Received()

	fix, ok := s.resolveFix(reading)
	if !ok {
		return
	}
	if fix.HorizontalAccuracy > MaxAccuracy {
		s.counters.Inaccurate()
		s.logger.Debug("fix accuracy too low, skipping", slog.Float64("accuracy", fix.HorizontalAccuracy))
		return
	}

	coords, err := s.projector.Project(fix.Position)
	if err != nil {
		s.counters.ProjectionFailure()
		s.logger.Warn("failed to project fix", logger.Err(err),
			slog.Float64("lat", fix.Position.Lat), slog.Float64("lon", fix.Position.Lon))
		return
	}
	grid := coords.Floor()

	now := s.now()
	decision := s.policy.Evaluate(fix, now)
	s.logger.Debug("evaluated fix", slog.String("action", decision.Action.String()),
		slog.Float64("distance", decision.Distance), slog.Duration("elapsed", decision.Elapsed),
		slog.Bool("moved", decision.Moved))
	if decision.Action != motion.Report {
		s.counters.Skipped()
		return
	}

	report := s.sender.Send(ctx, reporter.Payload{
		Easting:  grid.Easting,
		Northing: grid.Northing,
		RadioID:  s.config.RadioID,
		Token:    s.config.Token,
	})
	switch report.Outcome {
	case reporter.Delivered:
		s.counters.Delivered()
	case reporter.Rejected, reporter.Unexpected:
		s.counters.Rejected()
	default:
		s.counters.Failed()
	}
	if report.Result != reporter.Sent {
		return
	}

	s.state.Update(fix.Position, now)
	s.logger.Info("position reported", slog.Int64("x", grid.Easting), slog.Int64("y", grid.Northing),
		slog.String("outcome", report.Outcome.String()), slog.Int("attempts", report.Attempts))
}

// resolveFix returns the fix of a reading, parsing the raw payload if needed.
func (s *Service) resolveFix(reading source.Reading) (gga.Fix, bool) {
	if reading.Fix != nil {
		return *reading.Fix, true
	}
	fix, err := s.parser.Parse(gga.Extract(reading.Payload))
	if err != nil {
		s.counters.ParseFailure()
		s.logger.Debug("no usable fix in datagram", logger.Err(err), slog.String("from", reading.From))
		return fix, false
	}
	return fix, true
}
