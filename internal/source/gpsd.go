// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package source

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/fixreporter/internal/gga"
	"github.com/wneessen/fixreporter/internal/logger"
	"github.com/wneessen/fixreporter/internal/position"
)

const (
	gpsdName            = "gpsd"
	gpsdReconnectPeriod = time.Second * 30
	fallbackAccuracy    = 1e6 // effectively unusable
)

// GPSD streams TPV reports from a gpsd daemon and turns them into fixes.
type GPSD struct {
	addr   string
	logger *logger.Logger
	period time.Duration
	out    chan Reading
	cancel context.CancelFunc

	dialFn func(addr string) (watcher, error)
}

// watcher is the subset of a gpsd session we rely on.
type watcher interface {
	AddFilter(class string, f gpsd.Filter)
	Watch() chan bool
}

// NewGPSD connects to the gpsd daemon at addr in the background. Failed or lost connections
// are retried until ctx is cancelled.
func NewGPSD(ctx context.Context, addr string, log *logger.Logger) *GPSD {
	g := newGPSD(addr, log)
	g.start(ctx)
	return g
}

func newGPSD(addr string, log *logger.Logger) *GPSD {
	return &GPSD{
		addr:   addr,
		logger: log,
		period: gpsdReconnectPeriod,
		out:    make(chan Reading),
		dialFn: func(addr string) (watcher, error) {
			return gpsd.Dial(addr)
		},
	}
}

func (g *GPSD) start(ctx context.Context) {
	ctx, g.cancel = context.WithCancel(ctx)
	go g.run(ctx)
}

func (g *GPSD) run(ctx context.Context) {
	defer close(g.out)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		session, err := g.dialFn(g.addr)
		if err != nil {
			g.logger.Warn("failed to connect to gpsd", slog.String("addr", g.addr), logger.Err(err))
			if !sleepOrDone(ctx, g.period) {
				return
			}
			continue
		}

		session.AddFilter("TPV", func(r interface{}) {
			tpv, ok := r.(*gpsd.TPVReport)
			if !ok {
				return
			}
			fix, ok := tpvToFix(tpv)
			if !ok {
				return
			}
			select {
			case <-ctx.Done():
			case g.out <- Reading{Fix: &fix, ReceivedAt: time.Now(), From: gpsdName}:
			}
		})

		done := session.Watch()
		select {
		case <-ctx.Done():
			return
		case <-done:
			g.logger.Warn("gpsd connection lost, reconnecting", slog.String("addr", g.addr))
		}
		if !sleepOrDone(ctx, g.period) {
			return
		}
	}
}

// Receive blocks until the next fix arrives from gpsd.
func (g *GPSD) Receive(ctx context.Context) (Reading, error) {
	select {
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	case r, ok := <-g.out:
		if !ok {
			return Reading{}, ErrEndOfStream
		}
		return r, nil
	}
}

// Close stops the background connection handling.
func (g *GPSD) Close() error {
	if g.cancel != nil {
		g.cancel()
	}
	return nil
}

// tpvToFix converts a TPV report into a Fix. Reports without at least a 2D fix are dropped.
func tpvToFix(tpv *gpsd.TPVReport) (gga.Fix, bool) {
	if tpv == nil || tpv.Mode < gpsd.Mode2D {
		return gga.Fix{}, false
	}
	acc := fallbackAccuracy
	if tpv.Epx > 0 && tpv.Epy > 0 {
		acc = math.Hypot(tpv.Epx, tpv.Epy)
	}
	return gga.Fix{
		Position:           position.Position{Lat: tpv.Lat, Lon: tpv.Lon},
		HorizontalAccuracy: acc,
	}, true
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
