// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package motion implements the dwell policy that decides whether a fix is reported upstream.
//
// The policy is a two-mode debounce: once the device moved further than the distance limit
// since the last report, a report is due after the moving time limit. While it stays within
// the distance limit, a report is only due after the stationary time limit.
package motion

import (
	"time"

	"github.com/wneessen/fixreporter/internal/gga"
	"github.com/wneessen/fixreporter/internal/position"
)

// Action is the outcome of a policy decision.
type Action int

const (
	Skip Action = iota
	Report
)

func (a Action) String() string {
	switch a {
	case Report:
		return "report"
	default:
		return "skip"
	}
}

// Limits holds the thresholds of the dwell policy.
type Limits struct {
	// Distance in meters a fix must be away from the last reported position to count as moved
	Distance   float64
	Moving     time.Duration
	Stationary time.Duration
}

// State is the position and time of the last successfully reported fix.
type State struct {
	lastPosition   position.Position
	lastReportedAt time.Time
}

// NewState returns a State anchored at the origin and the given start time.
func NewState(start time.Time) *State {
	return &State{lastReportedAt: start}
}

// LastPosition returns the last reported position.
func (s *State) LastPosition() position.Position {
	return s.lastPosition
}

// LastReportedAt returns the time of the last report.
func (s *State) LastReportedAt() time.Time {
	return s.lastReportedAt
}

// Update replaces position and report time of the state. Both values are always set together.
func (s *State) Update(pos position.Position, at time.Time) {
	s.lastPosition, s.lastReportedAt = pos, at
}

// Decision is the result of evaluating a fix against the state, including the values the
// action was derived from.
type Decision struct {
	Action   Action
	Distance float64
	Elapsed  time.Duration
	Moved    bool
}

// Policy evaluates fixes against a State.
type Policy struct {
	limits Limits
	state  *State
}

// NewPolicy returns a Policy with the given limits that reads from state.
func NewPolicy(limits Limits, state *State) *Policy {
	return &Policy{limits: limits, state: state}
}

// Decide returns whether the fix should be reported at now. It never modifies the state.
func (p *Policy) Decide(fix gga.Fix, now time.Time) Action {
	return p.Evaluate(fix, now).Action
}

// Evaluate works like Decide but returns the full Decision.
func (p *Policy) Evaluate(fix gga.Fix, now time.Time) Decision {
	d := Decision{
		Distance: position.Distance(p.state.lastPosition, fix.Position),
		Elapsed:  now.Sub(p.state.lastReportedAt),
	}
	d.Moved = d.Distance > p.limits.Distance

	limit := p.limits.Stationary
	if d.Moved {
		limit = p.limits.Moving
	}
	if d.Elapsed >= limit {
		d.Action = Report
	}
	return d
}
