// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package source provides the inbound feeds that deliver GPS data to the service.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/wneessen/fixreporter/internal/gga"
)

// ErrEndOfStream is returned once a source has no more data to deliver.
var ErrEndOfStream = errors.New("end of stream")

// Reading is a single unit of data delivered by a Source. Raw text sources set Payload, sources
// that already resolve positions set Fix instead.
type Reading struct {
	Payload    string
	Fix        *gga.Fix
	ReceivedAt time.Time
	From       string
}

// Source delivers readings one at a time. Receive blocks until data is available, the source
// is exhausted or the context is cancelled.
type Source interface {
	Receive(ctx context.Context) (Reading, error)
	Close() error
}
