// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/fixreporter/internal/config"
	"github.com/wneessen/fixreporter/internal/source"
)

func (s *Service) selectSource() (func(context.Context) (source.Source, error), error) {
	switch strings.ToLower(s.config.Source.Type) {
	case config.SourceUDP:
		return func(ctx context.Context) (source.Source, error) {
			udp, err := source.ListenUDP(ctx, s.config.ListenAddr())
			if err != nil {
				return nil, err
			}
			s.logger.Info("listening for NMEA datagrams", slog.String("addr", udp.Addr().String()))
			return udp, nil
		}, nil
	case config.SourceGPSD:
		return func(ctx context.Context) (source.Source, error) {
			s.logger.Info("reading fixes from gpsd", slog.String("addr", s.config.Source.GPSDAddr))
			return source.NewGPSD(ctx, s.config.Source.GPSDAddr, s.logger), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", s.config.Source.Type)
	}
}
