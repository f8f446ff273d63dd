// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// maxDatagramSize is the largest UDP payload we accept
const maxDatagramSize = 65535

// UDP receives NMEA text datagrams on a bound socket.
type UDP struct {
	conn net.PacketConn
	buf  []byte
	stop func() bool
}

// ListenUDP binds a UDP socket to addr. The socket is closed once ctx is cancelled, which
// unblocks a pending Receive.
func ListenUDP(ctx context.Context, addr string) (*UDP, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP socket: %w", err)
	}
	u := &UDP{
		conn: conn,
		buf:  make([]byte, maxDatagramSize),
	}
	u.stop = context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	return u, nil
}

// Addr returns the local address the socket is bound to.
func (u *UDP) Addr() net.Addr {
	return u.conn.LocalAddr()
}

// Receive blocks until the next datagram arrives. An empty datagram ends the stream.
func (u *UDP) Receive(ctx context.Context) (Reading, error) {
	n, from, err := u.conn.ReadFrom(u.buf)
	if err != nil {
		if ctx.Err() != nil {
			return Reading{}, ctx.Err()
		}
		if errors.Is(err, net.ErrClosed) {
			return Reading{}, ErrEndOfStream
		}
		return Reading{}, fmt.Errorf("failed to read from UDP socket: %w", err)
	}
	if n == 0 {
		return Reading{}, ErrEndOfStream
	}

	reading := Reading{
		Payload:    string(u.buf[:n]),
		ReceivedAt: time.Now(),
	}
	if from != nil {
		reading.From = from.String()
	}
	return reading, nil
}

// Close closes the socket.
func (u *UDP) Close() error {
	u.stop()
	if err := u.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
