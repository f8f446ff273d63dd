// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Acquire takes an exclusive, non-blocking flock on path. The lock is bound to the open
// file descriptor and therefore released by the kernel if the process dies.
func Acquire(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err = unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to lock file: %w", err)
	}

	if err = file.Truncate(0); err == nil {
		_, _ = file.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	}

	return &Lock{
		path: path,
		release: func() error {
			if err := unix.Flock(int(file.Fd()), unix.LOCK_UN); err != nil {
				_ = file.Close()
				return fmt.Errorf("failed to unlock file: %w", err)
			}
			return file.Close()
		},
	}, nil
}
