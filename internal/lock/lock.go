// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package lock makes sure only a single instance of the service runs at a time.
package lock

import (
	"errors"
)

// ErrLocked is returned if another process holds the lock.
var ErrLocked = errors.New("another instance is already running")

// Lock is an exclusive advisory lock on a file.
type Lock struct {
	path    string
	release func() error
}

// Path returns the path of the lock file.
func (l *Lock) Path() string {
	return l.path
}

// Release frees the lock. Calling Release more than once is a no-op.
func (l *Lock) Release() error {
	if l.release == nil {
		return nil
	}
	release := l.release
	l.release = nil
	return release()
}
