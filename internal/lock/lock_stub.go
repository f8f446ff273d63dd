// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build !linux

package lock

import (
	"errors"
)

// Acquire is not supported on this platform.
func Acquire(string) (*Lock, error) {
	return nil, errors.New("instance lock is only supported on linux")
}
