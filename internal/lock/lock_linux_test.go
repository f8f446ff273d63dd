// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestAcquire(t *testing.T) {
	t.Run("second acquire fails while the lock is held", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fixreporter.lock")
		first, err := Acquire(path)
		if err != nil {
			t.Fatalf("failed to acquire lock: %s", err)
		}
		if first.Path() != path {
			t.Errorf("expected lock path to be %s, got %s", path, first.Path())
		}

		_, err = Acquire(path)
		if !errors.Is(err, ErrLocked) {
			t.Errorf("expected error to be %s, got %v", ErrLocked, err)
		}

		if err = first.Release(); err != nil {
			t.Fatalf("failed to release lock: %s", err)
		}
		second, err := Acquire(path)
		if err != nil {
			t.Fatalf("failed to acquire lock after release: %s", err)
		}
		if err = second.Release(); err != nil {
			t.Errorf("failed to release lock: %s", err)
		}
	})
	t.Run("lock file contains the pid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fixreporter.lock")
		l, err := Acquire(path)
		if err != nil {
			t.Fatalf("failed to acquire lock: %s", err)
		}
		defer func() {
			_ = l.Release()
		}()
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read lock file: %s", err)
		}
		if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
			t.Errorf("expected lock file to contain pid %d, got %q", os.Getpid(), string(data))
		}
	})
	t.Run("release is idempotent", func(t *testing.T) {
		l, err := Acquire(filepath.Join(t.TempDir(), "fixreporter.lock"))
		if err != nil {
			t.Fatalf("failed to acquire lock: %s", err)
		}
		if err = l.Release(); err != nil {
			t.Fatalf("failed to release lock: %s", err)
		}
		if err = l.Release(); err != nil {
			t.Errorf("expected second release to be a no-op, got %s", err)
		}
	})
	t.Run("unwritable directory fails", func(t *testing.T) {
		_, err := Acquire(filepath.Join(t.TempDir(), "missing", "fixreporter.lock"))
		if err == nil {
			t.Error("expected acquire to fail")
		}
	})
}
