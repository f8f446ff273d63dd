// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package main implements the fixreporter service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wneessen/fixreporter/internal/config"
	"github.com/wneessen/fixreporter/internal/lock"
	"github.com/wneessen/fixreporter/internal/logger"
	"github.com/wneessen/fixreporter/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.New(slog.LevelError)

	confRead := false
	confPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	// Read default config
	conf, err := config.New()

	// If config file was specified, read it
	if *confPath != "" {
		file := filepath.Base(*confPath)
		path := filepath.Dir(*confPath)
		conf, err = config.NewFromFile(path, file)
		confRead = true
	}

	// Check if we have a config file in the default location
	if path, file := findConfigFile(); !confRead && (path != "" && file != "") {
		conf, err = config.NewFromFile(path, file)
	}
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		return 1
	}

	log = logger.New(conf.LogLevel)

	// Make sure we are the only instance
	instanceLock, err := lock.Acquire(conf.LockFile)
	if errors.Is(err, lock.ErrLocked) {
		log.Error("fixreporter is already running", slog.String("lockfile", conf.LockFile))
		return 1
	}
	if err != nil {
		log.Error("failed to acquire instance lock", logger.Err(err))
		return 1
	}
	defer func() {
		if err := instanceLock.Release(); err != nil {
			log.Error("failed to release instance lock", logger.Err(err))
		}
	}()

	// Initialize the service
	serv, err := service.New(conf, log)
	if err != nil {
		log.Error("failed to initialize fixreporter service", logger.Err(err))
		return 1
	}

	// Start the service loop
	log.Info("starting fixreporter service", slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date), slog.String("radio_id", conf.RadioID))
	if err = serv.Run(ctx); err != nil {
		log.Error("fixreporter service failed", logger.Err(err))
		return 1
	}
	log.Info("shutting down fixreporter service", slog.Any("stats", serv.Stats()))
	return 0
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "fixreporter", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
