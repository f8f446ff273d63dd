// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const (
	configEnv = "FIXREPORTER"

	SourceUDP  = "udp"
	SourceGPSD = "gpsd"
)

var (
	ErrMissingRadioID = errors.New("radio_id must not be empty")
	ErrMissingToken   = errors.New("token must not be empty")
	ErrMissingAPIURL  = errors.New("api.url must not be empty")
)

// Config represents the application's configuration structure.
type Config struct {
	RadioID  string     `fig:"radio_id"`
	Token    string     `fig:"token"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`
	LockFile string     `fig:"lockfile"`

	Listener struct {
		HostIP string `fig:"host_ip" default:"0.0.0.0"`
		Port   int    `fig:"port" default:"5005"`
	} `fig:"listener"`

	API struct {
		URL        string        `fig:"url"`
		MaxRetries int           `fig:"max_retries" default:"1"`
		Timeout    time.Duration `fig:"timeout" default:"10s"`
	} `fig:"api"`

	Motion struct {
		MovingTimeLimit     time.Duration `fig:"moving_time_limit" default:"30s"`
		StationaryTimeLimit time.Duration `fig:"stationary_time_limit" default:"5m"`
		// Meters
		DistanceLimit float64 `fig:"distance_limit" default:"50"`
	} `fig:"motion"`

	NMEA struct {
		StrictChecksum bool `fig:"strict_checksum"`
	} `fig:"nmea"`

	Source struct {
		// Allowed values: udp, gpsd
		Type     string `fig:"type" default:"udp"`
		GPSDAddr string `fig:"gpsd_addr" default:"localhost:2947"`
	} `fig:"source"`

	Stats struct {
		// A negative interval disables the periodic stats log
		Interval time.Duration `fig:"interval" default:"5m"`
	} `fig:"stats"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// ListenAddr returns the host:port the UDP listener binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Listener.HostIP, c.Listener.Port)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.RadioID) == "" {
		return ErrMissingRadioID
	}
	if strings.TrimSpace(c.Token) == "" {
		return ErrMissingToken
	}
	if c.API.URL == "" {
		return ErrMissingAPIURL
	}
	apiURL, err := url.Parse(c.API.URL)
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}
	if apiURL.Scheme != "http" && apiURL.Scheme != "https" {
		return fmt.Errorf("invalid api url scheme: %q", apiURL.Scheme)
	}
	if c.Listener.Port < 1 || c.Listener.Port > 65535 {
		return fmt.Errorf("invalid listener port: %d", c.Listener.Port)
	}
	if c.API.MaxRetries < 1 {
		c.API.MaxRetries = 1
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid api timeout: %s", c.API.Timeout)
	}
	if c.Motion.MovingTimeLimit < 0 || c.Motion.StationaryTimeLimit < 0 {
		return fmt.Errorf("motion time limits must not be negative")
	}
	if c.Motion.DistanceLimit < 0 {
		return fmt.Errorf("invalid distance limit: %f", c.Motion.DistanceLimit)
	}
	switch strings.ToLower(c.Source.Type) {
	case SourceUDP, SourceGPSD:
		c.Source.Type = strings.ToLower(c.Source.Type)
	default:
		return fmt.Errorf("invalid source type: %s", c.Source.Type)
	}
	if c.LockFile == "" {
		c.LockFile = filepath.Join(os.TempDir(), "fixreporter.lock")
	}

	return nil
}
