// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/qrlogin/lib/handshake"
	"github.com/bureau-foundation/qrlogin/lib/logging"
	"github.com/bureau-foundation/qrlogin/lib/poller"
	"github.com/bureau-foundation/qrlogin/lib/qrimage"
	"github.com/bureau-foundation/qrlogin/lib/termview"
	"github.com/bureau-foundation/qrlogin/messaging"
)

// Config is the complete bureau-qrlogin configuration.
type Config struct {
	// Matrix configures the homeserver connection.
	Matrix MatrixConfig `yaml:"matrix"`

	// Handshake is the vocabulary the bridge bot uses.
	Handshake HandshakeConfig `yaml:"handshake"`

	// Poll configures the poll loop.
	Poll PollConfig `yaml:"poll"`

	// HTTP configures the login page server.
	HTTP HTTPConfig `yaml:"http"`

	// Terminal is auto, always, or never.
	Terminal string `yaml:"terminal"`

	Log logging.Config `yaml:"log"`
}

// MatrixConfig configures the homeserver connection.
type MatrixConfig struct {
	// Homeserver is the base URL, e.g. http://localhost:8008.
	Homeserver string `yaml:"homeserver"`

	// APIPrefix is the client-server API root.
	APIPrefix string `yaml:"api_prefix"`

	// TokenPlacement is query (access_token parameter) or header
	// (Authorization: Bearer).
	TokenPlacement string `yaml:"token_placement"`

	// TimelineLimit is the number of events requested per sync.
	TimelineLimit int `yaml:"timeline_limit"`
}

// HandshakeConfig is the bridge bot's vocabulary.
type HandshakeConfig struct {
	BotMarker     string `yaml:"bot_marker"`
	LoginPhrase   string `yaml:"login_phrase"`
	TimeoutPhrase string `yaml:"timeout_phrase"`
}

// PollConfig configures the poll loop.
type PollConfig struct {
	Interval     time.Duration `yaml:"interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// FetchFailure is tick (log and keep polling) or fatal (stop).
	FetchFailure string `yaml:"fetch_failure"`
}

// HTTPConfig configures the login page server.
type HTTPConfig struct {
	Listen          string        `yaml:"listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// QRSize is the PNG edge length in pixels.
	QRSize int `yaml:"qr_size"`

	// InstructionsFile is a markdown file replacing the built-in
	// operator instructions.
	InstructionsFile string `yaml:"instructions_file"`
}

// Default returns the built-in configuration: a local homeserver, the
// mautrix-whatsapp bot, a two-second poll, and the page on port 5000.
func Default() *Config {
	return &Config{
		Matrix: MatrixConfig{
			Homeserver:     "http://localhost:8008",
			APIPrefix:      messaging.DefaultAPIPrefix,
			TokenPlacement: string(messaging.TokenInQuery),
			TimelineLimit:  messaging.DefaultTimelineLimit,
		},
		Handshake: HandshakeConfig{
			BotMarker:     handshake.DefaultBotMarker,
			LoginPhrase:   handshake.DefaultLoginPhrase,
			TimeoutPhrase: handshake.DefaultTimeoutPhrase,
		},
		Poll: PollConfig{
			Interval:     poller.DefaultInterval,
			FetchTimeout: 10 * time.Second,
			FetchFailure: string(poller.FailTick),
		},
		HTTP: HTTPConfig{
			Listen:          "0.0.0.0:5000",
			ShutdownTimeout: 5 * time.Second,
			QRSize:          qrimage.DefaultSize,
		},
		Terminal: string(termview.ModeAuto),
		Log: logging.Config{
			Format:     string(logging.FormatAuto),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// LoadFile returns Default overlaid with the file at path. An empty
// path returns Default unchanged.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.decode(path, data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// decode merges data into c. JSON is a subset of YAML, so JSONC input
// is stripped of comments and trailing commas and fed to the same
// strict decoder.
func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	default:
		return fmt.Errorf("unsupported config extension %q (want .yaml, .yml, .json, or .jsonc)", filepath.Ext(path))
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if err := validateHomeserver(c.Matrix.Homeserver); err != nil {
		errs = append(errs, err)
	}
	if !strings.HasPrefix(c.Matrix.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("matrix.api_prefix must start with /, got %q", c.Matrix.APIPrefix))
	}
	if _, err := messaging.ParseTokenPlacement(c.Matrix.TokenPlacement); err != nil {
		errs = append(errs, fmt.Errorf("matrix.token_placement: %w", err))
	}
	if c.Matrix.TimelineLimit <= 0 {
		errs = append(errs, fmt.Errorf("matrix.timeline_limit must be positive, got %d", c.Matrix.TimelineLimit))
	}

	if strings.TrimSpace(c.Handshake.BotMarker) == "" {
		errs = append(errs, errors.New("handshake.bot_marker is required"))
	}
	if c.Handshake.LoginPhrase == "" {
		errs = append(errs, errors.New("handshake.login_phrase is required"))
	}
	if c.Handshake.TimeoutPhrase == "" {
		errs = append(errs, errors.New("handshake.timeout_phrase is required"))
	}

	if c.Poll.Interval <= 0 {
		errs = append(errs, fmt.Errorf("poll.interval must be positive, got %v", c.Poll.Interval))
	}
	if c.Poll.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("poll.fetch_timeout must be positive, got %v", c.Poll.FetchTimeout))
	}
	if _, err := poller.ParseFailurePolicy(c.Poll.FetchFailure); err != nil {
		errs = append(errs, fmt.Errorf("poll.fetch_failure: %w", err))
	}

	if c.HTTP.Listen == "" {
		errs = append(errs, errors.New("http.listen is required"))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http.shutdown_timeout must be positive, got %v", c.HTTP.ShutdownTimeout))
	}
	if c.HTTP.QRSize <= 0 {
		errs = append(errs, fmt.Errorf("http.qr_size must be positive, got %d", c.HTTP.QRSize))
	}

	if _, err := termview.ParseMode(c.Terminal); err != nil {
		errs = append(errs, err)
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateHomeserver(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("matrix.homeserver: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("matrix.homeserver %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("matrix.homeserver %q has no host", raw)
	}
	return nil
}

// Instructions returns the contents of HTTP.InstructionsFile, or ""
// when none is configured.
func (c *Config) Instructions() (string, error) {
	if c.HTTP.InstructionsFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.HTTP.InstructionsFile)
	if err != nil {
		return "", fmt.Errorf("reading instructions: %w", err)
	}
	return string(data), nil
}
