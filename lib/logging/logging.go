// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the process logger. Console output is
// slog.TextHandler when the destination is a terminal and
// slog.JSONHandler otherwise, so piped output stays machine-readable.
// An optional log file receives JSON records as well and is rotated by
// size through lumberjack.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format selects the console handler.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. The empty string means FormatAuto.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatText, FormatJSON:
		return Format(raw), nil
	}
	return "", fmt.Errorf("logging: unknown format %q (want auto, text, or json)", raw)
}

// ParseLevel accepts debug, info, warn, and error, case-insensitively.
// The empty string means info.
func ParseLevel(raw string) (slog.Level, error) {
	if raw == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
		return 0, fmt.Errorf("logging: unknown level %q (want debug, info, warn, or error)", raw)
	}
	return level, nil
}

// Config is the log section of the configuration file.
type Config struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`

	// File, when set, also receives every record as JSON.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Validate reports unknown formats, levels, and negative rotation
// limits.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLevel(c.Level); err != nil {
		errs = append(errs, err)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		errs = append(errs, errors.New("logging: rotation limits must not be negative"))
	}
	return errors.Join(errs...)
}

// New builds a logger writing to console and, if configured, the log
// file. The returned closer closes the file; it is a no-op otherwise.
func New(config Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	format, err := ParseFormat(config.Format)
	if err != nil {
		return nil, nil, err
	}
	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, nil, err
	}
	options := &slog.HandlerOptions{Level: level}

	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(console) {
			format = FormatText
		}
	}
	var handler slog.Handler
	if format == FormatText {
		handler = slog.NewTextHandler(console, options)
	} else {
		handler = slog.NewJSONHandler(console, options)
	}

	if config.File == "" {
		return slog.New(handler), nopCloser{}, nil
	}

	file := &lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAgeDays,
		LocalTime:  true,
	}
	fileHandler := slog.NewJSONHandler(file, options)
	return slog.New(teeHandler{handler, fileHandler}), file, nil
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// teeHandler sends each record to every handler that accepts its
// level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range t {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range t {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(teeHandler, len(t))
	for i, handler := range t {
		next[i] = handler.WithAttrs(attrs)
	}
	return next
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	next := make(teeHandler, len(t))
	for i, handler := range t {
		next[i] = handler.WithGroup(name)
	}
	return next
}
