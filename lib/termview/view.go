// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package termview prints login progress to a terminal: a styled
// status line on every change and the QR code as half-block text
// whenever a new code arrives. It is a second reader of the login
// store alongside the web page, for operators who run the bridge
// login over SSH and would rather scan from the terminal.
package termview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/qrlogin/lib/loginstate"
	"github.com/bureau-foundation/qrlogin/lib/qrimage"
)

// Mode selects when the view runs.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeAlways Mode = "always"
	ModeNever  Mode = "never"
)

// ParseMode validates a mode name. The empty string means ModeAuto.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeAlways, ModeNever:
		return Mode(raw), nil
	}
	return "", fmt.Errorf("termview: unknown terminal mode %q (want auto, always, or never)", raw)
}

// Enabled reports whether the view should run on file under mode.
// Auto enables it only when file is a terminal.
func Enabled(mode Mode, file *os.File) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	}
	return file != nil && term.IsTerminal(int(file.Fd()))
}

// Config holds the view's collaborators.
type Config struct {
	Store    *loginstate.Store
	Renderer qrimage.Renderer
	Output   io.Writer

	// Profile is the color profile. Zero value (TrueColor) is rarely
	// right; callers normally pass termenv.EnvColorProfile() or Ascii
	// in tests.
	Profile termenv.Profile

	// URL is shown in the header so the operator knows where the
	// browser page lives.
	URL string

	Logger *slog.Logger
}

// View renders store changes to Output.
type View struct {
	store    *loginstate.Store
	renderer qrimage.Renderer
	output   io.Writer
	url      string
	logger   *slog.Logger

	header       lipgloss.Style
	statusStyles map[loginstate.AuthStatus]lipgloss.Style
	faint        lipgloss.Style
}

// New builds a View. Missing collaborators panic.
func New(config Config) *View {
	if config.Store == nil {
		panic("termview: Store is required")
	}
	if config.Renderer == nil {
		panic("termview: Renderer is required")
	}
	if config.Output == nil {
		panic("termview: Output is required")
	}
	if config.Logger == nil {
		panic("termview: Logger is required")
	}

	// SetColorProfile pins the profile; lipgloss otherwise re-detects
	// from the environment.
	renderer := lipgloss.NewRenderer(config.Output, termenv.WithProfile(config.Profile))
	renderer.SetColorProfile(config.Profile)

	return &View{
		store:    config.Store,
		renderer: config.Renderer,
		output:   config.Output,
		url:      config.URL,
		logger:   config.Logger,
		header:   renderer.NewStyle().Bold(true),
		statusStyles: map[loginstate.AuthStatus]lipgloss.Style{
			loginstate.StatusPending:      renderer.NewStyle().Foreground(lipgloss.Color("12")),
			loginstate.StatusAuthorized:   renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			loginstate.StatusUnauthorized: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		},
		faint: renderer.NewStyle().Faint(true),
	}
}

var statusText = map[loginstate.AuthStatus]string{
	loginstate.StatusPending:      "waiting for scan",
	loginstate.StatusAuthorized:   "logged in",
	loginstate.StatusUnauthorized: "scan timed out, waiting for a new code",
}

// StatusLine renders the one-line summary for state.
func (v *View) StatusLine(state loginstate.State) string {
	style := v.statusStyles[state.Status]
	line := v.header.Render("bridge login:") + " " + style.Render(statusText[state.Status])
	if state.HasQR() {
		line += " " + v.faint.Render("(code "+shortDigest(state.QRDigest)+")")
	}
	return line
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// Render returns everything printed for a transition from previous to
// state: the QR block when the digest changed, then the status line.
func (v *View) Render(previous, state loginstate.State) (string, error) {
	var builder strings.Builder
	if state.QRDigest != previous.QRDigest && state.HasQR() {
		code, err := v.renderer.Terminal(state.QRPayload)
		if err != nil {
			return "", err
		}
		builder.WriteString("\n")
		builder.WriteString(code)
		if !strings.HasSuffix(code, "\n") {
			builder.WriteString("\n")
		}
		if v.url != "" {
			builder.WriteString(v.faint.Render("also at " + v.url))
			builder.WriteString("\n")
		}
	}
	builder.WriteString(v.StatusLine(state))
	builder.WriteString("\n")
	return builder.String(), nil
}

// Run prints the current state, then every change, until ctx is
// cancelled. It returns after printing the authorized state.
func (v *View) Run(ctx context.Context) error {
	var previous loginstate.State
	first := true
	for {
		changed := v.store.Changed()
		state := v.store.Snapshot()
		if first || state.Version != previous.Version {
			text, err := v.Render(previous, state)
			if err != nil {
				v.logger.Warn("rendering terminal QR code", "qr_digest", state.QRDigest, "error", err)
				text = v.StatusLine(state) + "\n"
			}
			if _, err := io.WriteString(v.output, text); err != nil {
				return fmt.Errorf("termview: writing: %w", err)
			}
			previous = state
			first = false
		}
		if state.Status == loginstate.StatusAuthorized {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
