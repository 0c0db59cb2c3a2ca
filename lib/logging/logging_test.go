// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for raw, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(raw)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", raw, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{}).Validate(); err != nil {
		t.Errorf("zero config: %v", err)
	}
	bad := Config{Format: "xml", Level: "loud", MaxBackups: -1}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"xml", "loud", "negative"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q lacks %q", err, want)
		}
	}
}

func TestAutoFormatUsesJSONForNonTerminal(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := New(Config{}, &console)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	logger.Info("hello", "room_id", "!bridge:example.org")
	var record map[string]any
	if err := json.Unmarshal(console.Bytes(), &record); err != nil {
		t.Fatalf("console output is not JSON: %q", console.String())
	}
	if record["msg"] != "hello" || record["room_id"] != "!bridge:example.org" {
		t.Errorf("record = %v", record)
	}
}

func TestTextFormatAndLevel(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := New(Config{Format: "text", Level: "warn"}, &console)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "status", "unauthorized")

	output := console.String()
	if strings.Contains(output, "dropped") {
		t.Error("info record passed a warn-level logger")
	}
	if !strings.Contains(output, "level=WARN msg=kept status=unauthorized") {
		t.Errorf("output = %q", output)
	}
}

func TestLogFileReceivesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qrlogin.log")
	var console bytes.Buffer
	logger, closer, err := New(Config{Format: "text", File: path, MaxSizeMB: 1}, &console)
	if err != nil {
		t.Fatal(err)
	}

	logger.With("instance", "abc").Info("QR code updated", "qr_digest", "deadbeef")
	if err := closer.Close(); err != nil {
		t.Fatalf("closing log file: %v", err)
	}

	if !strings.Contains(console.String(), "msg=\"QR code updated\"") {
		t.Errorf("console = %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log file is not JSON: %q", data)
	}
	if record["instance"] != "abc" || record["qr_digest"] != "deadbeef" {
		t.Errorf("file record = %v", record)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, _, err := New(Config{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, _, err := New(Config{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
}
