// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package qrimage

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
)

const payload = "2@abcDEF123,ghiJKL456,mnoPQR789=,stuVWX0=="

func TestPNG(t *testing.T) {
	encoder := NewEncoder(0)
	data, err := encoder.PNG(payload)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != DefaultSize || bounds.Dy() != DefaultSize {
		t.Errorf("image is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), DefaultSize, DefaultSize)
	}
}

func TestPNGDeterministic(t *testing.T) {
	encoder := NewEncoder(128)
	first, err := encoder.PNG(payload)
	if err != nil {
		t.Fatal(err)
	}
	second, err := encoder.PNG(payload)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same payload produced different images")
	}
	other, err := encoder.PNG(payload + "x")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(first, other) {
		t.Error("different payloads produced the same image")
	}
}

func TestTerminal(t *testing.T) {
	text, err := NewEncoder(0).Terminal(payload)
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("rendering has %d lines", len(lines))
	}
	if !strings.ContainsAny(text, "▀▄█") {
		t.Error("rendering has no half-block characters")
	}
}

func TestEmptyPayload(t *testing.T) {
	encoder := NewEncoder(0)
	if _, err := encoder.PNG(""); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("PNG(\"\") = %v, want ErrEmptyPayload", err)
	}
	if _, err := encoder.Terminal(""); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Terminal(\"\") = %v, want ErrEmptyPayload", err)
	}
}

func TestPayloadTooLarge(t *testing.T) {
	if _, err := NewEncoder(0).PNG(strings.Repeat("x", 4000)); err == nil {
		t.Error("expected error for payload beyond QR capacity")
	}
}
