// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package qrimage encodes the bridge bot's QR payload for display: a
// PNG for the browser and a half-block text rendering for terminals.
package qrimage

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// ErrEmptyPayload is returned for an empty payload; there is nothing to
// encode until the bot posts its first code.
var ErrEmptyPayload = errors.New("qrimage: empty payload")

// Renderer turns a payload into displayable forms.
type Renderer interface {
	PNG(payload string) ([]byte, error)
	Terminal(payload string) (string, error)
}

// Encoder is the go-qrcode backed Renderer.
type Encoder struct {
	// Size is the PNG edge length in pixels. Zero means DefaultSize.
	// Negative values let go-qrcode pick a size that gives each module
	// -Size pixels.
	Size int
	// Level is the error correction level. The zero value is Low;
	// NewEncoder uses Medium, which is what WhatsApp's own codes use.
	Level qrcode.RecoveryLevel
}

// NewEncoder returns an Encoder with medium error correction.
func NewEncoder(size int) *Encoder {
	if size == 0 {
		size = DefaultSize
	}
	return &Encoder{Size: size, Level: qrcode.Medium}
}

func (e *Encoder) encode(payload string) (*qrcode.QRCode, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	code, err := qrcode.New(payload, e.Level)
	if err != nil {
		return nil, fmt.Errorf("qrimage: encoding %d-byte payload: %w", len(payload), err)
	}
	return code, nil
}

// PNG renders payload as a PNG image.
func (e *Encoder) PNG(payload string) ([]byte, error) {
	code, err := e.encode(payload)
	if err != nil {
		return nil, err
	}
	size := e.Size
	if size == 0 {
		size = DefaultSize
	}
	data, err := code.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("qrimage: rendering PNG: %w", err)
	}
	return data, nil
}

// Terminal renders payload with Unicode half blocks, two modules per
// character cell, dark modules on a light background.
func (e *Encoder) Terminal(payload string) (string, error) {
	code, err := e.encode(payload)
	if err != nil {
		return "", err
	}
	return code.ToSmallString(false), nil
}
