// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned by operations on a Token after Close.
var ErrClosed = errors.New("secret: token is closed")

// Token holds an access token in mmap-backed memory. A Token must not
// be copied after creation. Close zeroes and unmaps the memory.
type Token struct {
	mu     sync.Mutex
	data   []byte
	locked bool
	closed bool
}

// NewToken copies raw into protected memory byte for byte. Returns an
// error if raw is empty.
func NewToken(raw string) (*Token, error) {
	if raw == "" {
		return nil, fmt.Errorf("secret: access token is empty")
	}

	data, err := unix.Mmap(-1, 0, len(raw), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap failed: %w", err)
	}
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP) failed: %w", err)
	}
	locked := unix.Mlock(data) == nil

	copy(data, raw)
	return &Token{data: data, locked: locked}, nil
}

// Reveal returns the token as a string for use in a request. The
// string is a heap copy; callers must not retain it.
func (t *Token) Reveal() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return "", ErrClosed
	}
	return string(t.data), nil
}

// Redacted returns a log-safe hint of the token: the "syt_" prefix
// when present and the last four characters. Short tokens redact to
// "***".
func (t *Token) Redacted() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return "<closed>"
	}
	return redact(t.data)
}

func redact(data []byte) string {
	if len(data) <= 8 {
		return "***"
	}
	prefix := ""
	if strings.HasPrefix(string(data[:4]), "syt_") {
		prefix = "syt_"
	}
	return prefix + "…" + string(data[len(data)-4:])
}

// Len returns the token length in bytes, or zero after Close.
func (t *Token) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.data)
}

// Locked reports whether the memory was successfully mlocked. Always
// false after Close.
func (t *Token) Locked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.locked
}

// Close zeroes the token and releases its memory. Idempotent.
func (t *Token) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	for index := range t.data {
		t.data[index] = 0
	}

	var firstError error
	if t.locked {
		if err := unix.Munlock(t.data); err != nil {
			firstError = fmt.Errorf("secret: munlock failed: %w", err)
		}
	}
	if err := unix.Munmap(t.data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munmap failed: %w", err)
	}
	t.data = nil
	t.locked = false
	return firstError
}
