// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec encodes state snapshots as CBOR for clients that ask
// for application/cbor instead of JSON.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): the same
// snapshot always produces the same bytes, so clients can compare
// encoded snapshots directly. Types that implement
// encoding.TextMarshaler (the auth status enum) encode as CBOR text
// strings, matching their JSON form. Struct fields use their json tags
// when no cbor tag is present, so one struct serves both formats.
package codec

import (
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ContentType is the media type for CBOR response bodies.
const ContentType = "application/cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encOptions.Time = cbor.TimeRFC3339Nano
	var err error
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Timestamp is the wire form used for times inside CBOR snapshots.
// Exposed so tests and clients agree on the representation.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
