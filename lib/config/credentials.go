// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/bureau-foundation/qrlogin/lib/ref"
)

// Environment variables consulted when a positional argument is absent.
const (
	EnvAccessToken = "QRLOGIN_ACCESS_TOKEN"
	EnvRoomID      = "QRLOGIN_ROOM_ID"
)

// ErrMissingCredentials means neither the arguments nor the
// environment supplied the token or room.
var ErrMissingCredentials = errors.New("access token and room ID are required")

// Credentials identify the bridge management room and the account
// reading it.
type Credentials struct {
	AccessToken string
	RoomID      ref.RoomID
}

// credentialVariables is the environment-side view of Credentials.
type credentialVariables struct {
	AccessToken string `env:"QRLOGIN_ACCESS_TOKEN"`
	RoomID      string `env:"QRLOGIN_ROOM_ID"`
}

// ResolveCredentials combines positional arguments (token, room ID)
// with the environment. environ is in os.Environ form. Variables from
// envFile fill in names environ does not set; the process environment
// always wins, as with godotenv.Load.
func ResolveCredentials(args []string, envFile string, environ []string) (Credentials, error) {
	if len(args) > 2 {
		return Credentials{}, fmt.Errorf("expected at most 2 arguments (access token, room ID), got %d", len(args))
	}

	variables := env.ToMap(environ)
	if envFile != "" {
		fileVariables, err := godotenv.Read(envFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("reading env file: %w", err)
		}
		for name, value := range fileVariables {
			if _, set := variables[name]; !set {
				variables[name] = value
			}
		}
	}

	var raw credentialVariables
	if err := env.ParseWithOptions(&raw, env.Options{Environment: variables}); err != nil {
		return Credentials{}, fmt.Errorf("parsing environment: %w", err)
	}
	if len(args) > 0 {
		raw.AccessToken = args[0]
	}
	if len(args) > 1 {
		raw.RoomID = args[1]
	}

	// The only edit made to either value: values pasted into a
	// terminal or env file often carry a trailing newline. Past this
	// point the token is stored and sent verbatim.
	raw.AccessToken = strings.TrimSpace(raw.AccessToken)
	raw.RoomID = strings.TrimSpace(raw.RoomID)

	var missing []string
	if raw.AccessToken == "" {
		missing = append(missing, "access token (argument 1 or "+EnvAccessToken+")")
	}
	if raw.RoomID == "" {
		missing = append(missing, "room ID (argument 2 or "+EnvRoomID+")")
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: missing %s", ErrMissingCredentials, strings.Join(missing, " and "))
	}

	roomID, err := ref.ParseRoomID(raw.RoomID)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{AccessToken: raw.AccessToken, RoomID: roomID}, nil
}
