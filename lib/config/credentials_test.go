// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveCredentialsFromArguments(t *testing.T) {
	credentials, err := ResolveCredentials([]string{" syt_token ", "!bridge:example.org"}, "", nil)
	if err != nil {
		t.Fatalf("ResolveCredentials: %v", err)
	}
	if credentials.AccessToken != "syt_token" {
		t.Errorf("AccessToken = %q", credentials.AccessToken)
	}
	if credentials.RoomID.String() != "!bridge:example.org" {
		t.Errorf("RoomID = %q", credentials.RoomID)
	}
}

func TestResolveCredentialsServerlessRoomID(t *testing.T) {
	const hashRoom = "!31hneApxJ_1o-63DmFrpeqnkFfWppnzWso1JvH3ogLM"
	credentials, err := ResolveCredentials([]string{"syt_test", hashRoom + "\n"}, "", nil)
	if err != nil {
		t.Fatalf("ResolveCredentials: %v", err)
	}
	if credentials.RoomID.String() != hashRoom {
		t.Errorf("RoomID = %q, want %q", credentials.RoomID, hashRoom)
	}
}

func TestResolveCredentialsFromEnvironment(t *testing.T) {
	environ := []string{
		EnvAccessToken + "=syt_from_env",
		EnvRoomID + "=!env:example.org",
		"HOME=/root",
	}

	credentials, err := ResolveCredentials(nil, "", environ)
	if err != nil {
		t.Fatalf("ResolveCredentials: %v", err)
	}
	if credentials.AccessToken != "syt_from_env" || credentials.RoomID.String() != "!env:example.org" {
		t.Errorf("credentials = %+v", credentials)
	}

	// An argument beats the environment; the missing room falls back.
	credentials, err = ResolveCredentials([]string{"syt_arg"}, "", environ)
	if err != nil {
		t.Fatal(err)
	}
	if credentials.AccessToken != "syt_arg" || credentials.RoomID.String() != "!env:example.org" {
		t.Errorf("mixed credentials = %+v", credentials)
	}
}

func TestResolveCredentialsEnvFile(t *testing.T) {
	path := writeFile(t, "qrlogin.env", "# bridge login\n"+
		EnvAccessToken+"=syt_from_file\n"+
		EnvRoomID+"='!file:example.org'\n")

	credentials, err := ResolveCredentials(nil, path, nil)
	if err != nil {
		t.Fatalf("ResolveCredentials: %v", err)
	}
	if credentials.AccessToken != "syt_from_file" || credentials.RoomID.String() != "!file:example.org" {
		t.Errorf("credentials = %+v", credentials)
	}

	// The process environment wins over the file.
	credentials, err = ResolveCredentials(nil, path, []string{EnvAccessToken + "=syt_process"})
	if err != nil {
		t.Fatal(err)
	}
	if credentials.AccessToken != "syt_process" || credentials.RoomID.String() != "!file:example.org" {
		t.Errorf("credentials = %+v", credentials)
	}

	if _, err := ResolveCredentials(nil, filepath.Join(t.TempDir(), "missing.env"), nil); err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestResolveCredentialsErrors(t *testing.T) {
	_, err := ResolveCredentials(nil, "", nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
	if !strings.Contains(err.Error(), "access token") || !strings.Contains(err.Error(), "room ID") {
		t.Errorf("error = %q, want both names", err)
	}

	_, err = ResolveCredentials([]string{"syt_token"}, "", nil)
	if !errors.Is(err, ErrMissingCredentials) || strings.Contains(err.Error(), "access token (") {
		t.Errorf("token-only err = %v", err)
	}

	if _, err := ResolveCredentials([]string{"syt_token", "bridge-room"}, "", nil); err == nil {
		t.Error("expected error for malformed room ID")
	}
	if _, err := ResolveCredentials([]string{"a", "!b:c", "d"}, "", nil); err == nil {
		t.Error("expected error for extra arguments")
	}
}
