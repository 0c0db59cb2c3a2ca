// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package webui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startServer(t *testing.T, handler http.Handler) (*Server, context.CancelFunc, <-chan error) {
	t.Helper()
	server := NewServer(ServerConfig{
		Address:         "127.0.0.1:0", // OS-assigned port
		Handler:         handler,
		ShutdownTimeout: 2 * time.Second,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	// t.Context() is cancelled when the test deadline passes, so no
	// wall-clock timeout is needed.
	select {
	case <-server.Ready():
	case <-t.Context().Done():
		t.Fatal("server did not become ready before test deadline")
	}
	return server, cancel, serveDone
}

func TestServerLifecycle(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
		fmt.Fprintf(writer, "ok")
	})
	server, cancel, serveDone := startServer(t, handler)

	response, err := http.Get("http://" + server.Addr().String() + "/test")
	if err != nil {
		t.Fatalf("GET /test: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Errorf("GET /test status = %d, want 200", response.StatusCode)
	}
	responseBody, _ := io.ReadAll(response.Body)
	if string(responseBody) != "ok" {
		t.Errorf("GET /test body = %q, want %q", responseBody, "ok")
	}

	cancel()

	select {
	case err := <-serveDone:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-t.Context().Done():
		t.Fatal("server did not shut down before test deadline")
	}
}

func TestServerClosesEventStreamsOnShutdown(t *testing.T) {
	handler, _, _ := newTestHandler(t)
	server, cancel, serveDone := startServer(t, handler)

	conn, response, err := websocket.DefaultDialer.Dial("ws://"+server.Addr().String()+"/events", nil)
	if err != nil {
		t.Fatalf("dialing /events: %v", err)
	}
	response.Body.Close()
	defer conn.Close()
	readView(t, conn)

	cancel()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("ReadMessage after shutdown = %v, want going-away close", err)
	}

	select {
	case err := <-serveDone:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-t.Context().Done():
		t.Fatal("server did not shut down before test deadline")
	}
}

func TestServerListenError(t *testing.T) {
	first, _, _ := startServer(t, http.NotFoundHandler())

	second := NewServer(ServerConfig{
		Address: first.Addr().String(),
		Handler: http.NotFoundHandler(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := second.Serve(context.Background()); err == nil {
		t.Error("Serve on an occupied address succeeded")
	}
}

func TestServerPanicsOnMissingConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	tests := []struct {
		name   string
		config ServerConfig
	}{
		{
			name:   "missing_address",
			config: ServerConfig{Handler: handler, Logger: logger},
		},
		{
			name:   "missing_handler",
			config: ServerConfig{Address: ":0", Logger: logger},
		},
		{
			name:   "missing_logger",
			config: ServerConfig{Address: ":0", Handler: handler},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("NewServer did not panic")
				}
			}()
			NewServer(tt.config)
		})
	}
}
