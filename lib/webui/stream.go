// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package webui

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second
	// pongWait is how long the peer may stay silent before the
	// stream is dropped.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = pongWait * 9 / 10
	// maxClientMessage caps what the page may send; it sends nothing.
	maxClientMessage = 512
)

// sameOrigin accepts requests without an Origin header (non-browser
// clients) and browser requests from the page's own host.
func sameOrigin(request *http.Request) bool {
	origin := request.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Host == request.Host
}

// handleEvents streams a StateView as a JSON text frame on connect
// and after every observable store change. The stream ends when the
// client goes away or the request context is cancelled by server
// shutdown, in which case a close frame is sent first.
func (h *Handler) handleEvents(writer http.ResponseWriter, request *http.Request) {
	conn, err := h.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		h.logger.Debug("event stream upgrade failed", "remote", request.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	h.logger.Debug("event stream connected", "remote", request.RemoteAddr)
	defer h.logger.Debug("event stream disconnected", "remote", request.RemoteAddr)

	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		conn.SetReadLimit(maxClientMessage)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	// Take the change channel before the snapshot so a commit landing
	// between the two is not missed.
	changed := h.store.Changed()
	state := h.store.Snapshot()
	if err := h.sendState(conn, h.view(state)); err != nil {
		return
	}
	lastVersion := state.Version

	for {
		select {
		case <-request.Context().Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-clientGone:
			return
		case <-changed:
			changed = h.store.Changed()
			state := h.store.Snapshot()
			if state.Version == lastVersion {
				continue
			}
			lastVersion = state.Version
			if err := h.sendState(conn, h.view(state)); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) sendState(conn *websocket.Conn, view StateView) error {
	data, err := json.Marshal(view)
	if err != nil {
		h.logger.Error("encoding state event", "error", err)
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("event stream write failed", "error", err)
		return err
	}
	return nil
}
