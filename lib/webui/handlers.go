// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package webui

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bureau-foundation/qrlogin/lib/codec"
	"github.com/bureau-foundation/qrlogin/lib/loginstate"
	"github.com/bureau-foundation/qrlogin/lib/qrimage"
)

//go:embed assets/index.html.tmpl assets/instructions.md
var assets embed.FS

// DefaultInstructions is the operator guidance shown under the code.
var DefaultInstructions = mustReadAsset("assets/instructions.md")

var pageTemplate = template.Must(template.New("index").Parse(mustReadAsset("assets/index.html.tmpl")))

func mustReadAsset(name string) string {
	data, err := assets.ReadFile(name)
	if err != nil {
		panic("webui: missing embedded asset " + name)
	}
	return string(data)
}

// statusMessages is the page text per status, keyed by Label.
var statusMessages = map[string]string{
	"pending":      "Waiting for the code to be scanned…",
	"authorized":   "Logged in. The bridge is connected; you can close this page.",
	"unauthorized": "The scan timed out. A new code will appear shortly.",
}

// Config holds the handler's collaborators.
type Config struct {
	Store    *loginstate.Store
	Renderer qrimage.Renderer

	// QRSize is the displayed image edge in CSS pixels. Zero means
	// qrimage.DefaultSize.
	QRSize int

	// Instance identifies this process in /state and the page footer.
	Instance string
	// Build is the version string shown in the footer.
	Build string

	// PollInterval is how often the page falls back to polling /state
	// when the event stream is unavailable.
	PollInterval time.Duration

	// Instructions is markdown shown under the code. Empty means
	// DefaultInstructions.
	Instructions string

	Logger *slog.Logger
}

// Handler serves the login page and its endpoints. No endpoint
// mutates the store.
type Handler struct {
	store        *loginstate.Store
	renderer     qrimage.Renderer
	qrSize       int
	instance     string
	build        string
	pollInterval time.Duration
	instructions template.HTML
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	mux          *http.ServeMux

	// pngCache holds the most recent rendering, keyed by digest.
	pngMu     sync.Mutex
	pngDigest string
	pngData   []byte
}

// NewHandler builds the route table. Missing collaborators panic.
func NewHandler(config Config) (*Handler, error) {
	if config.Store == nil {
		panic("webui: Store is required")
	}
	if config.Renderer == nil {
		panic("webui: Renderer is required")
	}
	if config.Logger == nil {
		panic("webui: Logger is required")
	}

	markdown := config.Instructions
	if markdown == "" {
		markdown = DefaultInstructions
	}
	instructions, err := renderMarkdown(markdown)
	if err != nil {
		return nil, fmt.Errorf("webui: rendering instructions: %w", err)
	}

	qrSize := config.QRSize
	if qrSize <= 0 {
		qrSize = qrimage.DefaultSize
	}
	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	handler := &Handler{
		store:        config.Store,
		renderer:     config.Renderer,
		qrSize:       qrSize,
		instance:     config.Instance,
		build:        config.Build,
		pollInterval: pollInterval,
		instructions: instructions,
		logger:       config.Logger,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      sameOrigin,
		},
		mux: http.NewServeMux(),
	}

	// PNG is already compressed and the websocket hijacks the
	// connection, so only the text routes go through gzip.
	handler.mux.Handle("GET /{$}", gzhttp.GzipHandler(http.HandlerFunc(handler.handleIndex)))
	handler.mux.Handle("GET /auth_status", gzhttp.GzipHandler(http.HandlerFunc(handler.handleAuthStatus)))
	handler.mux.Handle("GET /state", gzhttp.GzipHandler(http.HandlerFunc(handler.handleState)))
	handler.mux.HandleFunc("GET /qrcode", handler.handleQRCode)
	handler.mux.HandleFunc("GET /events", handler.handleEvents)
	handler.mux.HandleFunc("GET /healthz", handler.handleHealth)
	return handler, nil
}

func (h *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	h.mux.ServeHTTP(writer, request)
}

func renderMarkdown(source string) (template.HTML, error) {
	markdown := goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer))
	var buffer bytes.Buffer
	if err := markdown.Convert([]byte(source), &buffer); err != nil {
		return "", err
	}
	// goldmark escapes raw HTML unless html.WithUnsafe is set.
	return template.HTML(buffer.String()), nil
}

// pageData is the template input for the index page.
type pageData struct {
	Status             string
	StatusClass        string
	StatusText         string
	HasQR              bool
	QRDigest           string
	Size               int
	Instructions       template.HTML
	Messages           map[string]string
	PollIntervalMillis int64
	Build              string
	Instance           string
}

func (h *Handler) handleIndex(writer http.ResponseWriter, request *http.Request) {
	state := h.store.Snapshot()
	data := pageData{
		Status:             state.Status.String(),
		StatusClass:        state.Status.Label(),
		StatusText:         statusMessages[state.Status.Label()],
		HasQR:              state.HasQR(),
		QRDigest:           state.QRDigest,
		Size:               h.qrSize,
		Instructions:       h.instructions,
		Messages:           statusMessages,
		PollIntervalMillis: h.pollInterval.Milliseconds(),
		Build:              h.build,
		Instance:           h.instance,
	}

	var buffer bytes.Buffer
	if err := pageTemplate.Execute(&buffer, data); err != nil {
		h.logger.Error("rendering index page", "error", err)
		http.Error(writer, "internal error", http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.Header().Set("Cache-Control", "no-store")
	writer.Write(buffer.Bytes())
}

func (h *Handler) handleAuthStatus(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.Header().Set("Cache-Control", "no-store")
	writer.Write([]byte(h.store.Status().String()))
}

// StateView is the /state and /events representation of the store.
// The payload itself is not exposed; clients fetch /qrcode.
type StateView struct {
	Status      loginstate.AuthStatus `json:"status"`
	QRDigest    string                `json:"qr_digest"`
	QRUpdatedAt string                `json:"qr_updated_at,omitempty"`
	Version     uint64                `json:"version"`
	Instance    string                `json:"instance,omitempty"`
}

func (h *Handler) view(state loginstate.State) StateView {
	view := StateView{
		Status:   state.Status,
		QRDigest: state.QRDigest,
		Version:  state.Version,
		Instance: h.instance,
	}
	if !state.QRUpdatedAt.IsZero() {
		view.QRUpdatedAt = codec.Timestamp(state.QRUpdatedAt)
	}
	return view
}

func (h *Handler) handleState(writer http.ResponseWriter, request *http.Request) {
	view := h.view(h.store.Snapshot())

	var (
		body        []byte
		contentType string
		err         error
	)
	if acceptsCBOR(request.Header.Values("Accept")) {
		body, err = codec.Marshal(view)
		contentType = codec.ContentType
	} else {
		body, err = json.Marshal(view)
		contentType = "application/json"
	}
	if err != nil {
		h.logger.Error("encoding state", "error", err)
		http.Error(writer, "internal error", http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", contentType)
	writer.Header().Set("Cache-Control", "no-store")
	writer.Header().Add("Vary", "Accept")
	writer.Write(body)
}

// acceptsCBOR reports whether an Accept header names CBOR explicitly
// with a non-zero quality. Wildcards fall back to JSON.
func acceptsCBOR(accept []string) bool {
	for _, header := range accept {
		for _, mediaRange := range strings.Split(header, ",") {
			mediaType, params, _ := strings.Cut(strings.TrimSpace(mediaRange), ";")
			if !strings.EqualFold(strings.TrimSpace(mediaType), codec.ContentType) {
				continue
			}
			if quality(params) > 0 {
				return true
			}
		}
	}
	return false
}

// quality extracts q from media range parameters; absent or malformed
// means 1.
func quality(params string) float64 {
	for _, param := range strings.Split(params, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 1
		}
		return q
	}
	return 1
}

func (h *Handler) handleQRCode(writer http.ResponseWriter, request *http.Request) {
	state := h.store.Snapshot()
	writer.Header().Set("Cache-Control", "no-store")
	if !state.HasQR() {
		writer.WriteHeader(http.StatusNoContent)
		return
	}

	etag := `"` + state.QRDigest + `"`
	writer.Header().Set("ETag", etag)
	if etagMatches(request.Header.Get("If-None-Match"), etag) {
		writer.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := h.png(state)
	if err != nil {
		if errors.Is(err, qrimage.ErrEmptyPayload) {
			writer.WriteHeader(http.StatusNoContent)
			return
		}
		h.logger.Error("rendering QR code", "qr_digest", state.QRDigest, "error", err)
		http.Error(writer, "cannot render QR code", http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "image/png")
	writer.Header().Set("Content-Length", strconv.Itoa(len(data)))
	writer.Write(data)
}

// png returns the rendering for state, reusing the last one when the
// digest has not changed.
func (h *Handler) png(state loginstate.State) ([]byte, error) {
	h.pngMu.Lock()
	defer h.pngMu.Unlock()
	if h.pngDigest == state.QRDigest && h.pngData != nil {
		return h.pngData, nil
	}
	data, err := h.renderer.PNG(state.QRPayload)
	if err != nil {
		return nil, err
	}
	h.pngDigest = state.QRDigest
	h.pngData = data
	return data, nil
}

// etagMatches implements If-None-Match's weak comparison.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (h *Handler) handleHealth(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.Write([]byte("ok\n"))
}
