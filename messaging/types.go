// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "github.com/bureau-foundation/qrlogin/lib/ref"

// Message types the bridge bot uses.
const (
	MsgTypeImage  = "m.image"
	MsgTypeNotice = "m.notice"
	MsgTypeText   = "m.text"
)

// EventTypeRoomMessage is the Matrix event type for chat messages.
const EventTypeRoomMessage = "m.room.message"

// Event is a single timeline event. Content is decoded into the
// message shape; fields that other event types do not carry are left
// empty.
type Event struct {
	EventID        string         `json:"event_id"`
	Type           string         `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        MessageContent `json:"content"`
}

// MessageContent is the content of an m.room.message event.
type MessageContent struct {
	MsgType string `json:"msgtype,omitempty"`
	Body    string `json:"body,omitempty"`

	// URL is the mxc:// URI of the media for m.image events.
	URL string `json:"url,omitempty"`

	// NewContent is present on edits (m.replace relations) and holds
	// the replacement content. The outer Body is the fallback text.
	NewContent *NewContent `json:"m.new_content,omitempty"`

	RelatesTo *RelatesTo `json:"m.relates_to,omitempty"`
}

// NewContent is the replacement content of an edit.
type NewContent struct {
	MsgType string `json:"msgtype,omitempty"`
	Body    string `json:"body,omitempty"`
}

// RelatesTo links an event to another event (edits use "m.replace").
type RelatesTo struct {
	RelType string `json:"rel_type,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// IsEdit reports whether the event replaces an earlier one.
func (e Event) IsEdit() bool {
	return e.Content.NewContent != nil
}

// WhoAmIResponse is returned by GET /account/whoami.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// SyncOptions controls a single /sync request.
type SyncOptions struct {
	// Since is the next_batch token from a previous sync. Empty means
	// an initial sync returning the most recent timeline window.
	Since string

	// Timeout is the long-poll hold in milliseconds. Only sent when
	// SetTimeout is true, so zero can be requested explicitly.
	Timeout    int
	SetTimeout bool

	// Filter is an inline JSON filter or a filter ID.
	Filter string
}

// SyncResponse is the part of the /sync response the bridge reads.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection groups per-room sync data by membership. Join keys stay
// raw strings so one unexpected room ID cannot fail the whole sync.
type RoomsSection struct {
	Join map[string]JoinedRoom `json:"join,omitempty"`
}

// JoinedRoom contains sync data for a joined room.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// TimelineSection holds timeline events oldest first.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch,omitempty"`
	Limited   bool    `json:"limited,omitempty"`
}
