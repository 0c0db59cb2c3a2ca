// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/qrlogin/lib/ref"
)

// DefaultTimelineLimit is the number of timeline events requested per
// sync when TimelineConfig.Limit is zero. Only the last one is used; a
// small window keeps responses short.
const DefaultTimelineLimit = 10

// TimelineConfig binds a Timeline to one room.
type TimelineConfig struct {
	Session *Session
	RoomID  ref.RoomID
	// Limit is the timeline window per sync. Zero means DefaultTimelineLimit.
	Limit int
}

// Timeline fetches the most recent event of a single joined room.
type Timeline struct {
	session *Session
	roomID  ref.RoomID
	filter  string
}

// NewTimeline validates config and precomputes the sync filter.
func NewTimeline(config TimelineConfig) (*Timeline, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("messaging: timeline requires a session")
	}
	if config.RoomID.IsZero() {
		return nil, fmt.Errorf("messaging: timeline requires a room ID")
	}
	if config.Limit < 0 {
		return nil, fmt.Errorf("messaging: timeline limit must not be negative (got %d)", config.Limit)
	}
	limit := config.Limit
	if limit == 0 {
		limit = DefaultTimelineLimit
	}
	return &Timeline{
		session: config.Session,
		roomID:  config.RoomID,
		filter:  buildInlineFilter(config.RoomID, limit),
	}, nil
}

// RoomID returns the room this timeline reads.
func (t *Timeline) RoomID() ref.RoomID { return t.roomID }

// Latest performs one sync and returns the last event in the room's
// timeline window. A room absent from rooms.join or an empty timeline
// is a *ProtocolError wrapping ErrRoomNotJoined or ErrEmptyTimeline.
func (t *Timeline) Latest(ctx context.Context) (Event, error) {
	response, err := t.session.Sync(ctx, SyncOptions{
		Filter:     t.filter,
		SetTimeout: true,
	})
	if err != nil {
		return Event{}, err
	}
	return latestInRoom(response, t.roomID)
}

func latestInRoom(response *SyncResponse, roomID ref.RoomID) (Event, error) {
	room, ok := response.Rooms.Join[roomID.String()]
	if !ok {
		return Event{}, &ProtocolError{Op: "latest event", Err: fmt.Errorf("%s: %w", roomID, ErrRoomNotJoined)}
	}
	events := room.Timeline.Events
	if len(events) == 0 {
		return Event{}, &ProtocolError{Op: "latest event", Err: fmt.Errorf("%s: %w", roomID, ErrEmptyTimeline)}
	}
	return events[len(events)-1], nil
}

// buildInlineFilter scopes a sync to one room's timeline and drops
// presence, account data, and room state.
func buildInlineFilter(roomID ref.RoomID, limit int) string {
	top := map[string]any{
		"room": map[string]any{
			"rooms":        []string{roomID.String()},
			"timeline":     map[string]any{"limit": limit},
			"state":        map[string]any{"types": []string{}},
			"ephemeral":    map[string]any{"types": []string{}},
			"account_data": map[string]any{"types": []string{}},
		},
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}
	data, _ := json.Marshal(top)
	return string(data)
}
