package webhook

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedEvent is returned when the routing fields cannot be read.
var ErrMalformedEvent = errors.New("malformed webhook event")

// Event is the provider-neutral envelope every provider posts:
//
//	{"id": "...", "type": "...", "metadata": {"user_id": "42"}, "data": {...}}
type Event struct {
	Provider string
	ID       string
	Type     string
	UserID   uint
	Data     json.RawMessage
	Raw      []byte
}

type envelope struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Metadata json.RawMessage `json:"metadata"`
	Data     json.RawMessage `json:"data"`
}

// ParseEvent reads the routing fields from a verified body. The user id may
// be sent as a JSON number or string.
func ParseEvent(provider string, raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, ErrMalformedEvent
	}

	evt := Event{
		Provider: provider,
		ID:       strings.TrimSpace(env.ID),
		Type:     strings.TrimSpace(env.Type),
		Data:     env.Data,
		Raw:      raw,
	}
	if evt.ID == "" || evt.Type == "" || len(env.Metadata) == 0 {
		return Event{}, ErrMalformedEvent
	}

	var meta map[string]json.RawMessage
	if err := json.Unmarshal(env.Metadata, &meta); err != nil {
		return Event{}, ErrMalformedEvent
	}
	userID, ok := parseUserID(meta["user_id"])
	if !ok {
		return Event{}, ErrMalformedEvent
	}
	evt.UserID = userID
	return evt, nil
}

func parseUserID(raw json.RawMessage) (uint, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, false
		}
		s = n.String()
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
