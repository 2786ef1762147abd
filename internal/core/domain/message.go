package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Message actions understood by the engine and the background relay.
// These are the wire values carried in the "action" field.
const (
	ActionUpdateFilters   = "updateFilters"
	ActionUpdateShowCount = "updateShowCount"
	ActionUpdateBadge     = "updateBadge"
)

var (
	// ErrUnknownAction is returned for messages whose action is not recognized.
	ErrUnknownAction = errors.New("unknown message action")
	// ErrBadPayload is returned when a recognized action carries a payload
	// of the wrong shape. The message is rejected without any state change.
	ErrBadPayload = errors.New("malformed message payload")
)

// InboundMessage is a message accepted by the filter engine.
type InboundMessage interface {
	Action() string
}

// UpdateFilters replaces the filtered username set wholesale.
type UpdateFilters struct {
	Usernames []string
}

// Action implements InboundMessage.
func (UpdateFilters) Action() string { return ActionUpdateFilters }

// UpdateShowCount flips the badge count display toggle.
type UpdateShowCount struct {
	ShowCount bool
}

// Action implements InboundMessage.
func (UpdateShowCount) Action() string { return ActionUpdateShowCount }

// BadgeUpdate is the outbound message asking the background relay to
// render the extension badge for the sending tab.
type BadgeUpdate struct {
	WireAction string `json:"action"`
	Text       string `json:"text"`
	Color      string `json:"color,omitempty"`
}

// NewBadgeUpdate builds a badge update message ready for encoding.
func NewBadgeUpdate(text, color string) BadgeUpdate {
	return BadgeUpdate{WireAction: ActionUpdateBadge, Text: text, Color: color}
}

// envelope is the staged decode target. Raw payload fields let us tell
// "field missing or wrong type" apart from zero values.
type envelope struct {
	Action    string          `json:"action"`
	Usernames json.RawMessage `json:"usernames"`
	ShowCount json.RawMessage `json:"showCount"`
}

// DecodeInbound parses and validates an inbound wire message.
// Only the recognized shapes are accepted; anything else yields an error
// and must leave engine state untouched.
func DecodeInbound(data []byte) (InboundMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	switch env.Action {
	case ActionUpdateFilters:
		// A literal null unmarshals into a nil slice without error and
		// must not be mistaken for an empty filter list.
		if len(env.Usernames) == 0 || isNullToken(env.Usernames) {
			return nil, fmt.Errorf("%w: missing usernames", ErrBadPayload)
		}
		var usernames []string
		if err := json.Unmarshal(env.Usernames, &usernames); err != nil {
			return nil, fmt.Errorf("%w: usernames must be an array of strings", ErrBadPayload)
		}
		return UpdateFilters{Usernames: usernames}, nil

	case ActionUpdateShowCount:
		if len(env.ShowCount) == 0 || isNullToken(env.ShowCount) {
			return nil, fmt.Errorf("%w: missing showCount", ErrBadPayload)
		}
		var show bool
		if err := json.Unmarshal(env.ShowCount, &show); err != nil {
			return nil, fmt.Errorf("%w: showCount must be a boolean", ErrBadPayload)
		}
		return UpdateShowCount{ShowCount: show}, nil

	case "":
		return nil, fmt.Errorf("%w: missing action", ErrBadPayload)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
}

func isNullToken(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// DecodeBadgeUpdate parses an updateBadge message on the relay side.
func DecodeBadgeUpdate(data []byte) (BadgeUpdate, error) {
	var msg BadgeUpdate
	if err := json.Unmarshal(data, &msg); err != nil {
		return BadgeUpdate{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if msg.WireAction != ActionUpdateBadge {
		return BadgeUpdate{}, fmt.Errorf("%w: %q", ErrUnknownAction, msg.WireAction)
	}
	return msg, nil
}
