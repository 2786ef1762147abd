package domain

import "errors"

// CardState describes the filtering state of a single product card.
type CardState int

const (
	// CardUnseen means the card has not been through a scan pass yet.
	CardUnseen CardState = iota
	// CardVisible means the card was scanned and its seller is not filtered.
	CardVisible
	// CardHidden means the card was scanned and is currently hidden.
	CardHidden
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid card state transition")

// ValidTransitions defines allowed card state transitions.
// Key is the current state, value is the list of valid next states.
// Unseen cards settle into Visible or Hidden on first scan; after that a
// card only flips between the two as the filter list changes.
var ValidTransitions = map[CardState][]CardState{
	CardUnseen:  {CardVisible, CardHidden},
	CardVisible: {CardHidden},
	CardHidden:  {CardVisible},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to CardState) bool {
	validTargets, ok := ValidTransitions[from]
	if !ok {
		return false
	}

	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// String returns a human-readable name for a card state.
func (s CardState) String() string {
	switch s {
	case CardUnseen:
		return "unseen"
	case CardVisible:
		return "visible"
	case CardHidden:
		return "hidden"
	default:
		return "unknown"
	}
}
