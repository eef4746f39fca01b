// Package frame implements the piece-browsing frame: navigation state, the
// signed session token, the control model, rendering and HTTP handlers.
package frame

import (
	stderrors "errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidPieceID is returned when search text is not a piece id.
var ErrInvalidPieceID = stderrors.New("invalid pieceId")

// State is the per-session navigation state.
type State struct {
	PieceID int64 `json:"pieceId"`
}

// Normalized returns s with a negative piece id clamped to zero.
func (s State) Normalized() State {
	if s.PieceID < 0 {
		return State{PieceID: 0}
	}
	return s
}

// Button is the navigation action attached to a frame button.
type Button string

const (
	ButtonNone Button = ""
	ButtonInc  Button = "inc"
	ButtonDec  Button = "dec"
)

// ParseButton maps an action value to a Button. Unknown values are ButtonNone.
func ParseButton(s string) Button {
	switch Button(strings.ToLower(strings.TrimSpace(s))) {
	case ButtonInc:
		return ButtonInc
	case ButtonDec:
		return ButtonDec
	default:
		return ButtonNone
	}
}

// Input is one user interaction.
type Input struct {
	Button     Button
	SearchText string
	PathID     string
	HasPathID  bool
}

// Precedence decides whether a route path id overrides a button action.
type Precedence string

const (
	// PrecedenceAction uses the path id only when no button or text was given.
	PrecedenceAction Precedence = "action"
	// PrecedencePath lets a parseable path id override everything else.
	PrecedencePath Precedence = "path"
)

// ParseInteger parses a non-negative decimal piece id. Surrounding whitespace
// and a leading "+" are accepted.
func ParseInteger(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, ErrInvalidPieceID
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrInvalidPieceID
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidPieceID
	}
	return n, nil
}

// Transition computes the next state. Rules apply in order and later rules
// override earlier ones:
//
//  1. inc adds one
//  2. dec subtracts one
//  3. non-empty search text replaces the id, or fails with ErrInvalidPieceID
//  4. with neither button nor text, the path id is used, or 0
//  5. under PrecedencePath a parseable path id overrides the result
//
// prev is never modified and no state is produced on error.
func Transition(prev State, in Input, p Precedence) (State, error) {
	next := prev
	text := strings.TrimSpace(in.SearchText)

	switch in.Button {
	case ButtonInc:
		if next.PieceID < math.MaxInt64 {
			next.PieceID++
		}
	case ButtonDec:
		if next.PieceID > math.MinInt64 {
			next.PieceID--
		}
	}

	if text != "" {
		id, err := ParseInteger(text)
		if err != nil {
			return prev, err
		}
		next.PieceID = id
	}

	if in.Button == ButtonNone && text == "" {
		next.PieceID = 0
		if in.HasPathID {
			if id, err := ParseInteger(in.PathID); err == nil {
				next.PieceID = id
			}
		}
	}

	if p == PrecedencePath && in.HasPathID {
		if id, err := ParseInteger(in.PathID); err == nil {
			next.PieceID = id
		}
	}

	return next, nil
}
