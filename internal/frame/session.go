package frame

import (
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession is returned for a session token that fails verification.
var ErrInvalidSession = stderrors.New("invalid session token")

type sessionClaims struct {
	PieceID *int64 `json:"pieceId"`
	jwt.RegisteredClaims
}

// SessionCodec signs State into the frame state field and verifies it on the
// way back. It is immutable and safe for concurrent use.
type SessionCodec struct {
	key       []byte
	initial   State
	ephemeral bool
	now       func() time.Time
}

// NewSessionCodec creates a codec keyed by secret. An empty secret generates a
// random per-process key, which invalidates sessions on restart.
func NewSessionCodec(secret string, initial State) (*SessionCodec, error) {
	c := &SessionCodec{initial: initial, now: time.Now}
	if strings.TrimSpace(secret) != "" {
		c.key = []byte(secret)
		return c, nil
	}

	c.key = make([]byte, 32)
	if _, err := rand.Read(c.key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	c.ephemeral = true
	return c, nil
}

// Ephemeral reports whether the key was generated at start-up.
func (c *SessionCodec) Ephemeral() bool {
	return c.ephemeral
}

// Initial returns the state used when no token is supplied.
func (c *SessionCodec) Initial() State {
	return c.initial
}

// Encode signs s.
func (c *SessionCodec) Encode(s State) (string, error) {
	id := s.PieceID
	claims := sessionClaims{
		PieceID: &id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// Decode verifies token and returns its state. An empty token yields the
// initial state.
func (c *SessionCodec) Decode(token string) (State, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return c.initial, nil
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !parsed.Valid {
		return State{}, ErrInvalidSession
	}
	if claims.PieceID == nil {
		return State{}, fmt.Errorf("%w: missing pieceId", ErrInvalidSession)
	}
	return State{PieceID: *claims.PieceID}, nil
}
