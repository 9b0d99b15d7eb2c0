// Package admin holds the password gate in front of the bookings view.
//
// The gate compares an unsalted SHA-256 digest of the entered password with a
// configured hex string. An unsalted digest of a weak password is easy to
// reverse, so it keeps casual visitors out and nothing more.
package admin

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"
)

type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

const (
	MsgEnterPassword     = "Enter password."
	MsgVerifyError       = "Error verifying password."
	MsgHashMissing       = "Admin hash missing (developer error)."
	MsgWelcome           = "Welcome, admin."
	MsgIncorrectPassword = "Incorrect password."
	MsgLoggedOut         = "Logged out."
)

// Outcome describes a gate transition for display.
type Outcome struct {
	State   State
	Message string
	Error   bool
	// ConfigError is set when the expected hash was never configured.
	ConfigError bool
}

// HashFunc digests a password into lower-case hex.
type HashFunc func(ctx context.Context, password string) (string, error)

func SHA256Hex(_ context.Context, password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// Gate is the LoggedOut/LoggedIn state machine. Concurrent logins are not
// serialized; whichever finishes last decides the state.
type Gate struct {
	expectedHash string
	hash         HashFunc

	mu    sync.RWMutex
	state State
}

func NewGate(expectedHash string, hash HashFunc) *Gate {
	if hash == nil {
		hash = SHA256Hex
	}
	return &Gate{expectedHash: expectedHash, hash: hash}
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Gate) Login(ctx context.Context, password string) Outcome {
	if password == "" {
		return Outcome{State: g.State(), Message: MsgEnterPassword, Error: true}
	}

	digest, err := g.hash(ctx, password)
	if err != nil {
		return Outcome{State: g.State(), Message: MsgVerifyError, Error: true}
	}
	if g.expectedHash == "" {
		return Outcome{State: g.State(), Message: MsgHashMissing, Error: true, ConfigError: true}
	}

	if subtle.ConstantTimeCompare([]byte(digest), []byte(g.expectedHash)) != 1 {
		return Outcome{State: g.State(), Message: MsgIncorrectPassword, Error: true}
	}

	g.mu.Lock()
	g.state = LoggedIn
	g.mu.Unlock()
	return Outcome{State: LoggedIn, Message: MsgWelcome}
}

func (g *Gate) Logout() Outcome {
	g.mu.Lock()
	g.state = LoggedOut
	g.mu.Unlock()
	return Outcome{State: LoggedOut, Message: MsgLoggedOut}
}
