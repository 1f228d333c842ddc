// Package token mints, verifies, and fetches the short-lived credentials
// that authenticate console websocket sessions. Tokens are HS256 JWTs scoped
// to "console"; the gateway verifies them at upgrade time and the client
// fetches a fresh one before every dial attempt.
package token

import (
	"errors"
	"time"
)

// ScopeConsole is the only scope console tokens carry.
const ScopeConsole = "console"

// Typed verification failures. The websocket gateway maps these onto close
// codes: expiry and malformed tokens close with 4001, a scope mismatch
// closes with 4003.
var (
	ErrTokenExpired = errors.New("console token expired")
	ErrTokenInvalid = errors.New("console token invalid")
	ErrScope        = errors.New("token not scoped for console access")
)

// ConsoleToken is the credential issued to a console client.
type ConsoleToken struct {
	Token            string    `json:"token"`
	ExpiresAt        time.Time `json:"expires_at"`
	ExpiresInSeconds int       `json:"expires_in_seconds"`
}
