package credential

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoCredential means the user has not authenticated yet.
var ErrNoCredential = errors.New("no credential available")

// Source supplies the bearer token for the current session. Implementations
// return ErrNoCredential when the user is not authenticated.
type Source interface {
	Token() (string, error)
}

// Static is a fixed token, typically from a command-line flag.
type Static string

func (s Static) Token() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoCredential
	}
	return strings.TrimSpace(string(s)), nil
}

// Env reads the token from an environment variable at every call, so a
// rotated value is picked up on the next connect.
type Env string

func (e Env) Token() (string, error) {
	return Static(os.Getenv(string(e))).Token()
}

// Chain tries each source in order and returns the first token found.
type Chain []Source

func (c Chain) Token() (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		tok, err := src.Token()
		if err == nil && tok != "" {
			return tok, nil
		}
		if err != nil && !errors.Is(err, ErrNoCredential) {
			return "", err
		}
	}
	return "", ErrNoCredential
}

// ExpiresAt reads the exp claim of a JWT without verifying its signature.
// The token stays opaque to the client; this is only used to warn that an
// expired token will keep failing.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether token carries an exp claim that lies before now.
func Expired(token string, now time.Time) bool {
	exp, ok := ExpiresAt(token)
	return ok && exp.Before(now)
}
