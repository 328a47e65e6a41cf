// Package auth implements the HTTP Basic credential gate in front of the
// management API and UI.
package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

// Match decides how the presented user id and password are compared with
// the configured ones.
type Match string

const (
	// MatchAny authorizes when either the user id or the password matches.
	// This is the historical behaviour of the service and the default.
	MatchAny Match = "any"
	// MatchAll requires both to match.
	MatchAll Match = "all"
)

const (
	ReasonMissing = "Login to access the management UI"
	ReasonInvalid = "Invalid username or password"
	ReasonClosed  = "The management UI is disabled"
)

// ChallengeError is returned when a request is not authorized. It carries
// the realm for the WWW-Authenticate header.
type ChallengeError struct {
	Realm  string
	Reason string
}

func (e *ChallengeError) Error() string { return e.Reason }

// WWWAuthenticate implements httpx.Challenge.
func (e *ChallengeError) WWWAuthenticate() string {
	return httpx.BasicChallenge(e.Realm)
}

// Gate checks Basic credentials against the configured pair.
type Gate struct {
	userID   string
	password string
	realm    string
	match    Match
}

// NewGate builds a Gate from the auth configuration.
func NewGate(cfg config.AuthConfig) *Gate {
	match := Match(cfg.Match)
	if match != MatchAll {
		match = MatchAny
	}
	return &Gate{
		userID:   cfg.UserID,
		password: cfg.Password,
		realm:    cfg.Realm,
		match:    match,
	}
}

// Disabled reports whether no credentials are configured. A disabled gate
// challenges every request.
func (g *Gate) Disabled() bool {
	return g.userID == "" && g.password == ""
}

// Unsatisfiable reports whether the gate requires both values while only one
// is configured. No request can pass such a gate.
func (g *Gate) Unsatisfiable() bool {
	return g.match == MatchAll && !g.Disabled() && (g.userID == "" || g.password == "")
}

// Authorize returns nil when r carries acceptable credentials and a
// *ChallengeError otherwise. Malformed headers count as wrong credentials.
func (g *Gate) Authorize(r *http.Request) error {
	if r.Header.Get("Authorization") == "" {
		return g.challenge(ReasonMissing)
	}
	if g.Disabled() {
		return g.challenge(ReasonClosed)
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return g.challenge(ReasonInvalid)
	}

	userOK := matches(g.userID, user)
	passOK := matches(g.password, pass)

	var authorized bool
	switch g.match {
	case MatchAll:
		authorized = userOK && passOK
	default:
		authorized = userOK || passOK
	}
	if !authorized {
		return g.challenge(ReasonInvalid)
	}
	return nil
}

// Require wraps next so it only runs for authorized requests; failures go
// to rj.
func (g *Gate) Require(rj *httpx.Rejecter) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := g.Authorize(r); err != nil {
				rj.Reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) challenge(reason string) *ChallengeError {
	return &ChallengeError{Realm: g.realm, Reason: reason}
}

// matches compares in constant time. An unset credential never matches, so
// an empty password can't unlock MatchAny.
func matches(configured, presented string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
