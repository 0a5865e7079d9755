// internal/httpserver/gate.go
//
// The lock-screen gate: a site-wide passcode in front of the game, not player
// authentication. When GATE_CODE is set, POST /unlock exchanges the passcode
// for a signed session cookie and the gate middleware requires it on the
// game/room routes; when unset, the middleware is a pass-through.
//
// The passcode is bcrypt-hashed at startup so it never sits in memory as
// plain text longer than necessary, and the session token is an HS256 JWT
// carrying only a random session id.

package httpserver

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"wordrooms/internal/config"
)

const gateCookieName = "wordrooms_gate"

const gateSessionDays = 7

type gate struct {
	hash   []byte // bcrypt hash of the passcode; nil disables the gate
	secret []byte
}

func newGate(cfg config.Config) *gate {
	g := &gate{secret: []byte(cfg.JWTSecret)}
	if cfg.GateCode == "" {
		return g
	}
	h, err := bcrypt.GenerateFromPassword([]byte(cfg.GateCode), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("could not hash gate code, gate disabled")
		return g
	}
	g.hash = h
	return g
}

func (g *gate) enabled() bool { return len(g.hash) > 0 }

type unlockReq struct {
	Code string `json:"code"`
}

// handleUnlock checks the passcode and sets the gate cookie.
func (g *gate) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if !g.enabled() {
		_ = json.NewEncoder(w).Encode(map[string]bool{"unlocked": true})
		return
	}
	var req unlockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if bcrypt.CompareHashAndPassword(g.hash, []byte(req.Code)) != nil {
		http.Error(w, `{"error":"wrong_code"}`, http.StatusUnauthorized)
		return
	}

	exp := time.Now().Add(gateSessionDays * 24 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": uuid.NewString(),
		"exp": exp.Unix(),
		"iat": time.Now().Unix(),
	})
	ss, err := token.SignedString(g.secret)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	setGateCookie(w, ss, exp)
	_ = json.NewEncoder(w).Encode(map[string]bool{"unlocked": true})
}

// require is the gate middleware. Pass-through when no passcode is set.
func (g *gate) require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.enabled() {
			next.ServeHTTP(w, r)
			return
		}
		tokenStr := bearerOrCookie(r)
		if tokenStr == "" {
			http.Error(w, `{"error":"locked"}`, http.StatusUnauthorized)
			return
		}
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return g.secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, `{"error":"locked"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setGateCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     gateCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts the gate token from the Authorization header or
// the gate cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(gateCookieName); err == nil {
		return c.Value
	}
	return ""
}
