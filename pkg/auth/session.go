package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quorumworks/govledger/pkg/config"
)

// SessionCookie is the cookie carrying the session JWT.
const SessionCookie = "govledger_session"

// Claims is the session payload. UserID is the stable Google account ID and
// doubles as the tenant discriminator for resolution caches.
type Claims struct {
	UserID       string `json:"uid"`
	Email        string `json:"email"`
	AccessToken  string `json:"at"`
	RefreshToken string `json:"rt,omitempty"`
	jwt.RegisteredClaims
}

// Sessions mints and validates stateless session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessions initializes the session manager. An empty secret gets a random
// one, which invalidates all sessions on restart.
func NewSessions(secret string, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	if secret == "" {
		secret = randomSecret(32)
		logger.Warn("Generated random session secret, sessions will not survive restarts")
	}
	return &Sessions{
		secret: []byte(secret),
		ttl:    config.DefaultSessionTTL,
		logger: logger,
	}
}

// Issue mints a session token for a signed-in user.
func (s *Sessions) Issue(userID, email, accessToken, refreshToken string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       userID,
		Email:        email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "govledger",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns its claims.
func (s *Sessions) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	return claims, nil
}

// SetCookie attaches the session to a response.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie signs the user out.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest validates the session cookie on an incoming request.
func (s *Sessions) FromRequest(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, fmt.Errorf("no session cookie")
	}
	return s.Validate(c.Value)
}

func randomSecret(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}
