package supabase

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskmaster/internal/session"
)

// claims is the subset of the access token's JWT payload the client needs.
// The signature is not checked here: the backend rejects forged tokens on
// every request, the client only reads its own identity out of the token.
type claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
}

func parseClaims(accessToken string) (claims, error) {
	parts := strings.Split(accessToken, ".")
	if len(parts) != 3 {
		return claims{}, fmt.Errorf("malformed access token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return claims{}, fmt.Errorf("invalid access token payload: %w", err)
	}
	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return claims{}, fmt.Errorf("invalid access token claims: %w", err)
	}
	if c.Sub == "" {
		return claims{}, fmt.Errorf("access token missing subject")
	}
	return c, nil
}

// sessionFromToken derives the session identity from a stored token.
func sessionFromToken(tok *oauth2.Token) (*session.Session, error) {
	c, err := parseClaims(tok.AccessToken)
	if err != nil {
		return nil, err
	}
	expires := tok.Expiry
	if expires.IsZero() && c.Exp > 0 {
		expires = time.Unix(c.Exp, 0)
	}
	return &session.Session{
		UserID:    c.Sub,
		Email:     c.Email,
		ExpiresAt: expires,
	}, nil
}
