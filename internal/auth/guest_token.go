package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultGuestTokenTTL is how long a magic-link sign-in stays valid.
const DefaultGuestTokenTTL = 7 * 24 * time.Hour

const guestAudience = "club25-guest"

// GuestClaims identifies a guest signed in through a magic link.
type GuestClaims struct {
	GuestID uuid.UUID
	Email   string
}

// GuestTokens issues and verifies HS256 guest tokens.
type GuestTokens struct {
	Secret string
	TTL    time.Duration
	Now    func() time.Time
}

func (g *GuestTokens) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Issue signs a token for the guest.
func (g *GuestTokens) Issue(guestID uuid.UUID, email string) (string, error) {
	if g.Secret == "" {
		return "", errors.New("guest token secret is not set")
	}
	ttl := g.TTL
	if ttl <= 0 {
		ttl = DefaultGuestTokenTTL
	}
	now := g.now()
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["sub"] = guestID.String()
	claims["email"] = email
	claims["aud"] = guestAudience
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	return token.SignedString([]byte(g.Secret))
}

// Parse verifies signature, audience and expiry and returns the guest identity.
func (g *GuestTokens) Parse(raw string) (*GuestClaims, error) {
	if g.Secret == "" || raw == "" {
		return nil, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(g.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(guestAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return &GuestClaims{GuestID: id, Email: email}, nil
}
