package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cyhinverse/mobile-store-server/internal/config"
)

// Purpose selects the secret and lifetime a token is minted with. One code
// path serves access, refresh and password-reset tokens.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
	PurposeReset   Purpose = "reset"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID  string  `json:"uid"`
	Role    string  `json:"role"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

type tokenParams struct {
	secret []byte
	ttl    time.Duration
}

// Issuer mints and verifies signed, time-bounded credentials.
type Issuer struct {
	params map[Purpose]tokenParams
	now    func() time.Time
}

func NewIssuer(cfg config.Auth) *Issuer {
	return &Issuer{
		params: map[Purpose]tokenParams{
			PurposeAccess:  {secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
			PurposeRefresh: {secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
			PurposeReset:   {secret: []byte(cfg.ResetSecret), ttl: cfg.ResetTTL},
		},
		now: time.Now,
	}
}

func (i *Issuer) Issue(userID, role string, purpose Purpose) (string, error) {
	p, ok := i.params[purpose]
	if !ok {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	now := i.now().UTC()
	claims := Claims{
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Verify checks signature, expiry and that the token was minted for the
// expected purpose. A refresh token never passes as an access token.
func (i *Issuer) Verify(token string, purpose Purpose) (*Claims, error) {
	p, ok := i.params[purpose]
	if !ok {
		return nil, fmt.Errorf("unknown token purpose %q", purpose)
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
