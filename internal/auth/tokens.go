package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/khanghh/kmfa/params"
	"github.com/spf13/cast"
)

var ErrSigningKeyTooShort = errors.New("signing key too short")

type TokenType string

const (
	TokenTypeAccess   TokenType = "access"
	TokenTypeRefresh  TokenType = "refresh"
	TokenTypeRecovery TokenType = "recovery"
)

type TokenClaims struct {
	Username   string    `json:"username,omitempty"`
	MfaEnabled *bool     `json:"mfa_enabled,omitempty"` // always set on access tokens, never on refresh tokens
	Type       TokenType `json:"typ"`
	Scope      string    `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// AccountID parses the subject claim.
func (c *TokenClaims) AccountID() (uint, error) {
	return cast.ToUintE(c.Subject)
}

// TokenIssuer signs and verifies HS256 bearer tokens. Access, refresh and
// recovery tokens share one key and are told apart by the typ claim.
type TokenIssuer struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// Issue fills in the registered claims (jti, iss, iat, exp) and signs
// claims with the given type.
func (i *TokenIssuer) Issue(tokenType TokenType, claims TokenClaims, ttl time.Duration) (string, *TokenClaims, error) {
	now := i.now()
	claims.Type = tokenType
	claims.ID = uuid.NewString()
	claims.Issuer = i.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", nil, err
	}
	return signed, &claims, nil
}

// Verify checks the signature, then expiry, then that the token is of the
// expected type. Any failure yields ErrInvalidToken or ErrTokenExpired and no
// claims.
func (i *TokenIssuer) Verify(tokenString string, tokenType TokenType) (*TokenClaims, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return i.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != tokenType || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if tokenType == TokenTypeAccess && claims.MfaEnabled == nil {
		return nil, ErrInvalidToken
	}
	if id, err := claims.AccountID(); err != nil || id == 0 {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func NewTokenIssuer(signingKey string, issuer string, now func() time.Time) (*TokenIssuer, error) {
	if len(signingKey) < params.MinSigningKeyLength {
		return nil, ErrSigningKeyTooShort
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        now,
	}, nil
}
