package security

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"agromind-server/config"
	"agromind-server/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of both token kinds.
// Subject shadows RegisteredClaims.Subject: "sub" is an object here, not a string.
type Claims struct {
	Type    model.TokenKind `json:"type"`
	Subject model.Subject   `json:"sub"`
	jwt.RegisteredClaims
}

// Expiry : zero time when exp is absent
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type TokenCodec struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type CodecOption func(*TokenCodec)

// WithClock replaces time.Now, used by tests to mint tokens in the past.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

func NewTokenCodec(cfg *config.JWTConfig, opts ...CodecOption) (*TokenCodec, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("security.NewTokenCodec: empty secret key")
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("security.NewTokenCodec: unsupported algorithm %q", cfg.Algorithm)
	}

	codec := &TokenCodec{
		secret:     []byte(cfg.SecretKey),
		method:     method,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(codec)
	}

	return codec, nil
}

func (c *TokenCodec) TTL(kind model.TokenKind) time.Duration {
	if kind == model.KindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// Issue signs a new token of the given kind for subject.
func (c *TokenCodec) Issue(kind model.TokenKind, subject model.Subject) (model.IssuedToken, error) {
	if !kind.Valid() {
		return model.IssuedToken{}, fmt.Errorf("security.Issue: unknown token kind %q", kind)
	}

	jti, err := newJTI()
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("security.Issue: %w", err)
	}

	now := c.now()
	expiresAt := now.Add(c.TTL(kind))

	claims := Claims{
		Type:    kind,
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("security.Issue: sign: %w", err)
	}

	// exp is serialized with second precision
	return model.IssuedToken{
		Token:     token,
		JTI:       jti,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Decode verifies signature, algorithm and expiry of token.
// It fails with model.ErrTokenExpired for a well-signed token past its exp and with
// model.ErrInvalidToken for everything else.
func (c *TokenCodec) Decode(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", model.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidToken, err)
	}

	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", model.ErrInvalidToken)
	}
	if !claims.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown token type %q", model.ErrInvalidToken, claims.Type)
	}

	return claims, nil
}

// newJTI : 128 random bits, hex encoded
func newJTI() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(id[:]), nil
}
