package taskdesk

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiration is the canonical credential lifetime
const DefaultTokenExpiration = 2 * time.Hour

// AuthStatus is the outcome of a credential verification
type AuthStatus int

const (
	Unauthorized AuthStatus = iota
	Authorized
)

func (s AuthStatus) String() string {
	if s == Authorized {
		return "authorized"
	}
	return "unauthorized"
}

// Messages returned by Verify. Every failure cause maps to MsgTokenInvalid.
const (
	MsgTokenMissing = "token missing"
	MsgTokenInvalid = "invalid or expired"
	MsgTokenValid   = "token is valid"
)

// AuthResult is what Verify returns; it never carries an error.
type AuthResult struct {
	Status  AuthStatus
	Claims  *UserClaims
	Expires time.Time
	Message string
}

// Authorized reports whether the credential was accepted
func (r AuthResult) Authorized() bool {
	return r.Status == Authorized && r.Claims != nil
}

// TokenService issues and verifies HS256 credentials
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	logger     Logger
	now        func() time.Time
}

// TokenOption configures a TokenService
type TokenOption func(*TokenService)

// WithIssuer sets the iss claim and requires it on verification
func WithIssuer(issuer string) TokenOption {
	return func(ts *TokenService) {
		ts.issuer = issuer
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *TokenService) {
		ts.logger = normalizeLogger(logger)
	}
}

// WithClock overrides the time source, used for expiry checks too
func WithClock(now func() time.Time) TokenOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// NewTokenService creates a new TokenService instance. An empty signing key
// is a startup error.
func NewTokenService(signingKey []byte, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	if ttl <= 0 {
		ttl = DefaultTokenExpiration
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	ts := &TokenService{
		signingKey: key,
		ttl:        ttl,
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// NewTokenServiceFromConfig creates a TokenService from Config
func NewTokenServiceFromConfig(cfg Config, logger Logger) (*TokenService, error) {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		WithIssuer(cfg.GetIssuer()),
		WithTokenLogger(logger),
	)
}

// TTL returns the credential lifetime
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue signs a credential for the given user
func (ts *TokenService) Issue(user UserClaims) (string, error) {
	if err := user.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   strconv.FormatInt(user.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UserClaims: user,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}

	return signed, nil
}

// Verify validates signature, algorithm, expiry and shape. Any failure is
// reported as the same unauthorized result.
func (ts *TokenService) Verify(token string) (result AuthResult) {
	if token == "" {
		return AuthResult{Status: Unauthorized, Message: MsgTokenMissing}
	}

	defer func() {
		if r := recover(); r != nil {
			ts.logger.Error("credential verification panic", "panic", r)
			result = AuthResult{Status: Unauthorized, Message: MsgTokenInvalid}
		}
	}()

	claims, err := ts.parse(token)
	if err != nil {
		ts.logger.Debug("credential rejected", "reason", failureReason(err))
		return AuthResult{Status: Unauthorized, Message: MsgTokenInvalid}
	}

	user := claims.UserClaims
	return AuthResult{
		Status:  Authorized,
		Claims:  &user,
		Expires: claims.Expires(),
		Message: MsgTokenValid,
	}
}

func (ts *TokenService) parse(token string) (*JWTClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidClaims
	}

	if err := claims.validateShape(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}

	return claims, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, ErrInvalidClaims), errors.Is(err, jwt.ErrTokenInvalidClaims):
		return "claims"
	default:
		return "invalid"
	}
}
