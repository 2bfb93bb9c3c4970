package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hausee/navigator-backend/internal/platform/ctxutil"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

var ErrUnauthorized = errors.New("unauthorized")

// TokenVerifier turns a bearer token into request identity. Tokens are
// issued by the account service; this API only verifies them.
type TokenVerifier interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GenerateAccessToken(userID uuid.UUID) (string, error)
}

type AuthConfig struct {
	Secret    string
	Issuer    string
	Audience  string
	AccessTTL time.Duration
}

type JWTClaims struct {
	jwt.RegisteredClaims
}

type tokenVerifier struct {
	log *logger.Logger
	cfg AuthConfig
	now func() time.Time
}

func NewTokenVerifier(log *logger.Logger, cfg AuthConfig) (TokenVerifier, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("missing AUTH_JWT_SECRET")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	return &tokenVerifier{
		log: log.With("service", "TokenVerifier"),
		cfg: cfg,
		now: time.Now,
	}, nil
}

func (v *tokenVerifier) GenerateAccessToken(userID uuid.UUID) (string, error) {
	now := v.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    v.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if v.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.cfg.Audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(v.cfg.Secret))
}

func (v *tokenVerifier) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrUnauthorized
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(v.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return ctx, fmt.Errorf("%w: failed to parse token: %v", ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, fmt.Errorf("%w: invalid user id in token", ErrUnauthorized)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}
