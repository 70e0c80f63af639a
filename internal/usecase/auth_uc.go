// File: internal/usecase/auth_uc.go
package usecase

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"hmk-docs-backend/internal/domain"
	"hmk-docs-backend/internal/domain/model"
	"hmk-docs-backend/internal/domain/ports/adapter"
	"hmk-docs-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ AuthUseCase = (*authUC)(nil)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type AuthUseCase interface {
	Register(ctx context.Context, email, password string) (TokenPair, error)
	Login(ctx context.Context, email, password string) (TokenPair, error)
	// Refresh rotates the refresh token: the presented token's row is
	// revoked and a new pair is issued.
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, userID string) error
	// VerifyAccessToken validates a bearer token and returns the user id.
	VerifyAccessToken(tokenString string) (string, error)
}

type authUC struct {
	users      repository.UserRepository
	tokens     repository.RefreshTokenRepository
	notifier   adapter.Notifier
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	log        *zerolog.Logger
}

func NewAuthUseCase(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	notifier adapter.Notifier,
	secret string,
	accessTTL, refreshTTL time.Duration,
	bcryptCost int,
	logger *zerolog.Logger,
) *authUC {
	authLog := logger.With().Str("component", "AuthUC").Logger()
	return &authUC{
		users:      users,
		tokens:     tokens,
		notifier:   notifier,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: bcryptCost,
		log:        &authLog,
	}
}

func (u *authUC) Register(ctx context.Context, email, password string) (TokenPair, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return TokenPair{}, domain.ErrInvalidArgument
	}

	if _, err := u.users.FindByEmail(ctx, repository.NoTx, email); err == nil {
		return TokenPair{}, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return TokenPair{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Save(ctx, repository.NoTx, user); err != nil {
		return TokenPair{}, err
	}

	if err := u.notifier.Welcome(ctx, user.Email); err != nil {
		u.log.Warn().Err(err).Msg("welcome notification failed")
	}
	return u.issueTokens(ctx, user)
}

func (u *authUC) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := u.users.FindByEmail(ctx, repository.NoTx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenPair{}, domain.ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return TokenPair{}, domain.ErrInvalidCredentials
	}
	return u.issueTokens(ctx, user)
}

func (u *authUC) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := u.verifyToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	row, err := u.tokens.FindLatestActiveByUser(ctx, repository.NoTx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenPair{}, domain.ErrInvalidToken
		}
		return TokenPair{}, err
	}
	if !row.Usable(time.Now()) {
		return TokenPair{}, domain.ErrInvalidToken
	}
	digest := tokenDigest(refreshToken)
	if bcrypt.CompareHashAndPassword([]byte(row.TokenHash), digest) != nil {
		return TokenPair{}, domain.ErrInvalidToken
	}

	if err := u.tokens.Revoke(ctx, repository.NoTx, row.ID); err != nil {
		return TokenPair{}, err
	}

	user, err := u.users.FindByID(ctx, repository.NoTx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenPair{}, domain.ErrInvalidToken
		}
		return TokenPair{}, err
	}
	return u.issueTokens(ctx, user)
}

func (u *authUC) Logout(ctx context.Context, userID string) error {
	return u.tokens.RevokeAllForUser(ctx, repository.NoTx, userID)
}

func (u *authUC) VerifyAccessToken(tokenString string) (string, error) {
	return u.verifyToken(tokenString, tokenTypeAccess)
}

func (u *authUC) issueTokens(ctx context.Context, user *model.User) (TokenPair, error) {
	access, err := u.signToken(user, tokenTypeAccess, u.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := u.signToken(user, tokenTypeRefresh, u.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	// Stored hashed so a database leak does not leak usable tokens. The
	// bcrypt input is the SHA-256 digest to stay under bcrypt's 72-byte cap.
	hash, err := bcrypt.GenerateFromPassword(tokenDigest(refresh), bcrypt.DefaultCost)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash refresh token: %w", err)
	}
	now := time.Now()
	row := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: string(hash),
		ExpiresAt: now.Add(u.refreshTTL),
		CreatedAt: now,
	}
	if err := u.tokens.Save(ctx, repository.NoTx, row); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (u *authUC) signToken(user *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"type":  tokenType,
		// jti keeps tokens issued within the same second distinct, which
		// rotation depends on.
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secret)
}

func (u *authUC) verifyToken(tokenString, wantType string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return u.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != wantType {
		return "", domain.ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", domain.ErrInvalidToken
	}
	return sub, nil
}

func tokenDigest(token string) []byte {
	d := sha256.Sum256([]byte(token))
	return d[:]
}
