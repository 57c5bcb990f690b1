package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"yatube-backend/internal/config"
	"yatube-backend/internal/dto"
	"yatube-backend/internal/mapper"
	"yatube-backend/internal/model"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	IsStaff   bool   `json:"is_staff,omitempty"`
}

// TokenService issues and checks HS256 JWTs.
type TokenService struct {
	users      *UserService
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(users *UserService, cfg config.JWTConfig) *TokenService {
	return &TokenService{
		users:      users,
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// Obtain checks credentials and returns a fresh access/refresh pair.
func (s *TokenService) Obtain(ctx context.Context, username, password string) (dto.TokenPair, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return dto.TokenPair{}, err
	}
	return s.IssuePair(user)
}

func (s *TokenService) IssuePair(user *model.User) (dto.TokenPair, error) {
	access, err := s.sign(user, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return dto.TokenPair{}, err
	}
	refresh, err := s.sign(user, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return dto.TokenPair{}, err
	}
	return dto.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token. The user is
// reloaded so a deleted account cannot keep refreshing.
func (s *TokenService) Refresh(ctx context.Context, refresh string) (dto.TokenPair, error) {
	claims, err := s.parse(refresh, tokenTypeRefresh)
	if err != nil {
		return dto.TokenPair{}, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrNotFound) {
		return dto.TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return dto.TokenPair{}, err
	}
	access, err := s.sign(user, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return dto.TokenPair{}, err
	}
	return dto.TokenPair{Access: access}, nil
}

// Verify accepts any unexpired token this service signed.
func (s *TokenService) Verify(token string) error {
	_, err := s.parse(token, "")
	return err
}

// Authenticate resolves an access token to the request principal. The user is
// reloaded so a deleted or demoted account loses its rights at once instead of
// when the token expires.
func (s *TokenService) Authenticate(ctx context.Context, token string) (*dto.LoginUser, error) {
	claims, err := s.parse(token, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &dto.LoginUser{ID: user.ID, Username: user.Username, IsStaff: user.IsStaff}, nil
}

func (s *TokenService) sign(user *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	principal := mapper.ToLoginUser(user)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(principal.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		TokenType: tokenType,
		UserID:    principal.ID,
		Username:  principal.Username,
		IsStaff:   principal.IsStaff,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// parse validates signature, issuer and expiry. wantType "" accepts either type.
func (s *TokenService) parse(token, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if wantType != "" && claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
