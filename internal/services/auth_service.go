package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
)

// Token types carried in the "type" claim. A refresh token can never be
// used on an authenticated endpoint and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the decoded claim set of our JWTs. Subject holds the user
// ID; ID (jti) is the revocation handle.
type TokenClaims struct {
	TenantID  string `json:"tenant_id,omitempty"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users      *postgres.UserRepository
	redis      *RedisService
	hub        *realtime.Hub
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users *postgres.UserRepository, redis *RedisService, hub *realtime.Hub, secret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		redis:      redis,
		hub:        hub,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *AuthService) signToken(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if user.TenantID != nil {
		claims.TenantID = user.TenantID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *AuthService) issuePair(user *models.User) (access, refresh string, err error) {
	access, err = s.signToken(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	refresh, err = s.signToken(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}
	return access, refresh, nil
}

// parseToken verifies the signature and expiry and returns the claims. It
// does not consult the blacklist; callers that care call checkRevoked.
func (s *AuthService) parseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *TokenClaims) error {
	revoked, err := s.redis.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

// ValidateAccessToken is the check behind every authenticated request and
// every session handshake: signature, expiry, token type, revocation.
func (s *AuthService) ValidateAccessToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error) {
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		TenantID: req.TenantID,
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user registered", "userID", user.ID, "email", user.Email)
	resp := user.ToResponse()
	return &resp, nil
}

func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	access, refresh, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "userID", user.ID)
	return &models.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.ToResponse(),
	}, nil
}

// Refresh rotates a refresh token: the old one is revoked the moment the
// new pair is issued, so a stolen refresh token is single-use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	access, refresh, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	if err := s.redis.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.ToResponse(),
	}, nil
}

// Logout revokes the presented tokens and tears down every live session the
// user owns. The disconnect is synchronous: when this returns, no socket is
// still receiving events on the revoked credentials.
func (s *AuthService) Logout(ctx context.Context, claims *TokenClaims, refreshToken string) error {
	if err := s.redis.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return err
	}
	if refreshToken != "" {
		if rc, err := s.parseToken(refreshToken); err == nil && rc.Subject == claims.Subject {
			if err := s.redis.BlacklistToken(ctx, rc.ID, time.Until(rc.ExpiresAt.Time)); err != nil {
				return err
			}
		}
	}

	s.hub.DisconnectAll(claims.Subject, "logged_out")
	slog.Info("user logged out", "userID", claims.Subject)
	return nil
}
