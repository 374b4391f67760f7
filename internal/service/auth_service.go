package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clubportal/internal/access"
	"clubportal/internal/auth"
	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

const bcryptCost = 10

// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
var ErrInvalidRefreshToken = stderrors.New("invalid or expired refresh token")

// TokenPair is issued on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Me describes the calling user and the capabilities they hold.
type Me struct {
	User        *model.User `json:"user"`
	Permissions []string    `json:"permissions"`
	IsWebLead   bool        `json:"is_web_lead"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, username, password, ip string) (*TokenPair, *model.User, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// Logout revokes the refresh token and blacklists the access token the caller presented.
	Logout(ctx context.Context, actor *access.Principal, refreshToken string, accessClaims *auth.Claims, ip string) error
	Me(ctx context.Context, actor *access.Principal) (*Me, error)
	// Principal resolves token claims into a principal backed by the current user row.
	Principal(ctx context.Context, claims *auth.Claims) (*access.Principal, error)
}

type authService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	caps       CapabilityChecker
	audit      AuditService
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	caps CapabilityChecker,
	audit AuditService,
) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		caps:       caps,
		audit:      audit,
		now:        time.Now,
	}
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, username, password, ip string) (*TokenPair, *model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil || !user.IsActive {
		return nil, nil, errors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, errors.ErrInvalidCredentials
	}

	id := auth.Identity{UserID: user.ID, Username: user.Username, IsSuperuser: user.IsSuperuser}
	accessToken, err := s.jwtService.GenerateAccessToken(id)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}
	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(id)
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Username, auth.RefreshTokenExpiry); err != nil {
		return nil, nil, fmt.Errorf("store refresh token: %w", err)
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now

	s.audit.Record(ctx, AuditEntry{
		Actor:     access.FromUser(user),
		EventType: EventUserLogin,
		Target:    "User " + user.Username + " logged in",
		IP:        ip,
	})
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, user, nil
}

// Refresh validates a refresh token and returns a new access token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil || claims.ID == "" {
		return "", ErrInvalidRefreshToken
	}

	storedUserID, storedUsername, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedUsername != claims.Username {
		return "", ErrInvalidRefreshToken
	}

	// Flags may have changed since the refresh token was issued.
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return "", ErrInvalidRefreshToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(auth.Identity{
		UserID:      user.ID,
		Username:    user.Username,
		IsSuperuser: user.IsSuperuser,
	})
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

func (s *authService) Logout(ctx context.Context, actor *access.Principal, refreshToken string, accessClaims *auth.Claims, ip string) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	if err := s.tokenStore.DeleteRefreshToken(ctx, tokenID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if accessClaims != nil && accessClaims.ID != "" {
		ttl := s.jwtService.RemainingLifetime(accessClaims)
		if err := s.tokenStore.BlacklistAccessToken(ctx, accessClaims.ID, ttl); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}

	target := "Anonymous logout"
	if actor.Authenticated() {
		target = "User " + actor.Username + " logged out"
	}
	s.audit.Record(ctx, AuditEntry{Actor: actor, EventType: EventUserLogout, Target: target, IP: ip})
	return nil
}

func (s *authService) Me(ctx context.Context, actor *access.Principal) (*Me, error) {
	if !actor.Authenticated() {
		return nil, errors.ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, wrapNotFound(err, errors.ErrUserNotFound)
	}

	perms := s.caps.Capabilities(ctx, actor).Names()
	if actor.Superuser() {
		perms = make([]string, 0, len(access.AllCapabilities))
		for _, c := range access.AllCapabilities {
			perms = append(perms, c.String())
		}
	}
	return &Me{User: user, Permissions: perms, IsWebLead: s.caps.IsWebLead(ctx, actor)}, nil
}

func (s *authService) Principal(ctx context.Context, claims *auth.Claims) (*access.Principal, error) {
	if claims == nil || claims.UserID == 0 {
		return nil, nil
	}
	if claims.ID != "" {
		revoked, err := s.tokenStore.IsAccessTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token blacklist: %w", err)
		}
		if revoked {
			return nil, errors.ErrUnauthorized
		}
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load principal: %w", err)
	}
	if !user.IsActive {
		return nil, errors.ErrUnauthorized
	}
	return access.FromUser(user), nil
}
