package auth

import (
	"context"
	"strings"
	"time"

	pkgAuth "github.com/lumina-commerce/storefront-backend/pkg/auth"
	"github.com/lumina-commerce/storefront-backend/pkg/auth/session"
	"github.com/lumina-commerce/storefront-backend/pkg/config"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResponse carries the freshly minted token pair.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	Email        string `json:"email"`
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// shopper is one parsed directory entry.
type shopper struct {
	email        string
	passwordHash string
	userID       string
}

type service struct {
	shoppers map[string]shopper
	session  sessionManager
	jwtCfg   config.JWTConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	AuthConfig     config.AuthConfig
	JWTConfig      config.JWTConfig
	SessionManager sessionManager
}

// NewService constructs a login service over the configured shopper
// directory. Directory entries are "email:argon2id-hash:user-id".
func NewService(params ServiceParams) (Service, error) {
	if params.SessionManager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager is required")
	}

	shoppers := make(map[string]shopper, len(params.AuthConfig.Shoppers))
	for _, entry := range params.AuthConfig.Shoppers {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "malformed shopper directory entry")
		}
		email := strings.ToLower(parts[0])
		shoppers[email] = shopper{email: email, passwordHash: parts[1], userID: parts[2]}
	}

	return &service{
		shoppers: shoppers,
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
	}, nil
}

// Login verifies credentials against the directory and mints a token pair.
// Unknown emails and bad passwords return the same error.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	entry, ok := s.shoppers[email]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	match, err := security.VerifyPassword(req.Password, entry.passwordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.mint(ctx, entry.userID, entry.email)
}

// Refresh rotates the refresh token and issues a new access token. The
// expired access token identifies the session being rotated.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*LoginResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "parse access token")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		return nil, err
	}

	minted, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken:  minted,
		RefreshToken: newRefresh,
		UserID:       claims.UserID,
		Email:        claims.Email,
	}, nil
}

// Logout revokes the refresh session for an access id.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if accessID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id required")
	}
	return s.session.Revoke(ctx, accessID)
}

func (s *service) mint(ctx context.Context, userID, email string) (*LoginResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       userID,
		Email:        email,
	}, nil
}
