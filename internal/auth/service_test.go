package auth

import (
	"context"
	"fmt"
	"testing"

	pkgAuth "github.com/lumina-commerce/storefront-backend/pkg/auth"
	"github.com/lumina-commerce/storefront-backend/pkg/config"
	"github.com/lumina-commerce/storefront-backend/pkg/security"
)

type stubSessions struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	if provided != "refresh-"+oldAccessID {
		return "", "", fmt.Errorf("refresh token mismatch")
	}
	return "rotated-access-id", "rotated-refresh", nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "storefront-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 10080,
	}
}

func newTestService(t *testing.T, sessions sessionManager) Service {
	t.Helper()

	hash, err := security.HashPassword("hunter2!", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	svc, err := NewService(ServiceParams{
		AuthConfig: config.AuthConfig{
			Shoppers: []string{"jo@example.com:" + hash + ":user-jo"},
		},
		JWTConfig:      testJWTConfig(),
		SessionManager: sessions,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestLoginSuccess(t *testing.T) {
	sessions := &stubSessions{}
	svc := newTestService(t, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "JO@example.com", Password: "hunter2!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.UserID != "user-jo" || resp.Email != "jo@example.com" {
		t.Fatalf("unexpected identity %+v", resp)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if len(sessions.generated) != 1 {
		t.Fatalf("expected 1 refresh session, got %d", len(sessions.generated))
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != "user-jo" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID != sessions.generated[0] {
		t.Fatal("expected jti to match the refresh session access id")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t, &stubSessions{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "jo@example.com", Password: "nope"})
	if err == nil {
		t.Fatal("expected login to fail")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, &stubSessions{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "who@example.com", Password: "hunter2!"})
	if err == nil {
		t.Fatal("expected login to fail")
	}
}

func TestLoginErrorsDoNotDistinguishCause(t *testing.T) {
	svc := newTestService(t, &stubSessions{})
	ctx := context.Background()

	_, badUser := svc.Login(ctx, LoginRequest{Email: "who@example.com", Password: "hunter2!"})
	_, badPass := svc.Login(ctx, LoginRequest{Email: "jo@example.com", Password: "nope"})
	if badUser == nil || badPass == nil {
		t.Fatal("expected both to fail")
	}
	if badUser.Error() != badPass.Error() {
		t.Fatalf("expected identical errors, got %q vs %q", badUser, badPass)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	sessions := &stubSessions{}
	svc := newTestService(t, sessions)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: "jo@example.com", Password: "hunter2!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := svc.Refresh(ctx, resp.AccessToken, resp.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken != "rotated-refresh" {
		t.Fatalf("unexpected refresh token %q", rotated.RefreshToken)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), rotated.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.ID != "rotated-access-id" {
		t.Fatalf("expected rotated jti, got %q", claims.ID)
	}
	if claims.UserID != "user-jo" {
		t.Fatalf("expected identity to carry over, got %+v", claims)
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc := newTestService(t, &stubSessions{})

	_, err := svc.Refresh(context.Background(), "not-a-jwt", "whatever")
	if err == nil {
		t.Fatal("expected refresh to fail")
	}
}

func TestLogoutRevokes(t *testing.T) {
	sessions := &stubSessions{}
	svc := newTestService(t, sessions)

	if err := svc.Logout(context.Background(), "access-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-1" {
		t.Fatalf("expected revoke, got %+v", sessions.revoked)
	}
}

func TestNewServiceRejectsMalformedDirectory(t *testing.T) {
	_, err := NewService(ServiceParams{
		AuthConfig:     config.AuthConfig{Shoppers: []string{"missing-fields"}},
		JWTConfig:      testJWTConfig(),
		SessionManager: &stubSessions{},
	})
	if err == nil {
		t.Fatal("expected malformed entry to be rejected")
	}
}

