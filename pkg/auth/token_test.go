package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/lumina-commerce/storefront-backend/pkg/config"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()

	payload := AccessTokenPayload{
		UserID: "shopper-1",
		Email:  "shopper@example.com",
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != "shopper-1" {
		t.Fatalf("expected user_id shopper-1, got %s", claims.UserID)
	}
	if claims.Email != "shopper@example.com" {
		t.Fatalf("email not preserved: %s", claims.Email)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintAccessTokenValidatesInput(t *testing.T) {
	now := time.Now()
	base := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 30}

	cases := []struct {
		name    string
		cfg     config.JWTConfig
		payload AccessTokenPayload
	}{
		{name: "missing secret", cfg: config.JWTConfig{Issuer: "storefront", ExpirationMinutes: 30}, payload: AccessTokenPayload{UserID: "u"}},
		{name: "missing issuer", cfg: config.JWTConfig{Secret: "secret", ExpirationMinutes: 30}, payload: AccessTokenPayload{UserID: "u"}},
		{name: "bad expiry", cfg: config.JWTConfig{Secret: "secret", Issuer: "storefront"}, payload: AccessTokenPayload{UserID: "u"}},
		{name: "missing user", cfg: base, payload: AccessTokenPayload{UserID: "  "}},
	}

	for _, tc := range cases {
		if _, err := MintAccessToken(tc.cfg, now, tc.payload); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestParseAccessTokenRejectsTampering(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 30}
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: "shopper-1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ParseAccessToken(cfg, tampered); err == nil {
		t.Fatal("expected signature validation to fail")
	}

	otherSecret := cfg
	otherSecret.Secret = "different"
	if _, err := ParseAccessToken(otherSecret, token); err == nil {
		t.Fatal("expected wrong secret to fail")
	}
}

func TestParseAccessTokenAllowExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 1}
	past := time.Now().Add(-2 * time.Hour)

	token, err := MintAccessToken(cfg, past, AccessTokenPayload{UserID: "shopper-1", JTI: "fixed-jti"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("allow-expired parse: %v", err)
	}
	if claims.ID != "fixed-jti" {
		t.Fatalf("expected jti fixed-jti, got %s", claims.ID)
	}
}
