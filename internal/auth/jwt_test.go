package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finai/backend/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	service, err := NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("service init: %v", err)
	}

	csrf, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("csrf: %v", err)
	}

	user := models.User{ID: 7, Username: "asha", Email: "asha@example.com"}
	token, err := service.GenerateToken(user, csrf)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	parsed, err := service.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if parsed.ID != user.ID || parsed.Username != user.Username || parsed.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
	if parsed.CSRF != csrf {
		t.Fatalf("csrf mismatch")
	}
}

func TestParseTokenRejectsOtherSecrets(t *testing.T) {
	issuer, _ := NewService("secret-a", time.Hour)
	verifier, _ := NewService("secret-b", time.Hour)

	token, err := issuer.GenerateToken(models.User{ID: 1}, "x")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	service, _ := NewService("secret", -time.Minute)
	token, err := service.GenerateToken(models.User{ID: 1}, "x")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := service.ParseToken(token); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestParseTokenRejectsUnsignedTokens(t *testing.T) {
	service, _ := NewService("secret", time.Hour)
	claims := Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := service.ParseToken(token); err == nil {
		t.Fatalf("expected alg none to be rejected")
	}
}

func TestUserContext(t *testing.T) {
	if _, ok := UserFromContext(context.Background()); ok {
		t.Fatalf("expected no user")
	}
	ctx := WithUser(context.Background(), User{ID: 4})
	user, ok := UserFromContext(ctx)
	if !ok || user.ID != 4 {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService("", time.Hour); err == nil {
		t.Fatalf("expected error")
	}
}
