package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	secret := "test-secret"

	token, err := IssueToken(userID, secret)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	parsed, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if parsed != userID {
		t.Fatalf("user id mismatch: got %s, want %s", parsed, userID)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := IssueToken(uuid.New(), "secret-a")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := ParseToken(token, "secret-b"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	secret := "test-secret"
	claims := jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := ParseToken(token, secret); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := ParseToken("not-a-token", "secret"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
