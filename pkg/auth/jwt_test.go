package auth

import (
	"testing"
	"time"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid bearer token", "Bearer abc123", "abc123", false},
		{"lowercase bearer", "bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"missing scheme", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestNewJWTAuthRequiresSecret(t *testing.T) {
	if _, err := NewJWTAuth("", time.Minute, time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	jwtAuth, err := NewJWTAuth("test-secret", 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	accessToken, refreshToken, err := jwtAuth.GenerateTokens("user-1", "user@example.com", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := jwtAuth.VerifyAccessToken(accessToken)
	if err != nil {
		t.Fatalf("access token failed verification: %v", err)
	}
	if user.ID != "user-1" || user.Email != "user@example.com" || user.Role != "admin" {
		t.Errorf("claims did not survive the round trip: %+v", user)
	}

	claims, err := jwtAuth.VerifyRefreshToken(refreshToken)
	if err != nil {
		t.Fatalf("refresh token failed verification: %v", err)
	}
	if claims.TokenID == "" {
		t.Error("refresh token must carry a token ID")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewJWTAuth("secret-one", time.Minute, time.Hour)
	verifier, _ := NewJWTAuth("secret-two", time.Minute, time.Hour)

	accessToken, _, err := issuer.GenerateTokens("user-1", "user@example.com", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := verifier.VerifyAccessToken(accessToken); err == nil {
		t.Error("token signed with a different secret must fail verification")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	jwtAuth, _ := NewJWTAuth("test-secret", -time.Minute, time.Hour)

	accessToken, _, err := jwtAuth.GenerateTokens("user-1", "user@example.com", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := jwtAuth.VerifyAccessToken(accessToken); err == nil {
		t.Error("expired token must fail verification")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	jwtAuth, _ := NewJWTAuth("test-secret", time.Minute, time.Hour)

	if _, err := jwtAuth.VerifyAccessToken("not.a.token"); err == nil {
		t.Error("malformed token must fail verification")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Correct1Horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := VerifyPassword(hash, "Correct1Horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("correct password must verify")
	}

	ok, err = VerifyPassword(hash, "Wrong1Password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("wrong password must not verify")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, _ := HashPassword("Correct1Horse")
	second, _ := HashPassword("Correct1Horse")

	if first == second {
		t.Error("hashing the same password twice must produce different salts")
	}
}

func TestVerifyPasswordInvalidFormat(t *testing.T) {
	if _, err := VerifyPassword("not-a-real-hash", "password"); err == nil {
		t.Error("expected error for a malformed stored hash")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Abcdef12", false},
		{"too short", "Ab1", true},
		{"no uppercase", "abcdef12", true},
		{"no lowercase", "ABCDEF12", true},
		{"no number", "Abcdefgh", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}
