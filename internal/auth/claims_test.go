package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing-32b"

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, err := GenerateAccessToken("usr-001", testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateAccessToken() returned empty token")
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID() != "usr-001" {
		t.Errorf("UserID() = %q, want %q", claims.UserID(), "usr-001")
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Errorf("token lifetime = %v, want 15m", got)
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	token, err := GenerateAccessToken("usr-001", testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != defaultTTL {
		t.Errorf("token lifetime = %v, want %v", got, defaultTTL)
	}
}

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key any) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func TestParseToken_Rejects(t *testing.T) {
	now := time.Now()
	valid, err := GenerateAccessToken("usr-001", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "empty", token: "", secret: testSecret, wantErr: ErrTokenMissing},
		{name: "garbage", token: "not-a-valid-jwt", secret: testSecret, wantErr: ErrTokenInvalid},
		{name: "wrong secret", token: valid, secret: "another-secret-key-for-jwt-signing", wantErr: ErrTokenInvalid},
		{
			name: "expired",
			token: sign(t, jwt.SigningMethodHS256, CustomClaims{RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "usr-001",
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			}}, []byte(testSecret)),
			secret:  testSecret,
			wantErr: ErrTokenInvalid,
		},
		{
			name: "no expiry",
			token: sign(t, jwt.SigningMethodHS256, CustomClaims{RegisteredClaims: jwt.RegisteredClaims{
				Subject: "usr-001",
			}}, []byte(testSecret)),
			secret:  testSecret,
			wantErr: ErrTokenInvalid,
		},
		{
			name: "missing subject",
			token: sign(t, jwt.SigningMethodHS256, CustomClaims{RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			}}, []byte(testSecret)),
			secret:  testSecret,
			wantErr: ErrTokenInvalid,
		},
		{
			name: "other hmac algorithm",
			token: sign(t, jwt.SigningMethodHS512, CustomClaims{RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "usr-001",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			}}, []byte(testSecret)),
			secret:  testSecret,
			wantErr: ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseToken_ProfileClaims(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr-002",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Username: "alice",
		Email:    "alice@example.com",
	}, []byte(testSecret))

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v, want profile fields", claims)
	}
}
