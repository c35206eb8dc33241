package jwt

import (
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"mentor-hub/server/config"
)

const testSecret = "test-secret-key-for-unit-testing-2026"

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:       testSecret,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
}

func TestAccessToken_RoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "mentor")
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}
	claims, err := m.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if claims.UserID != "user-1" || claims.Subject != "user-1" || claims.Role != "mentor" {
		t.Errorf("声明错误: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("jti 不应为空")
	}
}

func TestRefreshToken_TTL(t *testing.T) {
	m := newTestManager()
	fixed := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	token, _ := m.GenerateRefreshToken("user-1", "user")
	claims, err := m.ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if got := claims.ExpiresAt.Time.Sub(fixed); got != 7*24*time.Hour {
		t.Errorf("有效期应为 7 天，实际 %v", got)
	}
}

func TestParse_TypeMismatch(t *testing.T) {
	m := newTestManager()

	refresh, _ := m.GenerateRefreshToken("user-1", "user")
	if _, err := m.ParseAccessToken(refresh); !errors.Is(err, ErrTokenWrongType) {
		t.Errorf("refresh 令牌不能当作 access 使用，实际 %v", err)
	}
	access, _ := m.GenerateAccessToken("user-1", "user")
	if _, err := m.ParseRefreshToken(access); !errors.Is(err, ErrTokenWrongType) {
		t.Errorf("access 令牌不能当作 refresh 使用，实际 %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	m := newTestManager()
	issued := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	token, _ := m.GenerateAccessToken("user-1", "admin")

	// 容忍 30 秒时钟偏差
	m.now = func() time.Time { return issued.Add(15*time.Minute + 20*time.Second) }
	if _, err := m.ParseAccessToken(token); err != nil {
		t.Errorf("偏差范围内应通过，实际 %v", err)
	}

	m.now = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := m.ParseAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired，实际 %v", err)
	}
}

func TestParse_Rejects(t *testing.T) {
	m := newTestManager()
	other := NewManager(&config.AuthConfig{JWTSecret: "different-secret-key", AccessTokenTTL: time.Minute})
	foreign, _ := other.GenerateAccessToken("user-1", "admin")

	now := time.Now()
	wrongIssuer, _ := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, Claims{
		UserID:    "user-1",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwtv5.NewNumericDate(now.Add(time.Minute)),
		},
	}).SignedString([]byte(testSecret))

	wrongAlg, _ := jwtv5.NewWithClaims(jwtv5.SigningMethodHS512, Claims{
		UserID:    "user-1",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwtv5.NewNumericDate(now.Add(time.Minute)),
		},
	}).SignedString([]byte(testSecret))

	cases := map[string]string{
		"garbage":      "invalid.token.string",
		"wrong secret": foreign,
		"wrong issuer": wrongIssuer,
		"wrong alg":    wrongAlg,
	}
	for name, token := range cases {
		if _, err := m.ParseAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("%s: 期望 ErrTokenInvalid，实际 %v", name, err)
		}
	}
}
