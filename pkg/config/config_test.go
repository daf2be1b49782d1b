package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()

	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 365*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "token", cfg.Auth.CookieName)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:5174"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("JWT_RATE_LIMIT", "not-a-number")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RECONCILE_INTERVAL", "5m")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 20, cfg.Redis.JWTRateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.Interval)
}

func TestValidate_TokenSecretInProduction(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  *string
		wantErr bool
	}{
		{"production unset", "production", nil, true},
		{"production empty", "production", ptr(""), true},
		{"production default", "production", ptr(DevTokenSecret), true},
		{"production set", "production", ptr("s3cr3t-from-vault"), false},
		{"development unset", "development", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)
			if tt.secret != nil {
				t.Setenv("ACCESS_TOKEN_SECRET", *tt.secret)
			} else {
				t.Setenv("ACCESS_TOKEN_SECRET", "")
				os.Unsetenv("ACCESS_TOKEN_SECRET")
			}

			err := Load().Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInsecureTokenSecret)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
