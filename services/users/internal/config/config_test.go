package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs is a helper that sets multiple env vars for the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8004, cfg.HTTPPort)
	assert.Equal(t, "users_db", cfg.PostgresDB)
	assert.Equal(t, time.Hour, cfg.AccessExpiry())
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestLoad_Production_RejectsDefaultSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "change-this-to-a-secure-secret",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be explicitly set")
}

func TestLoad_Production_AcceptsStrongSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "a-very-long-and-secure-secret-key-for-production-use",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{name: "port", key: "USERS_HTTP_PORT", value: "99999", want: "invalid HTTP port"},
		{name: "expiry", key: "JWT_ACCESS_TOKEN_EXPIRY", value: "forever", want: "JWT_ACCESS_TOKEN_EXPIRY"},
		{name: "negative expiry", key: "JWT_ACCESS_TOKEN_EXPIRY", value: "-5m", want: "JWT_ACCESS_TOKEN_EXPIRY"},
		{name: "bcrypt cost", key: "USERS_BCRYPT_COST", value: "40", want: "USERS_BCRYPT_COST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
