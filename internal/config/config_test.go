package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DYNAMO_TABLE_AUTH_CODES", "LIVE_DEBOUNCE_MS", "ALLOWED_ORIGINS", "TRUST_PROXY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "auth_codes", cfg.DynamoTables.AuthCodes)
	assert.Equal(t, 100*time.Millisecond, cfg.LiveDebounce)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("LIVE_DEBOUNCE_MS", "250")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 250*time.Millisecond, cfg.LiveDebounce)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.TrustProxy)
}

func TestMailConfigured(t *testing.T) {
	cases := []struct {
		name     string
		host     string
		password string
		want     bool
	}{
		{"no host", "", "secret", false},
		{"no credential", "smtp.test", "", false},
		{"placeholder", "smtp.test", "re_replace_me", false},
		{"configured", "smtp.test", "secret", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{SMTPHost: tc.host, SMTPPassword: tc.password}
			assert.Equal(t, tc.want, cfg.MailConfigured())
		})
	}
}
