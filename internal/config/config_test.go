package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMap_Defaults(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, BackendAirtable, cfg.RecorderBackend)
	assert.Equal(t, "Failed Payments", cfg.AirtableTable)
	assert.Equal(t, "appUNIsu8KgvOlmi0", cfg.AirtableBaseID)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 15*time.Second, cfg.OutboundTimeout)
	assert.Empty(t, cfg.AlertRecipient)
}

func TestLoadFromMap_AlertRecipientFallsBackToMailUser(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{"GMAIL_USER": "ops@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", cfg.AlertRecipient)

	cfg, err = LoadFromMap(map[string]string{
		"GMAIL_USER":  "ops@example.com",
		"ALERT_EMAIL": "oncall@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "oncall@example.com", cfg.AlertRecipient)
}

func TestLoadFromMap_RejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend": {"RECORDER_BACKEND": "sheets"},
		"port range":      {"PORT": "70000"},
		"port not int":    {"PORT": "abc"},
		"bad recipient":   {"ALERT_EMAIL": "not-an-address"},
		"zero timeout":    {"OUTBOUND_TIMEOUT": "0s"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromMap(vars)
			require.Error(t, err)
		})
	}
}

func TestLoadFromMap_RedisBackend(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{
		"RECORDER_BACKEND": "redis",
		"REDIS_ADDR":       "redis:6379",
	})
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.RecorderBackend)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "failed_payments", cfg.RedisStream)
}

func TestLoadFromMap_AcceptsAnyDebugValue(t *testing.T) {
	for _, v := range []string{"yes", "on", "1", "true", "0", "false"} {
		cfg, err := LoadFromMap(map[string]string{"DEBUG": v})
		require.NoError(t, err, v)
		assert.Equal(t, v, cfg.Debug)
	}
}

func TestLoadFromMap_SMTPHostAcceptsIPLiterals(t *testing.T) {
	for _, host := range []string{"127.0.0.1", "::1", "mail.internal", "relay"} {
		cfg, err := LoadFromMap(map[string]string{"SMTP_HOST": host})
		require.NoError(t, err, host)
		assert.Equal(t, host, cfg.SMTPHost)
	}

	_, err := LoadFromMap(map[string]string{"SMTP_HOST": "bad host!"})
	require.Error(t, err)
}
