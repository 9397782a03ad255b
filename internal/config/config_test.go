package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var cfg Config
	cfg.App.Port = 8787
	cfg.App.DataDir = "data"
	cfg.Email.Enabled = true
	cfg.Email.IMAPHost = "imap.example.com"
	cfg.Email.IMAPPort = 993
	cfg.Email.Username = "me@example.com"
	cfg.Email.Mailbox = "INBOX"
	cfg.Email.Senders = []string{"jobalerts-noreply@linkedin.com"}
	cfg.Email.WindowDays = 14
	cfg.Polling.IntervalSeconds = 900
	return cfg
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := validConfig()
	cfg.Email.Senders = []string{" a@b.example ", "a@b.example", "", "A@B.example", "c@d.example"}

	norm, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.Equal(t, []string{"a@b.example", "c@d.example"}, norm.Email.Senders)
}

func TestValidateRejectsBadPortAndMissingHost(t *testing.T) {
	cfg := validConfig()
	cfg.App.Port = 0
	cfg.Email.IMAPHost = "  "

	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Len(t, res.Errors, 2)
}

func TestSaveAtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := validConfig()

	require.NoError(t, SaveAtomic(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	cfg.Polling.IntervalSeconds = 600
	require.NoError(t, SaveAtomic(path, cfg))
	got, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 600, got.Polling.IntervalSeconds)
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.App.Port = -1
	err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg)
	assert.Error(t, err)
}
