package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtbgroup/immocare-sub000/lease"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	svc := cfg.Lease.Service()
	assert.Equal(t, 30, svc.DefaultIndexationNoticeDays)
	assert.Equal(t, 6, svc.NoticeMonths(lease.TypeCommercial))
	assert.Equal(t, 1, cfg.Rent.Ledger().MaxFutureYears)
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("IMMOCARE_DB", "/var/lib/immocare/data.db")
	path := writeConfig(t, `
app:
  env: prod
sqlite:
  path: ${IMMOCARE_DB}
lease:
  notice_months:
    COMMERCIAL: 12
`)

	cfg := NewDefaultConfig()
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel, "default kept")
	assert.Equal(t, 8080, cfg.HTTP.Port, "default kept")
	assert.Equal(t, "/var/lib/immocare/data.db", cfg.SQLite.Path)

	svc := cfg.Lease.Service()
	assert.Equal(t, 12, svc.NoticeMonths(lease.TypeCommercial))
	assert.Equal(t, 1, svc.NoticeMonths(lease.TypeShortTerm))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad env", "app:\n  env: staging\n"},
		{"bad port", "http:\n  port: 70000\n"},
		{"unknown lease type", "lease:\n  notice_months:\n    HOLIDAY: 1\n"},
		{"zero notice months", "lease:\n  notice_months:\n    STUDENT: 0\n"},
		{"not yaml", "app: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			assert.Error(t, Load(writeConfig(t, tt.body), cfg))
		})
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"), cfg))
	assert.Equal(t, "./immocare.db", cfg.SQLite.Path)

	_, err := os.Stat("config.yaml")
	require.NoError(t, err, "sample config ships next to the package")
	require.NoError(t, Load("config.yaml", NewDefaultConfig()))
}
