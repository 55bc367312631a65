package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dom/watchnest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setSecrets(t)
	t.Setenv("CONFIG_FILE", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 240*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, config.MediaBackendDisk, cfg.Media.Backend)
	assert.Equal(t, int64(200<<20), cfg.MaxUploadBytes())
}

func TestLoad_FileThenEnv(t *testing.T) {
	setSecrets(t)

	path := filepath.Join(t.TempDir(), "watchnest.toml")
	content := `
port = "9000"
environment = "production"
cors_origins = ["https://watchnest.example"]
access_token_expiry_minutes = 5

[media]
backend = "s3"
s3_bucket = "videos"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PORT", "9100")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "env overrides file")
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://watchnest.example"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, "videos", cfg.Media.S3Bucket)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
		backend string
	}{
		{"missing access secret", "", "refresh", "disk"},
		{"missing refresh secret", "access", "", "disk"},
		{"identical secrets", "same", "same", "disk"},
		{"unknown backend", "access", "refresh", "ftp"},
		{"s3 without bucket", "access", "refresh", "s3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			t.Setenv("ACCESS_TOKEN_SECRET", tt.access)
			t.Setenv("REFRESH_TOKEN_SECRET", tt.refresh)
			t.Setenv("MEDIA_BACKEND", tt.backend)
			t.Setenv("S3_BUCKET", "")

			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_CORSOriginsFromEnv(t *testing.T) {
	setSecrets(t)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}
