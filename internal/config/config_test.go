package config_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videorelay/internal/config"
)

func validCredential() string {
	return base64.StdEncoding.EncodeToString(
		[]byte(`{"accessKeyId":"AKIATEST","secretAccessKey":"secret"}`))
}

func TestLoad(t *testing.T) {
	t.Setenv("SERVICE_CREDENTIALS_B64", validCredential())
	t.Setenv("S3_BUCKET", "clips")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "3")
	t.Setenv("UPLOAD_TIMEOUT", "2m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "clips", cfg.Bucket)
	assert.Equal(t, "AKIATEST", cfg.AccessKeyID)
	assert.Equal(t, "secret", cfg.SecretAccessKey)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.RateLimitPerMinute)
	assert.Equal(t, 2*time.Minute, cfg.UploadTimeout)
	assert.Equal(t, "videos", cfg.UploadPrefix)
	assert.True(t, cfg.PublicRead)
}

func TestLoadMissingCredential(t *testing.T) {
	t.Setenv("SERVICE_CREDENTIALS_B64", "")
	t.Setenv("S3_BUCKET", "clips")

	_, err := config.Load()
	require.ErrorContains(t, err, "SERVICE_CREDENTIALS_B64")
}

func TestLoadBadCredential(t *testing.T) {
	t.Setenv("S3_BUCKET", "clips")

	t.Setenv("SERVICE_CREDENTIALS_B64", "not-base64!!")
	_, err := config.Load()
	require.ErrorContains(t, err, "decode")

	t.Setenv("SERVICE_CREDENTIALS_B64", base64.StdEncoding.EncodeToString([]byte(`{}`)))
	_, err = config.Load()
	require.ErrorContains(t, err, "accessKeyId")
}

func TestLoadMissingBucket(t *testing.T) {
	t.Setenv("SERVICE_CREDENTIALS_B64", validCredential())
	t.Setenv("S3_BUCKET", "")

	_, err := config.Load()
	require.ErrorContains(t, err, "S3_BUCKET")
}
