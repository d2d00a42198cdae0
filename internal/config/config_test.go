package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/homeschool-portal/internal/config"
	"github.com/stretchr/testify/require"
)

func setIdentityEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.IdentityDomainVar, "https://auth.example.com/")
	t.Setenv(config.IdentityClientIDVar, "client-1")
	t.Setenv(config.IdentityRegionVar, "us-east-1")
	t.Setenv(config.IdentityRedirectURIVar, "http://localhost:8080/")
	t.Setenv("API_BASE_URL", "https://api.example.com/prod/")
}

func TestConfig_IdentityAndAPI(t *testing.T) {
	setIdentityEnv(t)
	c := config.New()

	require.Equal(t, "auth.example.com", c.GetIdentityDomain())
	require.Equal(t, "client-1", c.GetClientID())
	require.Equal(t, "us-east-1", c.GetRegion())
	require.Equal(t, "https://api.example.com/prod", c.GetAPIBaseURL())
	require.Empty(t, config.MissingRequired(c))
}

func TestConfig_MissingRequired(t *testing.T) {
	setIdentityEnv(t)
	t.Setenv(config.IdentityClientIDVar, "")
	t.Setenv("API_BASE_URL", "")

	missing := config.MissingRequired(config.New())
	require.Equal(t, []string{config.IdentityClientIDVar, "API_BASE_URL"}, missing)
}

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("API_TIMEOUT", "not-a-duration")
	t.Setenv("REDIS_DB", "x")
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, 90*time.Second, c.GetAPITimeout())
	require.Equal(t, 0, c.GetRedisDB())
	require.False(t, c.GetCookieSecure())
}

func TestConfig_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	origins := config.New().GetAllowedOrigins()

	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://c.example.com"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HS_DOTENV_PROBE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HS_DOTENV_PROBE") })

	require.NoError(t, config.LoadDotEnv(path))
	require.Equal(t, "from-file", os.Getenv("HS_DOTENV_PROBE"))

	require.Error(t, config.LoadDotEnv(filepath.Join(dir, "missing.env")))
}
