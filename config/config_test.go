// No t.Parallel(): env vars are process-global.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		envKeyURL, envKeyBaseURL, envKeyIntervalMS, envKeyMessage, envKeySilent,
		envKeyExec, envKeyCAPath, envKeyCertPath, envKeyKeyPath,
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "/version.json", cfg.URL)
	assert.Equal(t, int64(60000), cfg.IntervalMS)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "versionwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://app.example.com
interval_ms: 5000
silent: true
exec: systemctl restart app
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com", cfg.BaseURL)
	assert.Equal(t, "/version.json", cfg.URL, "unset keys keep defaults")
	assert.Equal(t, int64(5000), cfg.IntervalMS)
	assert.True(t, cfg.Silent)
	assert.Equal(t, "systemctl restart app", cfg.Exec)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "versionwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval_ms: 5000\nurl: /a.json\n"), 0o644))

	t.Setenv(envKeyIntervalMS, "250")
	t.Setenv(envKeyURL, "/b.json")
	t.Setenv(envKeySilent, "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(250), cfg.IntervalMS)
	assert.Equal(t, "/b.json", cfg.URL)
	assert.True(t, cfg.Silent)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("interval_ms: [1, 2"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)

	t.Setenv(envKeyIntervalMS, "soon")
	_, err = Load("")
	require.Error(t, err)

	t.Setenv(envKeyIntervalMS, "0")
	_, err = Load("")
	require.Error(t, err)
}

func TestValidate_CertPair(t *testing.T) {
	cfg := Defaults()
	cfg.CertPath = "client.cert.pem"
	require.Error(t, cfg.Validate())

	cfg.KeyPath = "client.key.pem"
	require.NoError(t, cfg.Validate())
}

func TestEnvOr(t *testing.T) {
	t.Setenv("TEST_ENVOR_KEY", "custom-value")
	assert.Equal(t, "custom-value", envOr("TEST_ENVOR_KEY", "fallback"))

	t.Setenv("TEST_ENVOR_MISSING", "")
	assert.Equal(t, "fallback", envOr("TEST_ENVOR_MISSING", "fallback"))
}
