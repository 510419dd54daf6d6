package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
masterKey: secret
database:
  driver: postgres
  dsnDev: postgres://localhost/alumnet_dev
  dsnProd: postgres://db/alumnet
alumniDB:
  url: postgres://localhost/alumni
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultUploadDir, cfg.Storage.UploadDir)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "log", cfg.Mail.Backend)
	assert.Equal(t, 10, cfg.Log.MaxSize)
	assert.Equal(t, "postgres://localhost/alumnet_dev", cfg.PrimaryDSN())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("POSTGRESQL_DATABASE_URL", "postgres://records/alumni")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://db/alumnet", cfg.PrimaryDSN())
	assert.Equal(t, "postgres://records/alumni", cfg.AlumniDB.URL)
}

func TestLoadConfigRequiresMasterKey(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "database:\n  dsnDev: x\n"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownEnv(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	_, err := LoadConfig(writeConfig(t, sampleConfig))
	assert.Error(t, err)
}
