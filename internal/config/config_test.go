package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/filestore"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filestore.DefaultPrefix, cfg.FileStore.Prefix)
	assert.False(t, cfg.HasDatabase())
	assert.False(t, cfg.HasFileStore())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "calcat.yaml", `
log:
  level: debug
  format: console
server:
  addr: ":9090"
  read_timeout: 3s
database:
  driver: sqlite
  dsn: /tmp/calaccess.db
filestore:
  endpoint: localhost:9000
  bucket: raw
catalog_file: tables.yaml
`)
	env := writeFile(t, "empty.env", "")

	cfg, err := Load(path, env)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	assert.EqualValues(t, 4, cfg.Database.MaxConns)
	assert.Equal(t, "raw", cfg.FileStore.Bucket)
	assert.Equal(t, filestore.ProviderMinIO, cfg.FileStore.Provider)
	assert.Equal(t, "tables.yaml", cfg.CatalogFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Load(writeFile(t, "bad.yaml", "server:\n  port: 80\n"))
	assert.True(t, errs.IsInvalidInput(err), "unknown keys are rejected")

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.True(t, errs.IsInvalidInput(err))
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "calcat.yaml", "server:\n  addr: \":9090\"\n")
	t.Setenv("CALCAT_SERVER_ADDR", ":7070")
	t.Setenv("CALCAT_DB_DRIVER", "postgres")
	t.Setenv("CALCAT_DB_DSN", "postgres://localhost/calaccess")
	t.Setenv("CALCAT_S3_USE_SSL", "true")

	cfg, err := Load(path, writeFile(t, "empty.env", ""))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, database.DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.FileStore.UseSSL)

	t.Setenv("CALCAT_S3_USE_SSL", "sometimes")
	_, err = Load(path, writeFile(t, "empty.env", ""))
	assert.True(t, errs.IsInvalidInput(err))
}

func TestLoad_DotEnv(t *testing.T) {
	const key = "CALCAT_CATALOG_FILE"
	if _, set := os.LookupEnv(key); set {
		t.Skip(key + " set in the environment")
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	cfg, err := Load("", writeFile(t, "test.env", key+"=from-dotenv.yaml\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.yaml", cfg.CatalogFile)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CALCAT_LOG_LEVEL":     "warn",
		"CALCAT_S3_ENDPOINT":   "minio:9000",
		"CALCAT_S3_ACCESS_KEY": "ak",
		"CALCAT_S3_SECRET_KEY": "sk",
		"CALCAT_S3_BUCKET":     "extracts",
		"CALCAT_S3_PREFIX":     "2024/",
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "minio:9000", cfg.FileStore.Endpoint)
	assert.Equal(t, "ak", cfg.FileStore.AccessKey)
	assert.Equal(t, "sk", cfg.FileStore.SecretKey)
	assert.Equal(t, "extracts", cfg.FileStore.Bucket)
	assert.Equal(t, "2024/", cfg.FileStore.Prefix)
	assert.True(t, cfg.HasFileStore())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"dsn without driver", func(c *Config) { c.Database.DSN = "x" }},
		{"driver without dsn", func(c *Config) { c.Database.Driver = database.DriverMySQL }},
		{"filestore without bucket", func(c *Config) {
			c.FileStore.Endpoint = "localhost:9000"
			c.FileStore.Bucket = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.True(t, errs.IsInvalidInput(cfg.Validate()))
		})
	}
}
