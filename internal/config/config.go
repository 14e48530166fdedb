// Package config loads calcat settings from a YAML file, optional .env
// files and CALCAT_* environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/filestore"
	"github.com/koustreak/calcat/internal/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CALCAT_"

// Config is the full runtime configuration.
type Config struct {
	Log       logger.Config    `yaml:"log"`
	Server    ServerConfig     `yaml:"server"`
	Database  database.Config  `yaml:"database"`
	FileStore filestore.Config `yaml:"filestore"`

	// CatalogFile, when set, replaces the built-in declarations with a
	// YAML declaration file.
	CatalogFile string `yaml:"catalog_file"`
}

// ServerConfig controls the HTTP read API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns a config that serves the built-in catalog on :8080 with
// no database or object store configured.
func Default() *Config {
	db := database.DefaultConfig("", "")
	return &Config{
		Log: *logger.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database:  *db,
		FileStore: *filestore.DefaultConfig("", "", ""),
	}
}

// Load builds a Config from Default, the YAML file at path (skipped when
// path is empty), the given .env files and the environment. With no
// envFiles a .env in the working directory is read if present.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config "+path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config "+path, err)
		}
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.ErrKindInvalidInput, "load .env", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "load env files", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv overlays CALCAT_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("SERVER_ADDR", &c.Server.Addr)
	str("CATALOG_FILE", &c.CatalogFile)
	str("DB_DSN", &c.Database.DSN)
	str("S3_ENDPOINT", &c.FileStore.Endpoint)
	str("S3_ACCESS_KEY", &c.FileStore.AccessKey)
	str("S3_SECRET_KEY", &c.FileStore.SecretKey)
	str("S3_BUCKET", &c.FileStore.Bucket)
	str("S3_PREFIX", &c.FileStore.Prefix)

	if v, ok := lookup(EnvPrefix + "DB_DRIVER"); ok {
		c.Database.Driver = database.Driver(v)
	}
	if v, ok := lookup(EnvPrefix + "S3_USE_SSL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, EnvPrefix+"S3_USE_SSL", err)
		}
		c.FileStore.UseSSL = b
	}
	return nil
}

// Validate checks every configured section. The database and object store
// sections are optional and only checked when they name a backend.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "server addr is empty")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown log format %q", c.Log.Format)
	}
	if c.HasDatabase() {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	if c.HasFileStore() {
		if err := c.FileStore.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HasDatabase reports whether a database is configured.
func (c *Config) HasDatabase() bool { return c.Database.Driver != "" || c.Database.DSN != "" }

// HasFileStore reports whether an object store is configured.
func (c *Config) HasFileStore() bool { return c.FileStore.Endpoint != "" }
