package filestore

import (
	"path"
	"strings"

	"github.com/koustreak/calcat/internal/errs"
)

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// ExtractSuffix is the file extension of every raw table in the
// CAL-ACCESS extract.
const ExtractSuffix = ".TSV"

// DefaultPrefix is where the unzipped extract keeps its table files.
const DefaultPrefix = "CalAccess/DATA/"

// Config holds all settings needed to reach the bucket holding a raw
// CAL-ACCESS extract.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider `yaml:"provider"`

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string `yaml:"endpoint"`

	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool `yaml:"use_ssl"`

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string `yaml:"region"`

	// Bucket holds the extract.
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to every table file key.
	Prefix string `yaml:"prefix"`
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    "calaccess",
		Prefix:    DefaultPrefix,
	}
}

// Validate reports configuration errors as InvalidInput.
func (c *Config) Validate() error {
	switch {
	case c.Provider != ProviderMinIO:
		return errs.Newf(errs.ErrKindInvalidInput, "unsupported filestore provider %q", string(c.Provider))
	case c.Endpoint == "":
		return errs.New(errs.ErrKindInvalidInput, "filestore endpoint is empty")
	case c.Bucket == "":
		return errs.New(errs.ErrKindInvalidInput, "filestore bucket is empty")
	}
	return nil
}

// ExtractKey is the object key of table's TSV file.
func (c *Config) ExtractKey(table string) string {
	return path.Join(c.Prefix, table+ExtractSuffix)
}

// TableFromKey inverts ExtractKey. ok is false for keys that are not table
// files.
func TableFromKey(key string) (table string, ok bool) {
	base := path.Base(key)
	if !strings.HasSuffix(strings.ToUpper(base), ExtractSuffix) {
		return "", false
	}
	return base[:len(base)-len(ExtractSuffix)], true
}
