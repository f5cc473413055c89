// s3check/internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/andresuchdata/autopo-py/s3check/internal/storage"
)

// Environment keys.
const (
	KeyAccessKeyID     = "AWS_ACCESS_KEY_ID"
	KeySecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	KeyRegion          = "AWS_REGION"
	KeyBucketName      = "AWS_BUCKET_NAME"
	KeyEndpoint        = "AWS_ENDPOINT_URL"
	KeyUsePathStyle    = "AWS_S3_USE_PATH_STYLE"
	KeyProvider        = "STORAGE_PROVIDER"
	KeyFileSizeKB      = "SMOKE_FILE_SIZE_KB"
	KeyWorkDir         = "SMOKE_WORK_DIR"
	KeyObjectKey       = "SMOKE_OBJECT_KEY"
	KeyLogLevel        = "LOG_LEVEL"
	KeyLogFormat       = "LOG_FORMAT"
	KeyPushgatewayURL  = "PUSHGATEWAY_URL"
	KeyPushgatewayJob  = "PUSHGATEWAY_JOB"
)

type Config struct {
	Credentials Credentials
	Bucket      BucketReference
	Storage     StorageConfig
	Smoke       SmokeConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

// Credentials are read once at startup and never mutated.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// BucketReference identifies the remote bucket.
type BucketReference struct {
	Name string
}

type StorageConfig struct {
	Provider     string
	Endpoint     string
	UsePathStyle bool
}

type SmokeConfig struct {
	FileSizeKB int
	WorkDir    string
	ObjectKey  string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	PushgatewayURL string
	JobName        string
}

// Error reports missing or invalid configuration values.
type Error struct {
	Missing []string
	Invalid []string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid values: "+strings.Join(e.Invalid, "; "))
	}
	return "config: " + strings.Join(parts, "; ")
}

// Option adjusts the viper instance before values are read.
type Option func(v *viper.Viper)

// Override forces key to value, taking precedence over the environment.
func Override(key string, value any) Option {
	return func(v *viper.Viper) {
		v.Set(key, value)
	}
}

// Load reads configuration from the process environment, after loading a
// .env file from the working directory if one exists.
func Load(opts ...Option) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	for _, opt := range opts {
		opt(v)
	}
	return FromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyProvider, storage.ProviderAWS)
	v.SetDefault(KeyUsePathStyle, false)
	v.SetDefault(KeyFileSizeKB, 100)
	v.SetDefault(KeyWorkDir, ".")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyPushgatewayJob, "s3check")

	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Credentials: Credentials{
			AccessKeyID:     strings.TrimSpace(v.GetString(KeyAccessKeyID)),
			SecretAccessKey: strings.TrimSpace(v.GetString(KeySecretAccessKey)),
			Region:          strings.TrimSpace(v.GetString(KeyRegion)),
		},
		Bucket: BucketReference{
			Name: strings.TrimSpace(v.GetString(KeyBucketName)),
		},
		Storage: StorageConfig{
			Provider:     strings.ToLower(strings.TrimSpace(v.GetString(KeyProvider))),
			Endpoint:     strings.TrimSpace(v.GetString(KeyEndpoint)),
			UsePathStyle: v.GetBool(KeyUsePathStyle),
		},
		Smoke: SmokeConfig{
			FileSizeKB: v.GetInt(KeyFileSizeKB),
			WorkDir:    v.GetString(KeyWorkDir),
			ObjectKey:  strings.TrimSpace(v.GetString(KeyObjectKey)),
		},
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		Metrics: MetricsConfig{
			PushgatewayURL: strings.TrimSpace(v.GetString(KeyPushgatewayURL)),
			JobName:        v.GetString(KeyPushgatewayJob),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and value ranges. All problems are
// collected into a single *Error.
func (c *Config) Validate() error {
	cerr := &Error{}

	required := []struct {
		key, value string
	}{
		{KeyAccessKeyID, c.Credentials.AccessKeyID},
		{KeySecretAccessKey, c.Credentials.SecretAccessKey},
		{KeyRegion, c.Credentials.Region},
		{KeyBucketName, c.Bucket.Name},
	}
	for _, r := range required {
		if r.value == "" {
			cerr.Missing = append(cerr.Missing, r.key)
		}
	}

	switch c.Storage.Provider {
	case storage.ProviderAWS:
	case storage.ProviderMinio:
		if c.Storage.Endpoint == "" {
			cerr.Missing = append(cerr.Missing, KeyEndpoint)
		}
	default:
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("%s=%q (want %q or %q)", KeyProvider, c.Storage.Provider, storage.ProviderAWS, storage.ProviderMinio))
	}

	if c.Smoke.FileSizeKB <= 0 {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("%s=%d (must be positive)", KeyFileSizeKB, c.Smoke.FileSizeKB))
	}

	if len(cerr.Missing) > 0 || len(cerr.Invalid) > 0 {
		return cerr
	}
	return nil
}
