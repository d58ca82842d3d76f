package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(lookupFrom(map[string]string{
		"PORT":                 "9090",
		"ALLOWED_ORIGINS":      "https://a.example/, https://b.example",
		"CATALOG_BACKEND":      "dynamodb",
		"KAFKA_BROKERS":        "k1:9092,k2:9092",
		"JWT_TTL":              "2h",
		"TRENDING_ATOMIC_SAVE": "true",
		"CONTACT_RATE_LIMIT":   "not-a-number",
	}))

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, BackendDynamoDB, cfg.Catalog.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.TrendingAtomicSave)
	assert.Equal(t, 5, cfg.ContactRatePerMinute)
}

func TestMergeFile_ThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
storage:
  backend: cloudinary
catalog:
  products_table: custom-products
`), 0o600))

	cfg := Default()
	require.NoError(t, cfg.mergeFile(path))
	cfg.applyEnv(lookupFrom(map[string]string{"PORT": "7100"}))

	assert.Equal(t, "7100", cfg.Port)
	assert.Equal(t, StorageCloudinary, cfg.Storage.Backend)
	assert.Equal(t, "custom-products", cfg.Catalog.ProductsTable)
	assert.Equal(t, "product-images", cfg.Storage.Bucket)
}

type stubSecrets map[string]string

func (s stubSecrets) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", errors.New("missing " + name)
	}
	return v, nil
}

func TestFillSecrets_OnlyMissingValues(t *testing.T) {
	cfg := Default()
	cfg.Database.Password = "set"

	err := cfg.fillSecrets(context.Background(), stubSecrets{"inkfinity/JWT_SECRET": "from-sm"})
	require.NoError(t, err)
	assert.Equal(t, "from-sm", cfg.Auth.JWTSecret)
	assert.Empty(t, cfg.Database.URL)
}

func TestFillSecrets_PropagatesError(t *testing.T) {
	cfg := Default()
	err := cfg.fillSecrets(context.Background(), stubSecrets{})
	assert.ErrorContains(t, err, "missing inkfinity/JWT_SECRET")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.Auth.JWTSecret = "x"
	assert.NoError(t, cfg.Validate())

	cfg.Events.Backend = EventsSNS
	assert.ErrorContains(t, cfg.Validate(), "SNS_TOPIC_ARN")

	cfg.Events.Backend = EventsNone
	cfg.Storage.Backend = StorageCloudinary
	assert.ErrorContains(t, cfg.Validate(), "CLOUDINARY_URL")

	cfg.Storage.Backend = "ftp"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveContactRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contact_rate_per_minute: 0\n"), 0o600))

	cfg := Default()
	cfg.Auth.JWTSecret = "x"
	require.NoError(t, cfg.mergeFile(path))
	assert.Equal(t, 0, cfg.ContactRatePerMinute)
	assert.ErrorContains(t, cfg.Validate(), "CONTACT_RATE_LIMIT")

	cfg.ContactRatePerMinute = -3
	assert.ErrorContains(t, cfg.Validate(), "got -3")

	cfg.ContactRatePerMinute = 1
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	d := Default().Database
	d.Password = "pw"
	assert.Equal(t, "host=localhost user=postgres password=pw dbname=inkfinity port=5432 sslmode=disable TimeZone=UTC", d.DSN())

	d.URL = "postgres://u:p@h/db"
	assert.Equal(t, "postgres://u:p@h/db", d.DSN())
}

func TestAWSOptions_CarriesStaticCredentials(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(lookupFrom(map[string]string{
		"AWS_ENDPOINT":          "http://localstack:4566",
		"AWS_ACCESS_KEY_ID":     "test",
		"AWS_SECRET_ACCESS_KEY": "test",
	}))

	opts := cfg.AWSOptions()
	assert.Equal(t, "us-east-1", opts.Region)
	assert.Equal(t, "http://localstack:4566", opts.Endpoint)
	assert.Equal(t, "test", opts.AccessKeyID)
	assert.Equal(t, "test", opts.SecretAccessKey)
}
