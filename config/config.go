package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	awspkg "github.com/inkfinity/backend/pkg/aws"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendPostgres   = "postgres"
	BackendDynamoDB   = "dynamodb"
	StorageS3         = "s3"
	StorageCloudinary = "cloudinary"
	EventsSNS         = "sns"
	EventsKafka       = "kafka"
	EventsNone        = "none"
)

// Config is the whole service configuration. It is built once in main and
// passed down; nothing reads the environment after Load returns.
type Config struct {
	Env            string   `yaml:"env"`
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Database   DatabaseConfig   `yaml:"database"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	RedisURL   string           `yaml:"redis_url"`
	Storage    StorageConfig    `yaml:"storage"`
	Events     EventsConfig     `yaml:"events"`
	AWS        AWSConfig        `yaml:"aws"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
	Notify     NotifyConfig     `yaml:"notify"`
	Auth       AuthConfig       `yaml:"auth"`

	ContactRatePerMinute int  `yaml:"contact_rate_per_minute"`
	TrendingAtomicSave   bool `yaml:"trending_atomic_save"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	TimeZone string `yaml:"timezone"`
}

// DSN returns URL when set, otherwise a key/value DSN built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone)
}

type CatalogConfig struct {
	Backend         string `yaml:"backend"`
	ProductsTable   string `yaml:"products_table"`
	CategoriesTable string `yaml:"categories_table"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"`
	Bucket        string `yaml:"bucket"`
	CDNDomain     string `yaml:"cdn_domain"`
	PathStyle     bool   `yaml:"path_style"`
	CloudinaryURL string `yaml:"-"`
}

type EventsConfig struct {
	Backend      string   `yaml:"backend"`
	SNSTopicARN  string   `yaml:"sns_topic_arn"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	SQSQueueURL  string   `yaml:"sqs_queue_url"`
}

type AWSConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
	UseSecrets      bool   `yaml:"use_secrets"`
	SecretPrefix    string `yaml:"secret_prefix"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	LogGroup  string `yaml:"log_group"`
}

type NotifyConfig struct {
	SMTPHost    string `yaml:"smtp_host"`
	SMTPPort    string `yaml:"smtp_port"`
	SMTPUser    string `yaml:"smtp_user"`
	SMTPPass    string `yaml:"-"`
	EmailTo     string `yaml:"email_to"`
	TwilioSID   string `yaml:"twilio_account_sid"`
	TwilioToken string `yaml:"-"`
	TwilioFrom  string `yaml:"twilio_from"`
	SMSTo       string `yaml:"sms_to"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"-"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// SecretGetter is satisfied by *awspkg.SecretsClient.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Env:            "development",
		Port:           "8080",
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Name:     "inkfinity",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Catalog: CatalogConfig{
			Backend:         BackendPostgres,
			ProductsTable:   "inkfinity-products",
			CategoriesTable: "inkfinity-categories",
		},
		RedisURL: "redis://localhost:6379/0",
		Storage: StorageConfig{
			Backend: StorageS3,
			Bucket:  "product-images",
		},
		Events: EventsConfig{
			Backend:    EventsNone,
			KafkaTopic: "inkfinity-events",
		},
		AWS: AWSConfig{
			Region:       "us-east-1",
			SecretPrefix: "inkfinity/",
		},
		CloudWatch: CloudWatchConfig{
			Namespace: "Inkfinity",
			LogGroup:  "/inkfinity/services",
		},
		Notify: NotifyConfig{SMTPPort: "587"},
		Auth:   AuthConfig{TokenTTL: 24 * time.Hour},

		ContactRatePerMinute: 5,
	}
}

// Load reads .env, the optional CONFIG_FILE, then the environment. When
// AWS_USE_SECRETS is true, secrets still missing afterwards are fetched from
// Secrets Manager.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.LookupEnv)

	var secrets SecretGetter
	if cfg.AWS.UseSecrets {
		awsCfg, err := awspkg.LoadAWSConfig(ctx, cfg.AWSOptions())
		if err != nil {
			return nil, err
		}
		secrets = awspkg.NewSecretsClient(awsCfg)
	}
	if err := cfg.fillSecrets(ctx, secrets); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("APP_ENV", &c.Env)
	str("PORT", &c.Port)
	list("ALLOWED_ORIGINS", &c.AllowedOrigins)

	str("DATABASE_URL", &c.Database.URL)
	str("POSTGRES_HOST", &c.Database.Host)
	str("POSTGRES_PORT", &c.Database.Port)
	str("POSTGRES_USER", &c.Database.User)
	str("POSTGRES_PASSWORD", &c.Database.Password)
	str("POSTGRES_DB", &c.Database.Name)
	str("POSTGRES_SSLMODE", &c.Database.SSLMode)
	str("POSTGRES_TIMEZONE", &c.Database.TimeZone)

	str("CATALOG_BACKEND", &c.Catalog.Backend)
	str("DYNAMODB_PRODUCTS_TABLE", &c.Catalog.ProductsTable)
	str("DYNAMODB_CATEGORIES_TABLE", &c.Catalog.CategoriesTable)

	str("REDIS_URL", &c.RedisURL)

	str("IMAGE_STORAGE", &c.Storage.Backend)
	str("S3_BUCKET", &c.Storage.Bucket)
	str("CDN_DOMAIN", &c.Storage.CDNDomain)
	boolean("S3_PATH_STYLE", &c.Storage.PathStyle)
	str("CLOUDINARY_URL", &c.Storage.CloudinaryURL)

	str("EVENTS_BACKEND", &c.Events.Backend)
	str("SNS_TOPIC_ARN", &c.Events.SNSTopicARN)
	list("KAFKA_BROKERS", &c.Events.KafkaBrokers)
	str("KAFKA_TOPIC", &c.Events.KafkaTopic)
	str("SQS_QUEUE_URL", &c.Events.SQSQueueURL)

	str("AWS_REGION", &c.AWS.Region)
	str("AWS_ENDPOINT", &c.AWS.Endpoint)
	str("AWS_ACCESS_KEY_ID", &c.AWS.AccessKeyID)
	str("AWS_SECRET_ACCESS_KEY", &c.AWS.SecretAccessKey)
	boolean("AWS_USE_SECRETS", &c.AWS.UseSecrets)
	str("AWS_SECRET_PREFIX", &c.AWS.SecretPrefix)

	boolean("CLOUDWATCH_ENABLED", &c.CloudWatch.Enabled)
	str("CLOUDWATCH_NAMESPACE", &c.CloudWatch.Namespace)
	str("CLOUDWATCH_LOG_GROUP", &c.CloudWatch.LogGroup)

	str("SMTP_HOST", &c.Notify.SMTPHost)
	str("SMTP_PORT", &c.Notify.SMTPPort)
	str("SMTP_USER", &c.Notify.SMTPUser)
	str("SMTP_PASS", &c.Notify.SMTPPass)
	str("NOTIFY_EMAIL_TO", &c.Notify.EmailTo)
	str("TWILIO_ACCOUNT_SID", &c.Notify.TwilioSID)
	str("TWILIO_AUTH_TOKEN", &c.Notify.TwilioToken)
	str("TWILIO_FROM_NUMBER", &c.Notify.TwilioFrom)
	str("NOTIFY_SMS_TO", &c.Notify.SMSTo)

	str("JWT_SECRET", &c.Auth.JWTSecret)
	if v, ok := lookup("JWT_TTL"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Auth.TokenTTL = d
		}
	}

	if v, ok := lookup("CONTACT_RATE_LIMIT"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ContactRatePerMinute = n
		}
	}
	boolean("TRENDING_ATOMIC_SAVE", &c.TrendingAtomicSave)
}

func (c *Config) fillSecrets(ctx context.Context, secrets SecretGetter) error {
	if secrets == nil {
		return nil
	}
	fill := func(name string, dst *string) error {
		if *dst != "" {
			return nil
		}
		v, err := secrets.GetSecret(ctx, c.AWS.SecretPrefix+name)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}

	if err := fill("JWT_SECRET", &c.Auth.JWTSecret); err != nil {
		return err
	}
	if c.Database.URL == "" && c.Database.Password == "" {
		if err := fill("DATABASE_URL", &c.Database.URL); err != nil {
			return err
		}
	}
	if c.Storage.Backend == StorageCloudinary {
		if err := fill("CLOUDINARY_URL", &c.Storage.CloudinaryURL); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks required values and enumerations.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.ContactRatePerMinute < 1 {
		return fmt.Errorf("CONTACT_RATE_LIMIT must be at least 1, got %d", c.ContactRatePerMinute)
	}
	switch c.Catalog.Backend {
	case BackendPostgres, BackendDynamoDB:
	default:
		return fmt.Errorf("CATALOG_BACKEND must be %q or %q, got %q", BackendPostgres, BackendDynamoDB, c.Catalog.Backend)
	}
	switch c.Storage.Backend {
	case StorageS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 image storage")
		}
	case StorageCloudinary:
		if c.Storage.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required for cloudinary image storage")
		}
	default:
		return fmt.Errorf("IMAGE_STORAGE must be %q or %q, got %q", StorageS3, StorageCloudinary, c.Storage.Backend)
	}
	switch c.Events.Backend {
	case EventsNone:
	case EventsSNS:
		if c.Events.SNSTopicARN == "" {
			return fmt.Errorf("SNS_TOPIC_ARN is required for sns events")
		}
	case EventsKafka:
		if len(c.Events.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for kafka events")
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of sns, kafka, none, got %q", c.Events.Backend)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AWSOptions converts the AWS section for awspkg.LoadAWSConfig.
func (c *Config) AWSOptions() awspkg.Options {
	return awspkg.Options{
		Region:          c.AWS.Region,
		Endpoint:        c.AWS.Endpoint,
		AccessKeyID:     c.AWS.AccessKeyID,
		SecretAccessKey: c.AWS.SecretAccessKey,
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(strings.TrimSpace(p), "/")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
