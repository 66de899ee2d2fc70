package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment        string `envconfig:"ENV" default:"development"`
	Port               string `envconfig:"PORT" default:"8080"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:""`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	DBMaxConns         int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	RunMigrations      bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	// Admin authentication
	JWTSecret   string   `envconfig:"JWT_SECRET" required:"true"`
	AdminEmails []string `envconfig:"ADMIN_EMAILS"`

	// Public form
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	OperatorEmail      string   `envconfig:"OPERATOR_EMAIL"`

	// Invoice documents (S3 compatible)
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"invoices"`
	S3Region    string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3URLExpiry int    `envconfig:"S3_URL_EXPIRY_MIN" default:"60"`

	// Google Cloud
	GCPProjectID             string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile       string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	PubSubEmulatorHost       string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubEventsTopic        string `envconfig:"PUBSUB_EVENTS_TOPIC" default:"backoffice-events"`
	DLQEndpointURL           string `envconfig:"DLQ_ENDPOINT_URL"`
	PubSubPushServiceAccount string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`

	// Stripe
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeReturnURL     string `envconfig:"STRIPE_RETURN_URL" default:"http://localhost:5173/invoices"`

	// Email
	PostmarkServerToken  string `envconfig:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `envconfig:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `envconfig:"SENDER_EMAIL" default:"billing@example.com"`
	SupportEmail         string `envconfig:"SUPPORT_EMAIL" default:"support@example.com"`
	DevMailDir           string `envconfig:"DEV_MAIL_DIR" default:"./tmp/mail"`

	// Settings cache
	RedisURL        string `envconfig:"REDIS_URL"`
	SettingsTTLSec  int    `envconfig:"SETTINGS_CACHE_TTL_SEC" default:"300"`
	SettingsLRUSize int    `envconfig:"SETTINGS_CACHE_LRU_SIZE" default:"16"`

	// Invoice e-mail queue (pgmq)
	MailQueueName      string `envconfig:"MAIL_QUEUE_NAME" default:"invoice_email_queue"`
	MailPollTimeoutSec int    `envconfig:"MAIL_POLL_TIMEOUT_SEC" default:"30"`
	MailPollMaxMsg     int    `envconfig:"MAIL_POLL_MAX_MSG" default:"5"`
	MailVisibilitySec  int    `envconfig:"MAIL_VISIBILITY_SEC" default:"60"`
	MailMaxRetries     int    `envconfig:"MAIL_MAX_RETRIES" default:"5"`

	// Expiry sweep
	ExpirySweepSchedule string `envconfig:"EXPIRY_SWEEP_SCHEDULE" default:"@daily"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsAdmin reports whether email may use the admin API. An empty allowlist
// admits every authenticated user.
func (c *Config) IsAdmin(email string) bool {
	if len(c.AdminEmails) == 0 {
		return true
	}
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}
