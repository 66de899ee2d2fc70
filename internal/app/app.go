// Package app wires configuration into repositories, integrations and
// services. The HTTP server and the orchestrators share it.
package app

import (
	"context"
	"database/sql"
	"time"

	"backoffice/internal/cache"
	"backoffice/internal/config"
	"backoffice/internal/mail"
	"backoffice/internal/metrics"
	"backoffice/internal/pgmq"
	"backoffice/internal/pubsub"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/rs/zerolog"
)

// Services holds everything built from the configuration.
type Services struct {
	DB      *sql.DB
	Queue   *pgmq.Client
	Metrics *metrics.Metrics

	Company   service.CompanyService
	Customers service.CustomerService
	Accounts  service.AccountService
	Invoices  service.InvoiceService
	Forms     service.FormSubmissionService
	Dashboard service.DashboardService
	DLQ       service.DLQService

	// StripeWebhook is nil when Stripe is not configured.
	StripeWebhook *service.StripeWebhook

	closers []func() error
	logger  zerolog.Logger
}

// New connects to the database and the configured integrations. Optional
// integrations without configuration are left out and the features that need
// them report service.ErrNotConfigured.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Services, error) {
	s := &Services{logger: logger}

	pool, db, err := repository.Open(ctx, cfg.DBConnectionString, cfg.DBMaxConns, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	s.DB = db
	s.closers = append(s.closers, func() error { pool.Close(); return nil }, db.Close)
	logger.Info().Msg("Database connection successful")

	if cfg.RunMigrations {
		if err := repository.Migrate(ctx, db, logger); err != nil {
			s.Close()
			return nil, err
		}
	}

	s.Metrics = metrics.NewDefault()
	s.Queue = pgmq.New(db)
	if err := s.Queue.CreateQueue(ctx, cfg.MailQueueName); err != nil {
		// The queue extension may be missing locally; e-mails are then sent inline.
		logger.Warn().Err(err).Str("queue", cfg.MailQueueName).Msg("Mail queue unavailable; sending invoices inline")
		s.Queue = nil
	}

	settingsCache, err := newSettingsCache(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	if closer, ok := settingsCache.(interface{ Close() error }); ok {
		s.closers = append(s.closers, closer.Close)
	}

	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	if closer, ok := publisher.(interface{ Close() error }); ok {
		s.closers = append(s.closers, closer.Close)
	}
	events := pubsub.NewEmitter(publisher, cfg.PubSubEventsTopic)

	sender, err := mail.NewSender(mail.Config{
		PostmarkServerToken:  cfg.PostmarkServerToken,
		PostmarkAccountToken: cfg.PostmarkAccountToken,
		SenderEmail:          cfg.SenderEmail,
		SupportEmail:         cfg.SupportEmail,
		DevDir:               cfg.DevMailDir,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	var store service.DocumentStore
	if cfg.S3URL != "" {
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		store = service.NewS3DocumentStore(client, cfg.S3Bucket, time.Duration(cfg.S3URLExpiry)*time.Minute)
	} else {
		logger.Warn().Msg("S3_URL not set; invoice documents are rendered on demand only")
	}

	var vault service.CredentialVault
	if cfg.GCPProjectID != "" && cfg.PubSubEmulatorHost == "" {
		if vault, err = service.NewSecretManagerVault(ctx, cfg.GCPProjectID, cfg.GCPCredentialsFile); err != nil {
			s.Close()
			return nil, err
		}
	} else {
		logger.Warn().Msg("Secret Manager not configured; seat credentials cannot be stored")
	}

	var payments service.PaymentGateway
	if cfg.StripeSecretKey != "" {
		payments = service.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeReturnURL, logger)
	}

	customerRepo := repository.NewCustomerRepo(db)
	accountRepo := repository.NewAccountRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	submissionRepo := repository.NewFormSubmissionRepo(db)
	dlqRepo := repository.NewDLQRepository(db)

	s.Company = service.NewCompanyService(companyRepo, settingsCache, s.Metrics, logger)
	s.Customers = service.NewCustomerService(customerRepo, accountRepo, s.Company, payments, logger)
	s.Accounts = service.NewAccountService(accountRepo, customerRepo, vault, events, logger)

	invoiceDeps := service.InvoiceServiceDeps{
		Invoices:  invoiceRepo,
		Customers: customerRepo,
		Accounts:  accountRepo,
		Company:   s.Company,
		Sender:    sender,
		Store:     store,
		Payments:  payments,
		QueueName: cfg.MailQueueName,
		Events:    events,
		Metrics:   s.Metrics,
	}
	if s.Queue != nil {
		invoiceDeps.Queue = s.Queue
	}
	s.Invoices = service.NewInvoiceService(invoiceDeps, logger)

	s.Forms = service.NewFormSubmissionService(service.FormSubmissionServiceDeps{
		Submissions:   submissionRepo,
		Customers:     customerRepo,
		Sender:        sender,
		Payments:      payments,
		Events:        events,
		Metrics:       s.Metrics,
		OperatorEmail: cfg.OperatorEmail,
		SupportEmail:  cfg.SupportEmail,
	}, logger)
	s.Dashboard = service.NewDashboardService(customerRepo, accountRepo, invoiceRepo, s.Company, logger)
	s.DLQ = service.NewDLQService(dlqRepo, logger)

	if cfg.StripeWebhookSecret != "" {
		s.StripeWebhook = service.NewStripeWebhook(s.Invoices, cfg.StripeWebhookSecret, logger)
	}
	return s, nil
}

// Close releases connections in reverse order of creation.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn().Err(err).Msg("Error during shutdown")
		}
	}
	s.closers = nil
}

func newSettingsCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.SettingsCache, error) {
	ttl := time.Duration(cfg.SettingsTTLSec) * time.Second
	if cfg.RedisURL == "" {
		logger.Info().Msg("Using in-memory settings cache")
		return cache.NewMemorySettingsCache(cfg.SettingsLRUSize, ttl), nil
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("Using Redis settings cache")
	return redisCache{RedisSettingsCache: cache.NewRedisSettingsCache(client, ttl), close: client.Close}, nil
}

type redisCache struct {
	*cache.RedisSettingsCache
	close func() error
}

func (c redisCache) Close() error { return c.close() }

func newPublisher(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (pubsub.Publisher, error) {
	if cfg.GCPProjectID == "" {
		logger.Warn().Msg("GCP_PROJECT_ID not set; domain events are dropped")
		return pubsub.NopPublisher{}, nil
	}
	return pubsub.NewPublisher(ctx, pubsub.Options{
		ProjectID:       cfg.GCPProjectID,
		CredentialsFile: cfg.GCPCredentialsFile,
		EmulatorHost:    cfg.PubSubEmulatorHost,
	})
}

func newS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	}), nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
