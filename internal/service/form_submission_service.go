package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/mail"
	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/pubsub"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FormSubmissionService handles inquiries from the public application form.
type FormSubmissionService interface {
	Submit(ctx context.Context, s *model.FormSubmission) (*model.FormSubmission, error)
	List(ctx context.Context, status model.SubmissionStatus, limit, offset int) ([]model.FormSubmission, error)
	Get(ctx context.Context, id string) (*model.FormSubmission, error)
	ChangeStatus(ctx context.Context, id string, status model.SubmissionStatus) (*model.FormSubmission, error)
	// Convert creates a trial customer from the submission.
	Convert(ctx context.Context, id string) (*model.Customer, error)
}

// FormSubmissionServiceDeps collects the collaborators of FormSubmissionService.
type FormSubmissionServiceDeps struct {
	Submissions   repository.FormSubmissionRepository
	Customers     repository.CustomerRepository
	Sender        mail.EmailSender
	Payments      PaymentGateway
	Events        EventEmitter
	Metrics       *metrics.Metrics
	OperatorEmail string
	SupportEmail  string
}

type formSubmissionService struct {
	FormSubmissionServiceDeps
	logger zerolog.Logger
	now    func() time.Time
}

// NewFormSubmissionService creates a FormSubmissionService.
func NewFormSubmissionService(deps FormSubmissionServiceDeps, logger zerolog.Logger) FormSubmissionService {
	if deps.Events == nil {
		deps.Events = nopEmitter{}
	}
	return &formSubmissionService{
		FormSubmissionServiceDeps: deps,
		logger:                    logger.With().Str("service", "FormSubmissionService").Logger(),
		now:                       time.Now,
	}
}

func (s *formSubmissionService) submission(ctx context.Context, id string) (*model.FormSubmission, error) {
	sub, err := s.Submissions.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("submission_id", id).Msg("Failed to get form submission")
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *formSubmissionService) Submit(ctx context.Context, sub *model.FormSubmission) (*model.FormSubmission, error) {
	sub.Organization = strings.TrimSpace(sub.Organization)
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	if sub.Organization == "" || sub.Name == "" || sub.Email == "" {
		return nil, fmt.Errorf("%w: organization, name and email are required", ErrInvalidInput)
	}
	if sub.Purpose == "" {
		sub.Purpose = model.PurposeOther
	}
	if sub.RequestedAccountCount < 0 {
		sub.RequestedAccountCount = 0
	}
	sub.ID = uuid.NewString()
	sub.Status = model.SubmissionStatusNew
	sub.CustomerID = nil

	if err := s.Submissions.Create(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("organization", sub.Organization).Msg("Failed to store form submission")
		return nil, err
	}
	s.logger.Info().Str("submission_id", sub.ID).Str("purpose", string(sub.Purpose)).Msg("Form submission received")

	s.notify(ctx, sub)
	if err := s.Events.Emit(ctx, pubsub.EventFormSubmitted, map[string]any{
		"submission_id":           sub.ID,
		"purpose":                 sub.Purpose,
		"requested_account_count": sub.RequestedAccountCount,
	}); err != nil {
		s.logger.Warn().Err(err).Str("submission_id", sub.ID).Msg("Failed to publish form submission")
	}
	return sub, nil
}

// notify sends the operator notice and the applicant confirmation. Failures
// are logged only.
func (s *formSubmissionService) notify(ctx context.Context, sub *model.FormSubmission) {
	if s.Sender == nil {
		return
	}
	if s.OperatorEmail != "" {
		msg, err := mail.SubmissionNotice(s.OperatorEmail, sub)
		if err == nil {
			err = s.Sender.SendEmail(ctx, msg)
		}
		s.Metrics.EmailSent("submission_notice", err)
		if err != nil {
			s.logger.Warn().Err(err).Str("submission_id", sub.ID).Msg("Failed to notify operator")
		}
	}
	msg, err := mail.SubmissionConfirmation(s.SupportEmail, sub)
	if err == nil {
		err = s.Sender.SendEmail(ctx, msg)
	}
	s.Metrics.EmailSent("submission_confirmation", err)
	if err != nil {
		s.logger.Warn().Err(err).Str("submission_id", sub.ID).Msg("Failed to send submission confirmation")
	}
}

func (s *formSubmissionService) List(ctx context.Context, status model.SubmissionStatus, limit, offset int) ([]model.FormSubmission, error) {
	subs, err := s.Submissions.List(ctx, status, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list form submissions")
		return nil, err
	}
	return subs, nil
}

func (s *formSubmissionService) Get(ctx context.Context, id string) (*model.FormSubmission, error) {
	return s.submission(ctx, id)
}

func (s *formSubmissionService) ChangeStatus(ctx context.Context, id string, status model.SubmissionStatus) (*model.FormSubmission, error) {
	if status == model.SubmissionStatusConverted {
		return nil, fmt.Errorf("%w: use convert to create a customer", ErrInvalidInput)
	}
	sub, err := s.submission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := billing.CheckSubmissionTransition(sub.Status, status); err != nil {
		return nil, err
	}
	if err := s.Submissions.UpdateStatus(ctx, id, sub.Status, status); err != nil {
		s.logger.Error().Err(err).Str("submission_id", id).Str("status", string(status)).Msg("Failed to change submission status")
		return nil, err
	}
	return s.submission(ctx, id)
}

func conversionNotes(sub *model.FormSubmission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "フォームから変換 (%s)", sub.Purpose)
	if sub.RequestedAccountCount > 0 {
		fmt.Fprintf(&b, "\n希望アカウント数: %d", sub.RequestedAccountCount)
	}
	if msg := strings.TrimSpace(sub.Message); msg != "" {
		b.WriteString("\n")
		b.WriteString(msg)
	}
	return b.String()
}

func (s *formSubmissionService) Convert(ctx context.Context, id string) (*model.Customer, error) {
	sub, err := s.submission(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == model.SubmissionStatusConverted {
		return nil, ErrAlreadyConverted
	}
	if err := billing.CheckSubmissionTransition(sub.Status, model.SubmissionStatusConverted); err != nil {
		return nil, err
	}

	c := &model.Customer{
		ID:            uuid.NewString(),
		Email:         sub.Email,
		Organization:  sub.Organization,
		ContactName:   sub.Name,
		Phone:         sub.Phone,
		Status:        model.CustomerStatusTrial,
		PaymentMethod: sub.PaymentMethod,
		RegisteredAt:  s.now(),
		Notes:         conversionNotes(sub),
		Accounts:      []model.Account{},
	}
	if c.PaymentMethod == "" {
		c.PaymentMethod = model.PaymentMethodInvoice
	}
	billing.ApplyCustomerExpiry(c)

	if err := s.Submissions.Convert(ctx, id, sub.Status, c); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			if latest, _ := s.Submissions.GetByID(ctx, id); latest != nil && latest.Status == model.SubmissionStatusConverted {
				return nil, ErrAlreadyConverted
			}
		}
		s.logger.Error().Err(err).Str("submission_id", id).Msg("Failed to convert form submission")
		return nil, err
	}
	s.logger.Info().Str("submission_id", id).Str("customer_id", c.ID).Msg("Form submission converted")

	attachStripeCustomer(ctx, s.Customers, s.Payments, c, s.logger)
	if err := s.Events.Emit(ctx, pubsub.EventCustomerConverted, map[string]string{
		"submission_id": id,
		"customer_id":   c.ID,
	}); err != nil {
		s.logger.Warn().Err(err).Str("customer_id", c.ID).Msg("Failed to publish conversion")
	}
	return c, nil
}
