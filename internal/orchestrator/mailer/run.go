// Package mailer delivers queued invoice e-mails.
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/pgmq"
	"backoffice/internal/service"

	"github.com/rs/zerolog"
)

// Job outcomes recorded in the queue metrics.
const (
	outcomeSent         = "sent"
	outcomeSkipped      = "skipped"
	outcomeRetry        = "retry"
	outcomeDeadLettered = "dead_lettered"
)

// Queue is the subset of the pgmq client the worker uses.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibility, pollTimeout time.Duration, maxMessages int) ([]*pgmq.Message, error)
	Delete(ctx context.Context, queue string, msgID int64) error
	Archive(ctx context.Context, queue string, msgID int64) error
}

// InvoiceSender sends a draft invoice.
type InvoiceSender interface {
	Send(ctx context.Context, id string) (*model.Invoice, error)
}

// DeadLetters records jobs that exhausted their retries.
type DeadLetters interface {
	Record(ctx context.Context, source, messageID string, payload []byte, reason string) error
}

type Options struct {
	Queue       string
	Visibility  time.Duration
	PollTimeout time.Duration
	MaxMessages int
	MaxRetries  int
}

// Worker consumes the invoice e-mail queue. A failed send is left in the
// queue and becomes visible again after the visibility timeout.
type Worker struct {
	queue    Queue
	invoices InvoiceSender
	dlq      DeadLetters
	metrics  *metrics.Metrics
	opts     Options
	logger   zerolog.Logger
}

func New(queue Queue, invoices InvoiceSender, dlq DeadLetters, m *metrics.Metrics, opts Options, logger zerolog.Logger) *Worker {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	return &Worker{
		queue:    queue,
		invoices: invoices,
		dlq:      dlq,
		metrics:  m,
		opts:     opts,
		logger:   logger.With().Str("orchestrator", "mailer").Str("queue", opts.Queue).Logger(),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("Starting mailer orchestrator")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down mailer orchestrator")
			return nil
		default:
		}

		n, err := w.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading mail queue")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if n > 0 {
			w.logger.Debug().Int("count", n).Msg("Processed mail jobs")
		}
	}
}

// Poll reads one batch and handles every message in it.
func (w *Worker) Poll(ctx context.Context) (int, error) {
	msgs, err := w.queue.ReadWithPoll(ctx, w.opts.Queue, w.opts.Visibility, w.opts.PollTimeout, w.opts.MaxMessages)
	if err != nil {
		return 0, err
	}
	for _, msg := range msgs {
		outcome := w.handle(ctx, msg)
		w.metrics.QueueJob(w.opts.Queue, outcome)
	}
	return len(msgs), nil
}

func (w *Worker) handle(ctx context.Context, msg *pgmq.Message) string {
	log := w.logger.With().Int64("msg_id", msg.ID).Int("read_count", msg.ReadCount).Logger()

	var job service.InvoiceJob
	if err := json.Unmarshal(msg.Data, &job); err != nil || job.InvoiceID == "" {
		log.Error().Err(err).Msg("Malformed mail job")
		return w.deadLetter(ctx, msg, "malformed job payload", log)
	}
	log = log.With().Str("invoice_id", job.InvoiceID).Logger()

	if msg.ReadCount > w.opts.MaxRetries {
		return w.deadLetter(ctx, msg, fmt.Sprintf("gave up after %d attempts", w.opts.MaxRetries), log)
	}

	_, err := w.invoices.Send(ctx, job.InvoiceID)
	switch {
	case err == nil:
		log.Info().Msg("Invoice e-mail sent")
		w.ack(ctx, msg, log)
		return outcomeSent
	case errors.Is(err, billing.ErrInvalidTransition), errors.Is(err, service.ErrInvoiceNotFound):
		// Already sent, settled or deleted.
		log.Warn().Err(err).Msg("Dropping mail job")
		w.ack(ctx, msg, log)
		return outcomeSkipped
	default:
		log.Error().Err(err).Msg("Failed to send invoice e-mail; will retry")
		return outcomeRetry
	}
}

func (w *Worker) ack(ctx context.Context, msg *pgmq.Message, log zerolog.Logger) {
	if err := w.queue.Delete(ctx, w.opts.Queue, msg.ID); err != nil {
		log.Error().Err(err).Msg("Error deleting mail job")
	}
}

func (w *Worker) deadLetter(ctx context.Context, msg *pgmq.Message, reason string, log zerolog.Logger) string {
	if w.dlq != nil {
		if err := w.dlq.Record(ctx, w.opts.Queue, strconv.FormatInt(msg.ID, 10), msg.Data, reason); err != nil {
			log.Error().Err(err).Msg("Failed to record dead-lettered mail job")
		}
	}
	if err := w.queue.Archive(ctx, w.opts.Queue, msg.ID); err != nil {
		log.Error().Err(err).Msg("Error archiving mail job")
	}
	log.Warn().Str("reason", reason).Msg("Moved mail job to the archive")
	return outcomeDeadLettered
}
