package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
)

// PaymentTransitioner applies a terminal status, posting to the ledger on success.
type PaymentTransitioner interface {
	Transition(ctx context.Context, paymentID int64, target domain.PaymentStatus, errMsg string) (*domain.Payment, error)
}

// Reconciler settles payments whose webhook never arrived, or kept failing, by
// asking the processor for the intent's current status. It goes through the
// same Transition as the webhook so the ledger is credited at most once.
type Reconciler struct {
	payments   *postgres.PaymentRepository
	users      *postgres.UserRepository
	companies  *postgres.CompanyRepository
	processor  application.Processor
	settler    PaymentTransitioner
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	logger     *slog.Logger
}

func NewReconciler(
	payments *postgres.PaymentRepository,
	users *postgres.UserRepository,
	companies *postgres.CompanyRepository,
	processor application.Processor,
	settler PaymentTransitioner,
	cfg config.WorkerConfig,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		payments:   payments,
		users:      users,
		companies:  companies,
		processor:  processor,
		settler:    settler,
		interval:   cfg.Interval,
		staleAfter: cfg.StaleAfter,
		batchSize:  cfg.BatchSize,
		logger:     logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting background reconciler",
		"interval", r.interval,
		"stale_after", r.staleAfter,
		"batch_size", r.batchSize,
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping background reconciler")
			return
		case <-ticker.C:
			r.run(ctx)
		}
	}
}

// RunOnce executes a single reconciliation cycle.
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.run(ctx)
}

func (r *Reconciler) run(ctx context.Context) {
	stale, err := r.payments.FindStaleProcessing(ctx, time.Now().Add(-r.staleAfter), r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch stale payments", "error", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	r.logger.Info("reconciling stale payments", "count", len(stale))

	for _, payment := range stale {
		if ctx.Err() != nil {
			return
		}
		// Every visit is recorded, whatever the outcome, so the next tick
		// moves on to payments not yet looked at.
		if err := r.payments.MarkReconciled(ctx, payment.ID, time.Now()); err != nil {
			r.logger.Error("failed to mark payment reconciled", "payment", payment.Identifier, "error", err)
		}
		if err := r.reconcile(ctx, payment); err != nil {
			r.logger.Error("reconciliation failed for payment",
				"payment", payment.Identifier,
				"error", err,
				"retryable", application.IsRetryable(err),
			)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context, payment *domain.Payment) error {
	company, err := r.companyOf(ctx, payment)
	if err != nil {
		return err
	}
	if !company.Configured() {
		r.logger.Debug("skipping payment of unconfigured company", "payment", payment.Identifier, "company", company.Identifier)
		return nil
	}

	intent, err := r.processor.GetPaymentIntent(ctx, company.APIKey, payment.Identifier)
	if err != nil {
		return fmt.Errorf("retrieve payment intent: %w", err)
	}

	var (
		target  domain.PaymentStatus
		message string
	)
	switch intent.Status {
	case application.IntentStatusSucceeded:
		target = domain.StatusSucceeded
	case application.IntentStatusCanceled, application.IntentStatusRequiresPaymentMethod:
		target = domain.StatusFailed
		message = intent.LastError
		if message == "" {
			message = "Payment " + intent.Status
		}
	default:
		// Still in flight at the processor.
		return nil
	}

	updated, err := r.settler.Transition(ctx, payment.ID, target, message)
	if errors.Is(err, domain.ErrInvalidTransition) {
		// A webhook settled it first.
		return nil
	}
	if err != nil {
		return err
	}

	r.logger.Info("reconciled payment", "payment", updated.Identifier, "status", updated.Status)
	return nil
}

func (r *Reconciler) companyOf(ctx context.Context, payment *domain.Payment) (*domain.Company, error) {
	user, err := r.users.FindByID(ctx, payment.UserID)
	if err != nil {
		return nil, err
	}
	if user.CompanyID == nil {
		return nil, fmt.Errorf("payment %s belongs to a user without company", payment.Identifier)
	}
	return r.companies.FindByID(ctx, *user.CompanyID)
}
