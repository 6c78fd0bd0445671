package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
)

// RetryLedgerClient retries reads only. Writes to the ledger are not
// idempotent, so CreateSubtype and CreateTransactionCollection go straight through.
type RetryLedgerClient struct {
	inner      application.Ledger
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryLedgerClient(inner application.Ledger, cfg config.RetryConfig) application.Ledger {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryLedgerClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
	}
}

func (r *RetryLedgerClient) VerifyToken(ctx context.Context, token string) (*application.Identity, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.Identity, error) {
		return r.inner.VerifyToken(ctx, token)
	})
}

func (r *RetryLedgerClient) ListCurrencies(ctx context.Context, token string) ([]application.LedgerCurrency, error) {
	resp, err := retry(r, ctx, func(ctx context.Context) (*[]application.LedgerCurrency, error) {
		currencies, err := r.inner.ListCurrencies(ctx, token)
		return &currencies, err
	})
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

func (r *RetryLedgerClient) ListSubtypes(ctx context.Context, token string) ([]application.LedgerSubtype, error) {
	resp, err := retry(r, ctx, func(ctx context.Context) (*[]application.LedgerSubtype, error) {
		subtypes, err := r.inner.ListSubtypes(ctx, token)
		return &subtypes, err
	})
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

func (r *RetryLedgerClient) CreateSubtype(ctx context.Context, token string, req application.CreateSubtypeRequest) (*application.LedgerSubtype, error) {
	return r.inner.CreateSubtype(ctx, token, req)
}

func (r *RetryLedgerClient) CreateTransactionCollection(ctx context.Context, token string, req application.TransactionCollectionRequest) (*application.TransactionCollection, error) {
	return r.inner.CreateTransactionCollection(ctx, token, req)
}

func retry[T any](r *RetryLedgerClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// 4xx answers are final; everything else, including transport errors, is retried.
func isRetryable(err error) bool {
	if ledgerErr, ok := application.IsLedgerError(err); ok {
		return ledgerErr.IsRetryable()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func (r *RetryLedgerClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if r.baseDelay <= 0 {
		return 0
	}

	jitter := time.Duration(rand.Int63n(int64(r.baseDelay)))

	return base + jitter
}
