package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cyhinverse/mobile-store-server/internal/infra/gateway"
	"github.com/cyhinverse/mobile-store-server/internal/repository"
)

// PaymentSweeper reconciles payments whose provider never called back. A
// payment pending longer than timeout is fed a failure result through the
// normal settlement path, so expiry reuses the same idempotent transition
// logic as a real callback.
type PaymentSweeper struct {
	payments repository.PaymentRepository
	ledger   gateway.Settler
	timeout  time.Duration
	interval time.Duration
}

func NewPaymentSweeper(payments repository.PaymentRepository, ledger gateway.Settler, timeout, interval time.Duration) *PaymentSweeper {
	return &PaymentSweeper{
		payments: payments,
		ledger:   ledger,
		timeout:  timeout,
		interval: interval,
	}
}

func (s *PaymentSweeper) Run(ctx context.Context) error {
	slog.Info("payment sweeper started",
		slog.Duration("timeout", s.timeout),
		slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("payment sweeper stopping")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep expires every payment pending since before the timeout cutoff.
func (s *PaymentSweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.timeout)

	expired, err := s.payments.FindPendingBefore(ctx, cutoff)
	if err != nil {
		slog.Error("sweep query failed", slog.Any("error", err))
		return
	}

	for i := range expired {
		result := gateway.PaymentResult{
			PaymentID:        expired[i].ID,
			Success:          false,
			ProviderResponse: json.RawMessage(`{"reason":"settlement timeout"}`),
		}
		if err := s.ledger.SettlePayment(ctx, expired[i].ID, result); err != nil {
			slog.Error("sweep settle failed",
				slog.String("payment_id", expired[i].ID),
				slog.Any("error", err))
			continue
		}
		slog.Info("pending payment expired", slog.String("payment_id", expired[i].ID))
	}
}
