// Package gateway normalizes heterogeneous payment providers into a single
// settlement path. Synchronous confirmations (cash on delivery) and
// asynchronous provider webhooks both end up as a PaymentResult handed to
// the order ledger.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
)

// PaymentResult is the uniform settlement outcome, whatever provider or
// delivery path produced it.
type PaymentResult struct {
	PaymentID        string          `json:"paymentId"`
	Success          bool            `json:"success"`
	TransactionID    string          `json:"transactionId,omitempty"`
	ProviderResponse json.RawMessage `json:"providerResponse,omitempty"`
}

// InitiateAck is the provider's answer to a charge request. Settled is true
// only for providers that confirm inline; everyone else settles later via
// callback.
type InitiateAck struct {
	Settled bool
	Result  *PaymentResult
}

// Gateway is what the order ledger sees.
type Gateway interface {
	Initiate(ctx context.Context, payment *domain.Payment) (*InitiateAck, error)
}

// Settler is the ledger-side sink for normalized results. Defined here so
// the adapter never imports the service layer.
type Settler interface {
	SettlePayment(ctx context.Context, paymentID string, result PaymentResult) error
}

// Provider adapts one external payment provider.
type Provider interface {
	Initiate(ctx context.Context, payment *domain.Payment) (*InitiateAck, error)
	// ParseCallback extracts a normalized result from a raw webhook body.
	ParseCallback(payload []byte) (*PaymentResult, error)
}

// Adapter routes by payment method and deduplicates redelivered callbacks.
// The dedup window is process-local; the ledger's idempotent settlement is
// the durable backstop.
type Adapter struct {
	mu        sync.Mutex
	providers map[domain.PaymentMethod]Provider
	seen      map[string]struct{}
	ledger    Settler
}

func NewAdapter() *Adapter {
	return &Adapter{
		providers: make(map[domain.PaymentMethod]Provider),
		seen:      make(map[string]struct{}),
	}
}

var _ Gateway = (*Adapter)(nil)

func (a *Adapter) Register(method domain.PaymentMethod, p Provider) {
	a.providers[method] = p
}

// BindLedger wires the settlement sink. Called once at startup, after the
// ledger is constructed.
func (a *Adapter) BindLedger(s Settler) {
	a.ledger = s
}

func (a *Adapter) provider(method domain.PaymentMethod) (Provider, error) {
	p, ok := a.providers[method]
	if !ok {
		return nil, fmt.Errorf("%w: no provider for method %q", domain.ErrInvalidInput, method)
	}
	return p, nil
}

func (a *Adapter) Initiate(ctx context.Context, payment *domain.Payment) (*InitiateAck, error) {
	p, err := a.provider(payment.Method)
	if err != nil {
		return nil, err
	}
	return p.Initiate(ctx, payment)
}

// HandleCallback normalizes a provider webhook and forwards it at most once
// per (payment_id, transaction_id) pair. Redeliveries are acknowledged and
// dropped.
func (a *Adapter) HandleCallback(ctx context.Context, method domain.PaymentMethod, payload []byte) error {
	p, err := a.provider(method)
	if err != nil {
		return err
	}

	result, err := p.ParseCallback(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}

	key := result.PaymentID + "|" + result.TransactionID

	a.mu.Lock()
	if _, dup := a.seen[key]; dup {
		a.mu.Unlock()
		slog.Debug("duplicate callback dropped",
			slog.String("payment_id", result.PaymentID),
			slog.String("transaction_id", result.TransactionID))
		return nil
	}
	a.seen[key] = struct{}{}
	a.mu.Unlock()

	if err := a.ledger.SettlePayment(ctx, result.PaymentID, *result); err != nil {
		a.mu.Lock()
		delete(a.seen, key)
		a.mu.Unlock()
		return err
	}
	return nil
}
