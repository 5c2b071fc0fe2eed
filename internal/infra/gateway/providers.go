package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cyhinverse/mobile-store-server/internal/domain"
)

// CashOnDeliveryProvider settles inline: the charge is collected on
// delivery, so initiation always succeeds and there is no provider
// transaction id.
type CashOnDeliveryProvider struct{}

func NewCashOnDeliveryProvider() *CashOnDeliveryProvider { return &CashOnDeliveryProvider{} }

var _ Provider = (*CashOnDeliveryProvider)(nil)

func (p *CashOnDeliveryProvider) Initiate(_ context.Context, payment *domain.Payment) (*InitiateAck, error) {
	resp, _ := json.Marshal(map[string]string{"provider": "cash_on_delivery", "result": "accepted"})
	return &InitiateAck{
		Settled: true,
		Result: &PaymentResult{
			PaymentID:        payment.ID,
			Success:          true,
			ProviderResponse: resp,
		},
	}, nil
}

func (p *CashOnDeliveryProvider) ParseCallback([]byte) (*PaymentResult, error) {
	return nil, fmt.Errorf("cash on delivery has no callback channel")
}

// chargeRequest is the payload sent to network-based providers.
type chargeRequest struct {
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// providerCallback is the webhook shape shared by the bank-transfer and
// e-wallet providers.
type providerCallback struct {
	PaymentID     string `json:"payment_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// HTTPProvider covers bank transfer and e-wallet charges: initiation posts
// a charge request and the real settlement arrives later on the webhook.
type HTTPProvider struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

func NewHTTPProvider(name, baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ Provider = (*HTTPProvider)(nil)

func (p *HTTPProvider) Initiate(ctx context.Context, payment *domain.Payment) (*InitiateAck, error) {
	body, err := json.Marshal(chargeRequest{
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		Currency:  "VND",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrGateway, p.name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("%w: %s returned status %d", domain.ErrGateway, p.name, resp.StatusCode)
	}

	// Settlement arrives on the webhook.
	return &InitiateAck{Settled: false}, nil
}

func (p *HTTPProvider) ParseCallback(payload []byte) (*PaymentResult, error) {
	var cb providerCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("%s: malformed callback: %w", p.name, err)
	}
	if cb.PaymentID == "" {
		return nil, fmt.Errorf("%s: callback missing payment_id", p.name)
	}

	result := &PaymentResult{
		PaymentID:        cb.PaymentID,
		ProviderResponse: json.RawMessage(payload),
	}
	switch cb.Status {
	case "success", "paid":
		result.Success = true
		result.TransactionID = cb.TransactionID
	case "failed", "expired", "rejected":
		result.Success = false
	default:
		return nil, fmt.Errorf("%s: unrecognized callback status %q", p.name, cb.Status)
	}
	return result, nil
}
