package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPPaymentGateway talks to the payment-processor facade over JSON.
// Every money-moving call carries an Idempotency-Key header; the processor
// treats a repeated key as a no-op, so an ambiguous failure can be retried
// without double-moving money.
type HTTPPaymentGateway struct {
	Address string
	client  *http.Client
}

func NewHTTPPaymentGateway(address string, timeout time.Duration) *HTTPPaymentGateway {
	return &HTTPPaymentGateway{
		Address: address,
		client:  &http.Client{Timeout: timeout},
	}
}

type authorizeRequest struct {
	BuyerID string `json:"buyer_id"`
	Amount  int64  `json:"amount"`
}

type authorizeResponse struct {
	PaymentIntentRef string `json:"payment_intent_ref"`
}

type captureRequest struct {
	PaymentIntentRef string `json:"payment_intent_ref"`
}

type transferRequest struct {
	SellerID string `json:"seller_id"`
	Amount   int64  `json:"amount"`
}

type refundRequest struct {
	PaymentIntentRef string `json:"payment_intent_ref"`
	Amount           int64  `json:"amount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (g *HTTPPaymentGateway) Authorize(ctx context.Context, buyerID string, amount int64, idempotencyKey string) (string, error) {
	var out authorizeResponse
	if err := g.post(ctx, "/payments/authorize", idempotencyKey, authorizeRequest{
		BuyerID: buyerID,
		Amount:  amount,
	}, &out); err != nil {
		return "", err
	}
	return out.PaymentIntentRef, nil
}

func (g *HTTPPaymentGateway) Capture(ctx context.Context, paymentIntentRef string, idempotencyKey string) error {
	return g.post(ctx, "/payments/capture", idempotencyKey, captureRequest{
		PaymentIntentRef: paymentIntentRef,
	}, nil)
}

func (g *HTTPPaymentGateway) Transfer(ctx context.Context, sellerID string, amount int64, idempotencyKey string) error {
	return g.post(ctx, "/payments/transfer", idempotencyKey, transferRequest{
		SellerID: sellerID,
		Amount:   amount,
	}, nil)
}

func (g *HTTPPaymentGateway) Refund(ctx context.Context, paymentIntentRef string, amount int64, idempotencyKey string) error {
	return g.post(ctx, "/payments/refund", idempotencyKey, refundRequest{
		PaymentIntentRef: paymentIntentRef,
		Amount:           amount,
	}, nil)
}

func (g *HTTPPaymentGateway) post(ctx context.Context, path, idempotencyKey string, body, out interface{}) error {
	requestBodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", g.Address, path), bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	response, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if out != nil {
			return json.Unmarshal(responseBodyBytes, out)
		}
		return nil
	}

	var errResponse errorResponse
	if err := json.Unmarshal(responseBodyBytes, &errResponse); err != nil {
		return fmt.Errorf("payment gateway returned status %d", response.StatusCode)
	}
	return errors.New(errResponse.Error)
}
