package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// PSE notification headers.
const (
	pseHeaderEventID   = "X-Pse-Event-Id"
	pseHeaderSignature = "X-Pse-Signature"
)

// pseAdapter handles ACH/PSE bank transfer notifications. The signature is a
// hex HMAC-SHA256 over the raw request body.
type pseAdapter struct{}

// NewPSEAdapter creates the PSE provider adapter.
func NewPSEAdapter() Adapter {
	return pseAdapter{}
}

func (pseAdapter) Key() string { return models.PaymentMethodPSE }

func (pseAdapter) VerifySignature(rawBody []byte, headers map[string]string, secret string) bool {
	sig := headerValue(headers, pseHeaderSignature)
	if sig == "" || strings.TrimSpace(secret) == "" {
		return false
	}
	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), decoded)
}

func (pseAdapter) ParseEvent(rawBody []byte, headers map[string]string) (ProviderEvent, error) {
	var raw struct {
		TransactionID string `json:"transaction_id"`
		State         string `json:"state"`
		Amount        string `json:"amount"`
		Currency      string `json:"currency"`
	}
	if err := json.Unmarshal(rawBody, &raw); err != nil {
		return ProviderEvent{}, fmt.Errorf("pse payload: %w", err)
	}
	if strings.TrimSpace(raw.TransactionID) == "" {
		return ProviderEvent{}, errors.New("pse payload missing transaction_id")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(raw.Amount))
	if err != nil {
		return ProviderEvent{}, fmt.Errorf("pse payload amount: %w", err)
	}

	status, err := psePaymentStatus(raw.State)
	if err != nil {
		return ProviderEvent{}, err
	}

	eventID := headerValue(headers, pseHeaderEventID)
	if eventID == "" {
		eventID = fallbackEventID(rawBody)
	}

	return ProviderEvent{
		Provider:            models.PaymentMethodPSE,
		ProviderEventID:     eventID,
		ProviderTransaction: strings.TrimSpace(raw.TransactionID),
		ReportedStatus:      status,
		Amount:              amount,
		Currency:            strings.ToUpper(strings.TrimSpace(raw.Currency)),
	}, nil
}

// psePaymentStatus maps PSE transaction states to payment statuses.
func psePaymentStatus(state string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "OK", "APPROVED":
		return models.PaymentStatusPaid, nil
	case "PENDING":
		return models.PaymentStatusPending, nil
	case "FAILED", "NOT_AUTHORIZED":
		return models.PaymentStatusFailed, nil
	case "EXPIRED":
		return models.PaymentStatusCanceled, nil
	default:
		return "", fmt.Errorf("unsupported pse state: %q", state)
	}
}
