package payments

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aseguraplus/SeguroPay/app/models"
)

const wompiHeaderEventID = "X-Event-Id"

// wompiAdapter handles Wompi transaction events. Wompi signs events with a
// SHA-256 checksum over the concatenated signed properties, the event
// timestamp and the integrity secret, carried inside the payload itself.
type wompiAdapter struct{}

// NewWompiAdapter creates the Wompi provider adapter.
func NewWompiAdapter() Adapter {
	return wompiAdapter{}
}

func (wompiAdapter) Key() string { return models.PaymentMethodWompi }

type wompiEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		Transaction struct {
			ID            string `json:"id"`
			AmountInCents int64  `json:"amount_in_cents"`
			Reference     string `json:"reference"`
			Currency      string `json:"currency"`
			Status        string `json:"status"`
		} `json:"transaction"`
	} `json:"data"`
	Timestamp int64 `json:"timestamp"`
	Signature struct {
		Checksum   string   `json:"checksum"`
		Properties []string `json:"properties"`
	} `json:"signature"`
	SentAt string `json:"sent_at"`
}

func (wompiAdapter) VerifySignature(rawBody []byte, headers map[string]string, secret string) bool {
	if strings.TrimSpace(secret) == "" {
		return false
	}
	var env wompiEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return false
	}
	checksum := strings.ToLower(strings.TrimSpace(env.Signature.Checksum))
	if checksum == "" {
		return false
	}

	var sb strings.Builder
	for _, prop := range env.Signature.Properties {
		switch prop {
		case "transaction.id":
			sb.WriteString(env.Data.Transaction.ID)
		case "transaction.status":
			sb.WriteString(env.Data.Transaction.Status)
		case "transaction.amount_in_cents":
			sb.WriteString(strconv.FormatInt(env.Data.Transaction.AmountInCents, 10))
		case "transaction.reference":
			sb.WriteString(env.Data.Transaction.Reference)
		default:
			// Unknown signed property: the checksum cannot be reproduced.
			return false
		}
	}
	sb.WriteString(strconv.FormatInt(env.Timestamp, 10))
	sb.WriteString(secret)

	sum := sha256.Sum256([]byte(sb.String()))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(checksum)) == 1
}

func (wompiAdapter) ParseEvent(rawBody []byte, headers map[string]string) (ProviderEvent, error) {
	var env wompiEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return ProviderEvent{}, fmt.Errorf("wompi payload: %w", err)
	}
	tx := env.Data.Transaction
	if strings.TrimSpace(tx.ID) == "" {
		return ProviderEvent{}, errors.New("wompi payload missing transaction id")
	}

	status, err := wompiPaymentStatus(tx.Status)
	if err != nil {
		return ProviderEvent{}, err
	}

	eventID := headerValue(headers, wompiHeaderEventID)
	if eventID == "" {
		eventID = fallbackEventID(rawBody)
	}

	// Wompi reports minor units; the ledger works in decimal major units.
	amount := decimal.NewFromInt(tx.AmountInCents).Shift(-2)

	return ProviderEvent{
		Provider:            models.PaymentMethodWompi,
		ProviderEventID:     eventID,
		ProviderTransaction: strings.TrimSpace(tx.ID),
		ReportedStatus:      status,
		Amount:              amount,
		Currency:            strings.ToUpper(strings.TrimSpace(tx.Currency)),
	}, nil
}

// wompiPaymentStatus maps Wompi transaction statuses to payment statuses.
func wompiPaymentStatus(status string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "APPROVED":
		return models.PaymentStatusPaid, nil
	case "PENDING":
		return models.PaymentStatusPending, nil
	case "DECLINED", "ERROR":
		return models.PaymentStatusFailed, nil
	case "VOIDED":
		return models.PaymentStatusCanceled, nil
	case "REFUNDED":
		return models.PaymentStatusRefunded, nil
	default:
		return "", fmt.Errorf("unsupported wompi status: %q", status)
	}
}
