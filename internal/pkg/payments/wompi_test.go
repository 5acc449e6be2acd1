package payments

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aseguraplus/SeguroPay/app/models"
)

func wompiBody(txID, status string, amountInCents, timestamp int64, secret string) []byte {
	concat := fmt.Sprintf("%s%s%d%d%s", txID, status, amountInCents, timestamp, secret)
	sum := sha256.Sum256([]byte(concat))
	checksum := hex.EncodeToString(sum[:])
	return []byte(fmt.Sprintf(`{
		"event": "transaction.updated",
		"data": {"transaction": {"id": %q, "amount_in_cents": %d, "reference": "ref-1", "currency": "COP", "status": %q}},
		"timestamp": %d,
		"signature": {"checksum": %q, "properties": ["transaction.id", "transaction.status", "transaction.amount_in_cents"]},
		"sent_at": "2024-01-01T00:00:00.000Z"
	}`, txID, amountInCents, status, timestamp, checksum))
}

func TestWompiVerifySignature(t *testing.T) {
	adapter := NewWompiAdapter()

	t.Run("accepts valid checksum", func(t *testing.T) {
		body := wompiBody("tx-1", "APPROVED", 1500000, 1700000000, testSecret)
		assert.True(t, adapter.VerifySignature(body, nil, testSecret))
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		body := wompiBody("tx-1", "APPROVED", 1500000, 1700000000, "other")
		assert.False(t, adapter.VerifySignature(body, nil, testSecret))
	})

	t.Run("rejects tampered amount", func(t *testing.T) {
		body := wompiBody("tx-1", "APPROVED", 1500000, 1700000000, testSecret)
		tampered := []byte(strings.Replace(string(body), "1500000", "9900000", 1))
		assert.False(t, adapter.VerifySignature(tampered, nil, testSecret))
	})

	t.Run("rejects empty checksum", func(t *testing.T) {
		body := []byte(`{"data":{"transaction":{"id":"tx-1","status":"APPROVED"}},"signature":{"checksum":"","properties":[]}}`)
		assert.False(t, adapter.VerifySignature(body, nil, testSecret))
	})

	t.Run("rejects unknown signed property", func(t *testing.T) {
		body := []byte(`{"data":{"transaction":{"id":"tx-1","status":"APPROVED"}},"timestamp":1,"signature":{"checksum":"ab","properties":["transaction.customer_email"]}}`)
		assert.False(t, adapter.VerifySignature(body, nil, testSecret))
	})
}

func TestWompiParseEvent(t *testing.T) {
	adapter := NewWompiAdapter()
	body := wompiBody("tx-9", "APPROVED", 8000000, 1700000000, testSecret)
	headers := map[string]string{"X-Event-Id": "wompi-evt-9"}

	event, err := adapter.ParseEvent(body, headers)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodWompi, event.Provider)
	assert.Equal(t, "wompi-evt-9", event.ProviderEventID)
	assert.Equal(t, "tx-9", event.ProviderTransaction)
	assert.Equal(t, models.PaymentStatusPaid, event.ReportedStatus)
	assert.True(t, event.Amount.Equal(decimal.RequireFromString("80000.00")),
		"cents must convert to major units, got %s", event.Amount)
	assert.Equal(t, "COP", event.Currency)
}

func TestWompiParseEventFallbackEventID(t *testing.T) {
	adapter := NewWompiAdapter()
	body := wompiBody("tx-9", "PENDING", 100, 1, testSecret)

	event, err := adapter.ParseEvent(body, nil)
	require.NoError(t, err)
	assert.Contains(t, event.ProviderEventID, "hash:")
}

func TestWompiParseEventErrors(t *testing.T) {
	adapter := NewWompiAdapter()

	t.Run("invalid json", func(t *testing.T) {
		_, err := adapter.ParseEvent([]byte(`{`), nil)
		require.Error(t, err)
	})

	t.Run("missing transaction id", func(t *testing.T) {
		_, err := adapter.ParseEvent([]byte(`{"data":{"transaction":{"status":"APPROVED"}}}`), nil)
		require.Error(t, err)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := adapter.ParseEvent([]byte(`{"data":{"transaction":{"id":"tx-1","status":"WAITING"}}}`), nil)
		require.Error(t, err)
	})
}

func TestWompiPaymentStatusMapping(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{status: "APPROVED", want: models.PaymentStatusPaid},
		{status: "PENDING", want: models.PaymentStatusPending},
		{status: "DECLINED", want: models.PaymentStatusFailed},
		{status: "ERROR", want: models.PaymentStatusFailed},
		{status: "VOIDED", want: models.PaymentStatusCanceled},
		{status: "REFUNDED", want: models.PaymentStatusRefunded},
	}

	for _, tt := range tests {
		got, err := wompiPaymentStatus(tt.status)
		require.NoError(t, err)
		if got != tt.want {
			t.Fatalf("wompiPaymentStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
