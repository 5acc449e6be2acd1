package payments

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aseguraplus/SeguroPay/app/models"
)

func testPayment(status string, amount string) *models.Payment {
	amt, _ := decimal.NewFromString(amount)
	return &models.Payment{
		Status: status,
		Amount: amt,
	}
}

func testEvent(status string, amount string) ProviderEvent {
	amt, _ := decimal.NewFromString(amount)
	return ProviderEvent{
		Provider:            models.PaymentMethodPSE,
		ProviderEventID:     "evt-1",
		ProviderTransaction: "tx-1",
		ReportedStatus:      status,
		Amount:              amt,
		Currency:            "COP",
	}
}

func TestApplyProviderEventLegalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		to     string
		credit bool
		debit  bool
	}{
		{name: "created to pending", from: models.PaymentStatusCreated, to: models.PaymentStatusPending},
		{name: "created to canceled", from: models.PaymentStatusCreated, to: models.PaymentStatusCanceled},
		{name: "pending to paid", from: models.PaymentStatusPending, to: models.PaymentStatusPaid, credit: true},
		{name: "pending to failed", from: models.PaymentStatusPending, to: models.PaymentStatusFailed},
		{name: "pending to canceled", from: models.PaymentStatusPending, to: models.PaymentStatusCanceled},
		{name: "paid to refunded", from: models.PaymentStatusPaid, to: models.PaymentStatusRefunded, debit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := testPayment(tt.from, "150000.00")
			tr, err := ApplyProviderEvent(payment, testEvent(tt.to, "150000.00"))
			require.NoError(t, err)
			assert.False(t, tr.Noop)
			assert.Equal(t, tt.from, tr.From)
			assert.Equal(t, tt.to, tr.To)
			assert.Equal(t, tt.to, payment.Status)
			assert.Equal(t, tt.credit, tr.CreditLedger)
			assert.Equal(t, tt.debit, tr.DebitLedger)
		})
	}
}

func TestApplyProviderEventSetsPaidAt(t *testing.T) {
	payment := testPayment(models.PaymentStatusPending, "99.90")
	require.Nil(t, payment.PaidAt)

	_, err := ApplyProviderEvent(payment, testEvent(models.PaymentStatusPaid, "99.90"))
	require.NoError(t, err)
	require.NotNil(t, payment.PaidAt)
}

func TestApplyProviderEventReplayIsNoop(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		reported string
	}{
		{name: "pending after paid", current: models.PaymentStatusPaid, reported: models.PaymentStatusPending},
		{name: "paid after paid", current: models.PaymentStatusPaid, reported: models.PaymentStatusPaid},
		{name: "pending after pending", current: models.PaymentStatusPending, reported: models.PaymentStatusPending},
		{name: "failed after canceled", current: models.PaymentStatusCanceled, reported: models.PaymentStatusFailed},
		{name: "paid after refunded", current: models.PaymentStatusRefunded, reported: models.PaymentStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := testPayment(tt.current, "10.00")
			tr, err := ApplyProviderEvent(payment, testEvent(tt.reported, "10.00"))
			require.NoError(t, err)
			assert.True(t, tr.Noop)
			assert.Equal(t, tt.current, payment.Status, "replay must not mutate the payment")
			assert.False(t, tr.CreditLedger)
			assert.False(t, tr.DebitLedger)
		})
	}
}

func TestApplyProviderEventIllegalTransitions(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		reported string
	}{
		{name: "failed to refunded", current: models.PaymentStatusFailed, reported: models.PaymentStatusRefunded},
		{name: "canceled to refunded", current: models.PaymentStatusCanceled, reported: models.PaymentStatusRefunded},
		{name: "created to refunded", current: models.PaymentStatusCreated, reported: models.PaymentStatusRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := testPayment(tt.current, "10.00")
			_, err := ApplyProviderEvent(payment, testEvent(tt.reported, "10.00"))
			require.ErrorIs(t, err, ErrIllegalTransition)
			assert.Equal(t, tt.current, payment.Status, "failed transition must not mutate the payment")
		})
	}
}

func TestApplyProviderEventUnknownStatus(t *testing.T) {
	payment := testPayment(models.PaymentStatusPending, "10.00")
	_, err := ApplyProviderEvent(payment, testEvent("SETTLED", "10.00"))
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestApplyProviderEventAmountMismatch(t *testing.T) {
	payment := testPayment(models.PaymentStatusPending, "150000.00")
	_, err := ApplyProviderEvent(payment, testEvent(models.PaymentStatusPaid, "150001.00"))
	require.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, models.PaymentStatusPending, payment.Status, "mismatch must be detected before mutation")
	assert.Nil(t, payment.PaidAt)
}

func TestApplyProviderEventAmountIgnoredForNonPaid(t *testing.T) {
	// Only the PAID transition settles money; other transitions tolerate a
	// deviating reported amount.
	payment := testPayment(models.PaymentStatusPending, "150000.00")
	tr, err := ApplyProviderEvent(payment, testEvent(models.PaymentStatusFailed, "1.00"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, tr.To)
}

func TestIsTerminalFailure(t *testing.T) {
	assert.True(t, IsTerminalFailure(ErrAmountMismatch))
	assert.True(t, IsTerminalFailure(ErrPaymentNotFound))
	assert.True(t, IsTerminalFailure(ErrIllegalTransition))
	assert.False(t, IsTerminalFailure(errors.New("connection reset")))
}
