package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
)

const testSecret = "s3cr3t"

// fakeStore is an in-memory Repository with transactional rollback, so the
// service can be exercised concurrently without a database. The store mutex
// plays the role of the payment row lock: one transaction at a time.
type fakeStore struct {
	mu        sync.Mutex
	providers map[string]*models.PaymentProvider
	events    map[string]models.WebhookEvent
	payments  map[string]models.Payment
	ledger    []models.LedgerEntry
	audits    []models.AuditLogEntry
	nextEvent uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		providers: map[string]*models.PaymentProvider{},
		events:    map[string]models.WebhookEvent{},
		payments:  map[string]models.Payment{},
	}
}

func (s *fakeStore) addProvider(key string, signingRequired, active bool) {
	s.providers[key] = &models.PaymentProvider{
		Key:             key,
		WebhookSecret:   testSecret,
		SigningRequired: signingRequired,
		IsActive:        active,
	}
}

func (s *fakeStore) addPayment(method, txID, amount, status string) *models.Payment {
	amt, _ := decimal.NewFromString(amount)
	p := models.Payment{
		ID:                    uuid.New(),
		UserID:                uuid.New(),
		Amount:                amt,
		Currency:              "COP",
		Method:                method,
		Status:                status,
		ProviderTransactionID: txID,
	}
	s.payments[method+"|"+txID] = p
	return &p
}

func (s *fakeStore) GetProvider(key string) (*models.PaymentProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) InTransaction(_ context.Context, fn func(tx TxRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&fakeTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *fakeStore) SettleFailedEvent(ctx context.Context, event *models.WebhookEvent, failure error, audit *models.AuditLogEntry) error {
	return s.InTransaction(ctx, func(tx TxRepository) error {
		_, stored, err := tx.CreateEventIfNotExists(event)
		if err != nil {
			return err
		}
		if stored.IsSettled() {
			return nil
		}
		if audit != nil {
			if err := tx.AppendAuditEntry(audit); err != nil {
				return err
			}
		}
		return tx.MarkEventSettled(stored.ID, models.WebhookEventFailed, failure.Error())
	})
}

type storeSnapshot struct {
	events   map[string]models.WebhookEvent
	payments map[string]models.Payment
	ledger   int
	audits   int
	next     uint
}

func (s *fakeStore) snapshot() storeSnapshot {
	ev := make(map[string]models.WebhookEvent, len(s.events))
	for k, v := range s.events {
		ev[k] = v
	}
	pm := make(map[string]models.Payment, len(s.payments))
	for k, v := range s.payments {
		pm[k] = v
	}
	return storeSnapshot{events: ev, payments: pm, ledger: len(s.ledger), audits: len(s.audits), next: s.nextEvent}
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.events = snap.events
	s.payments = snap.payments
	s.ledger = s.ledger[:snap.ledger]
	s.audits = s.audits[:snap.audits]
	s.nextEvent = snap.next
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "|" + event.ProviderEventID
	if stored, ok := t.store.events[key]; ok {
		cp := stored
		return false, &cp, nil
	}
	t.store.nextEvent++
	row := *event
	row.ID = t.store.nextEvent
	if row.Status == "" {
		row.Status = models.WebhookEventReceived
	}
	t.store.events[key] = row
	cp := row
	return true, &cp, nil
}

func (t *fakeTx) MarkEventSettled(id uint, status, lastError string) error {
	for key, ev := range t.store.events {
		if ev.ID == id {
			ev.Status = status
			ev.LastError = lastError
			t.store.events[key] = ev
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (t *fakeTx) GetPaymentForUpdate(provider, providerTxID string) (*models.Payment, error) {
	p, ok := t.store.payments[provider+"|"+providerTxID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := p
	return &cp, nil
}

func (t *fakeTx) SavePayment(payment *models.Payment) error {
	t.store.payments[payment.Method+"|"+payment.ProviderTransactionID] = *payment
	return nil
}

func (t *fakeTx) AppendLedgerEntry(entry *models.LedgerEntry) error {
	t.store.ledger = append(t.store.ledger, *entry)
	return nil
}

func (t *fakeTx) AppendAuditEntry(entry *models.AuditLogEntry) error {
	t.store.audits = append(t.store.audits, *entry)
	return nil
}

func (s *fakeStore) eventByID(eventID string) (models.WebhookEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.ProviderEventID == eventID {
			return ev, true
		}
	}
	return models.WebhookEvent{}, false
}

func (s *fakeStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.audits))
	for _, a := range s.audits {
		out = append(out, a.Action)
	}
	return out
}

func countAction(actions []string, action string) int {
	n := 0
	for _, a := range actions {
		if a == action {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *fakeNotifier) EnqueuePaymentOutcome(_ context.Context, paymentID, _ uuid.UUID, status string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, paymentID.String()+":"+status)
	return nil
}

func pseSign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func pseDelivery(eventID, txID, state, amount string) (map[string]string, []byte) {
	body := []byte(fmt.Sprintf(`{"transaction_id":%q,"state":%q,"amount":%q,"currency":"COP"}`, txID, state, amount))
	headers := map[string]string{
		"X-Pse-Event-Id":  eventID,
		"X-Pse-Signature": pseSign(body),
	}
	return headers, body
}

func newTestService(store *fakeStore, notifier Notifier) *Service {
	return NewService(store, DefaultAdapters(), notifier)
}

func TestHandleWebhookConfirmsPayment(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	payment := store.addPayment(models.PaymentMethodPSE, "tx-100", "150000.00", models.PaymentStatusPending)
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)

	headers, body := pseDelivery("evt-100", "tx-100", "OK", "150000.00")
	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.NoError(t, err)

	assert.Equal(t, OutcomeProcessed, res.Outcome)
	assert.True(t, res.Ack())
	assert.Equal(t, models.PaymentStatusPaid, res.NewStatus)
	assert.Equal(t, payment.ID, res.PaymentID)

	stored := store.payments[models.PaymentMethodPSE+"|tx-100"]
	assert.Equal(t, models.PaymentStatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)

	require.Len(t, store.ledger, 1)
	assert.Equal(t, models.LedgerEntryCredit, store.ledger[0].Type)
	assert.True(t, store.ledger[0].Amount.Equal(payment.Amount))
	assert.Equal(t, payment.ID.String(), store.ledger[0].Reference)

	actions := store.auditActions()
	assert.Equal(t, 1, countAction(actions, models.AuditPaymentConfirmed))

	ev, ok := store.eventByID("evt-100")
	require.True(t, ok)
	assert.Equal(t, models.WebhookEventProcessed, ev.Status)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, payment.ID.String()+":"+models.PaymentStatusPaid, notifier.calls[0])
}

func TestHandleWebhookDuplicateDeliveryIsFastPath(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	store.addPayment(models.PaymentMethodPSE, "tx-100", "150000.00", models.PaymentStatusPending)
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)

	headers, body := pseDelivery("evt-100", "tx-100", "OK", "150000.00")

	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.NoError(t, err)
	require.Equal(t, OutcomeProcessed, res.Outcome)

	res, err = svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.True(t, res.Ack())

	assert.Len(t, store.ledger, 1, "duplicate must not append a second credit")
	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditPaymentConfirmed))
	assert.Len(t, notifier.calls, 1, "duplicate must not re-announce")
}

func TestHandleWebhookConcurrentDuplicates(t *testing.T) {
	const deliveries = 50

	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	payment := store.addPayment(models.PaymentMethodPSE, "tx-100", "150000.00", models.PaymentStatusPending)
	svc := newTestService(store, &fakeNotifier{})

	headers, body := pseDelivery("evt-100", "tx-100", "OK", "150000.00")

	var wg sync.WaitGroup
	results := make([]Result, deliveries)
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
		}(i)
	}
	wg.Wait()

	processed := 0
	for i := 0; i < deliveries; i++ {
		require.NoError(t, errs[i])
		require.True(t, results[i].Ack())
		if results[i].Outcome == OutcomeProcessed {
			processed++
		} else {
			require.Equal(t, OutcomeDuplicate, results[i].Outcome)
		}
	}
	assert.Equal(t, 1, processed, "exactly one delivery wins the race")

	stored := store.payments[models.PaymentMethodPSE+"|tx-100"]
	assert.Equal(t, models.PaymentStatusPaid, stored.Status)
	assert.Len(t, store.ledger, 1, "exactly one ledger credit")
	assert.True(t, store.ledger[0].Amount.Equal(payment.Amount))
	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditPaymentConfirmed))
}

func TestHandleWebhookInvalidSignatureChangesNothing(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	store.addPayment(models.PaymentMethodPSE, "tx-100", "150000.00", models.PaymentStatusPending)
	svc := newTestService(store, nil)

	headers, body := pseDelivery("evt-100", "tx-100", "OK", "150000.00")
	headers["X-Pse-Signature"] = "deadbeef"

	_, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.ErrorIs(t, err, ErrInvalidSignature)

	assert.Empty(t, store.events, "rejected delivery must leave no event row")
	assert.Empty(t, store.ledger)
	assert.Empty(t, store.audits)
	assert.Equal(t, models.PaymentStatusPending, store.payments[models.PaymentMethodPSE+"|tx-100"].Status)
}

func TestHandleWebhookAmountMismatchFailsEvent(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	store.addPayment(models.PaymentMethodPSE, "tx-100", "150000.00", models.PaymentStatusPending)
	svc := newTestService(store, nil)

	headers, body := pseDelivery("evt-100", "tx-100", "OK", "150001.00")
	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.False(t, res.Ack())

	assert.Equal(t, models.PaymentStatusPending, store.payments[models.PaymentMethodPSE+"|tx-100"].Status,
		"payment must stay untouched on mismatch")
	assert.Empty(t, store.ledger)

	ev, ok := store.eventByID("evt-100")
	require.True(t, ok, "failed event must survive the rollback")
	assert.Equal(t, models.WebhookEventFailed, ev.Status)
	assert.Contains(t, ev.LastError, "amount")

	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditPaymentAmountMismatch))
}

func TestHandleWebhookFailedEventRedeliveryIsNotRetried(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	store.addPayment(models.PaymentMethodPSE, "tx-100", "150000.00", models.PaymentStatusPending)
	svc := newTestService(store, nil)

	headers, body := pseDelivery("evt-100", "tx-100", "OK", "150001.00")
	_, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.ErrorIs(t, err, ErrAmountMismatch)

	// Redelivery of the same event: acked as failed, side effects do not rerun.
	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditPaymentAmountMismatch))
}

func TestHandleWebhookPaymentNotFound(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	svc := newTestService(store, nil)

	headers, body := pseDelivery("evt-404", "tx-missing", "OK", "10.00")
	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.ErrorIs(t, err, ErrPaymentNotFound)
	assert.Equal(t, OutcomeFailed, res.Outcome)

	ev, ok := store.eventByID("evt-404")
	require.True(t, ok)
	assert.Equal(t, models.WebhookEventFailed, ev.Status)
	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditPaymentNotFound))
}

func TestHandleWebhookReplayAfterPaidIsNoop(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	store.addPayment(models.PaymentMethodPSE, "tx-100", "150000.00", models.PaymentStatusPaid)
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)

	// A stale PENDING notification arrives after the payment is already PAID.
	headers, body := pseDelivery("evt-late", "tx-100", "PENDING", "150000.00")
	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.NoError(t, err)

	assert.Equal(t, OutcomeReplay, res.Outcome)
	assert.True(t, res.Ack())
	assert.Equal(t, models.PaymentStatusPaid, store.payments[models.PaymentMethodPSE+"|tx-100"].Status)
	assert.Empty(t, store.ledger)
	assert.Empty(t, notifier.calls)
	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditPaymentReplayIgnored))

	ev, ok := store.eventByID("evt-late")
	require.True(t, ok)
	assert.Equal(t, models.WebhookEventProcessed, ev.Status)
}

func TestHandleWebhookStateConflictFailsEvent(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	store.addPayment(models.PaymentMethodPSE, "tx-100", "150000.00", models.PaymentStatusFailed)
	svc := newTestService(store, nil)

	// FAILED -> REFUNDED is a genuine conflict, not a replay.
	headers, body := pseDelivery("evt-conflict", "tx-100", "OK", "150000.00")
	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditPaymentConflict))
}

func TestHandleWebhookRefundAppendsDebit(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodWompi, false, true)
	payment := store.addPayment(models.PaymentMethodWompi, "wompi-tx-1", "80000.00", models.PaymentStatusPaid)
	svc := newTestService(store, nil)

	body := []byte(`{"event":"transaction.updated","data":{"transaction":{"id":"wompi-tx-1","amount_in_cents":8000000,"reference":"ref-1","currency":"COP","status":"REFUNDED"}},"timestamp":1700000000,"signature":{"checksum":"","properties":[]}}`)
	headers := map[string]string{"X-Event-Id": "wompi-evt-9"}

	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodWompi, headers, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Outcome)
	assert.Equal(t, models.PaymentStatusRefunded, res.NewStatus)

	require.Len(t, store.ledger, 1)
	assert.Equal(t, models.LedgerEntryDebit, store.ledger[0].Type)
	assert.True(t, store.ledger[0].Amount.Equal(payment.Amount))
	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditPaymentRefunded))
}

func TestHandleWebhookUnsignedProviderIsAudited(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, false, true)
	store.addPayment(models.PaymentMethodPSE, "tx-100", "150000.00", models.PaymentStatusPending)
	svc := newTestService(store, nil)

	headers, body := pseDelivery("evt-100", "tx-100", "OK", "150000.00")
	delete(headers, "X-Pse-Signature")

	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Outcome)
	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditWebhookUnsigned))
}

func TestHandleWebhookMalformedPayloadFailsEvent(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, true)
	svc := newTestService(store, nil)

	body := []byte(`{"transaction_id":"tx-1","state":"OK","amount":"not-a-number"}`)
	headers := map[string]string{"X-Pse-Signature": pseSign(body)}

	res, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)

	// The event is recorded under the payload-hash fallback id and parked.
	require.Len(t, store.events, 1)
	for _, ev := range store.events {
		assert.Equal(t, models.WebhookEventFailed, ev.Status)
		assert.Contains(t, ev.ProviderEventID, "hash:")
	}
	assert.Equal(t, 1, countAction(store.auditActions(), models.AuditWebhookMalformed))
}

func TestHandleWebhookUnknownProvider(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	_, err := svc.HandleWebhook(context.Background(), "stripe", nil, []byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestHandleWebhookInactiveProvider(t *testing.T) {
	store := newFakeStore()
	store.addProvider(models.PaymentMethodPSE, true, false)
	svc := newTestService(store, nil)

	headers, body := pseDelivery("evt-1", "tx-1", "OK", "10.00")
	_, err := svc.HandleWebhook(context.Background(), models.PaymentMethodPSE, headers, body)
	require.ErrorIs(t, err, ErrProviderInactive)
	assert.Empty(t, store.events)
}
