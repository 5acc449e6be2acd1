package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
	"github.com/aseguraplus/SeguroPay/internal/pkg/audit"
	"github.com/aseguraplus/SeguroPay/internal/pkg/ledger"
)

const defaultHandleTimeout = 15 * time.Second

// Notifier is told about settled PAID/FAILED outcomes after commit. It only
// carries references; delivery itself is an external collaborator.
type Notifier interface {
	EnqueuePaymentOutcome(ctx context.Context, paymentID, userID uuid.UUID, status string) error
}

// Service is the reconciliation/idempotency controller: it owns the single
// transaction in which an inbound webhook event is recorded, the payment is
// advanced, ledger entries are appended and the audit trail is written.
type Service struct {
	repo     Repository
	adapters map[string]Adapter
	notifier Notifier
	timeout  time.Duration
}

// NewService creates a webhook service from injected collaborators. notifier
// may be nil; outcomes are then not announced.
func NewService(repo Repository, adapters map[string]Adapter, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		adapters: adapters,
		notifier: notifier,
		timeout:  defaultHandleTimeout,
	}
}

// NewServiceFromDB creates a webhook service with the default provider
// adapters from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, notifier Notifier) *Service {
	return NewService(NewRepository(db), DefaultAdapters(), notifier)
}

// HandleWebhook processes one provider delivery end to end. It is safe to
// call concurrently for the same delivery: the unique event row decides the
// race, losers observe the winner's row and ack without side effects.
func (s *Service) HandleWebhook(ctx context.Context, providerKey string, headers map[string]string, rawBody []byte) (Result, error) {
	adapter, ok := s.adapters[strings.ToUpper(strings.TrimSpace(providerKey))]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownProvider, providerKey)
	}

	cfg, err := s.repo.GetProvider(adapter.Key())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, fmt.Errorf("%w: %q has no configuration", ErrUnknownProvider, providerKey)
		}
		return Result{}, err
	}
	if !cfg.IsActive {
		return Result{}, fmt.Errorf("%w: %q", ErrProviderInactive, providerKey)
	}

	// Signature first: a delivery that fails verification changes no state at
	// all, not even event bookkeeping.
	unsignedAccepted := false
	if cfg.SigningRequired {
		if !adapter.VerifySignature(rawBody, headers, cfg.WebhookSecret) {
			return Result{}, ErrInvalidSignature
		}
	} else {
		// Explicit, audited exception for providers without signing support.
		unsignedAccepted = true
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	event, parseErr := adapter.ParseEvent(rawBody, headers)
	if parseErr != nil {
		return s.settleFailure(ctx, &models.WebhookEvent{
			Provider:        adapter.Key(),
			ProviderEventID: fallbackEventID(rawBody),
			RawPayload:      rawBody,
		}, uuid.Nil, models.AuditWebhookMalformed, parseErr)
	}

	row := &models.WebhookEvent{
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		RawPayload:      rawBody,
	}

	var res Result
	txErr := s.repo.InTransaction(ctx, func(tx TxRepository) error {
		created, stored, err := tx.CreateEventIfNotExists(row)
		if err != nil {
			return err
		}
		res.EventID = stored.ID

		if !created && stored.Status == models.WebhookEventProcessed {
			// Idempotency fast path: already done, side effects must not rerun.
			res.Outcome = OutcomeDuplicate
			return nil
		}
		if !created && stored.Status == models.WebhookEventFailed {
			// Terminal logical failures are never retried by redelivery; the
			// event stays parked for manual reconciliation.
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("event previously failed: %s", stored.LastError)
			return nil
		}

		if unsignedAccepted {
			entry, err := audit.NewEntry(nil, models.AuditWebhookUnsigned, audit.EntityWebhookEvent,
				fmt.Sprintf("%d", stored.ID), map[string]any{
					"provider":          event.Provider,
					"provider_event_id": event.ProviderEventID,
				}, "")
			if err != nil {
				return err
			}
			if err := tx.AppendAuditEntry(entry); err != nil {
				return err
			}
		}

		payment, err := tx.GetPaymentForUpdate(event.Provider, event.ProviderTransaction)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s/%s", ErrPaymentNotFound, event.Provider, event.ProviderTransaction)
			}
			return err
		}
		res.PaymentID = payment.ID
		res.UserID = payment.UserID

		transition, err := ApplyProviderEvent(payment, event)
		if err != nil {
			return err
		}

		if transition.Noop {
			entry, err := audit.NewEntry(nil, models.AuditPaymentReplayIgnored, audit.EntityPayment,
				payment.ID.String(), map[string]any{
					"provider_event_id": event.ProviderEventID,
					"current_status":    payment.Status,
					"reported_status":   event.ReportedStatus,
				}, "")
			if err != nil {
				return err
			}
			if err := tx.AppendAuditEntry(entry); err != nil {
				return err
			}
			if err := tx.MarkEventSettled(stored.ID, models.WebhookEventProcessed, ""); err != nil {
				return err
			}
			res.Outcome = OutcomeReplay
			res.NewStatus = payment.Status
			return nil
		}

		if err := tx.SavePayment(payment); err != nil {
			return err
		}

		if transition.CreditLedger {
			entry, err := ledger.NewEntry(payment.UserID, models.LedgerEntryCredit, payment.Amount,
				"payment confirmed", payment.ID.String())
			if err != nil {
				return err
			}
			if err := tx.AppendLedgerEntry(entry); err != nil {
				return err
			}
		}
		if transition.DebitLedger {
			// Refunds reverse with a new DEBIT entry; history stays intact.
			entry, err := ledger.NewEntry(payment.UserID, models.LedgerEntryDebit, payment.Amount,
				"payment refunded", payment.ID.String())
			if err != nil {
				return err
			}
			if err := tx.AppendLedgerEntry(entry); err != nil {
				return err
			}
		}

		auditEntry, err := audit.NewEntry(nil, transitionAuditAction(transition.To), audit.EntityPayment,
			payment.ID.String(), map[string]any{
				"provider":          event.Provider,
				"provider_event_id": event.ProviderEventID,
				"from_status":       transition.From,
				"to_status":         transition.To,
				"amount":            payment.Amount.StringFixed(2),
				"currency":          payment.Currency,
			}, "")
		if err != nil {
			return err
		}
		if err := tx.AppendAuditEntry(auditEntry); err != nil {
			return err
		}

		if err := tx.MarkEventSettled(stored.ID, models.WebhookEventProcessed, ""); err != nil {
			return err
		}

		res.Outcome = OutcomeProcessed
		res.NewStatus = payment.Status
		return nil
	})

	if txErr != nil {
		if IsTerminalFailure(txErr) {
			return s.settleFailure(ctx, row, res.PaymentID, failureAuditAction(txErr), txErr)
		}
		// Transient infrastructure failure: everything rolled back, the
		// provider is asked to redeliver.
		return Result{}, txErr
	}

	s.announce(res)
	return res, res.Err
}

// settleFailure preserves the fact that a terminally failed delivery was
// attempted. It runs after the main transaction rolled back, in its own
// transaction, so a permanently broken event surfaces to operators instead of
// silently retrying forever.
func (s *Service) settleFailure(ctx context.Context, row *models.WebhookEvent, paymentID uuid.UUID, action string, failure error) (Result, error) {
	entity := audit.EntityWebhookEvent
	entityID := row.ProviderEventID
	if paymentID != uuid.Nil {
		entity = audit.EntityPayment
		entityID = paymentID.String()
	}
	entry, err := audit.NewEntry(nil, action, entity, entityID, map[string]any{
		"provider":          row.Provider,
		"provider_event_id": row.ProviderEventID,
		"error":             failure.Error(),
	}, "")
	if err != nil {
		return Result{}, err
	}

	// The handler budget may already be exhausted; give bookkeeping its own
	// small budget so the failure record is not lost to the same timeout.
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repo.SettleFailedEvent(settleCtx, row, failure, entry); err != nil {
		log.Errorf("[payments] failed to settle failed event %s/%s: %v", row.Provider, row.ProviderEventID, err)
		return Result{}, err
	}
	return Result{Outcome: OutcomeFailed, PaymentID: paymentID, Err: failure}, failure
}

// announce enqueues post-commit notifications for settled outcomes. Errors
// are logged only: notification delivery is at-least-once via the queue, and
// must never affect the committed transaction.
func (s *Service) announce(res Result) {
	if s.notifier == nil || res.Outcome != OutcomeProcessed {
		return
	}
	if res.NewStatus != models.PaymentStatusPaid && res.NewStatus != models.PaymentStatusFailed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.notifier.EnqueuePaymentOutcome(ctx, res.PaymentID, res.UserID, res.NewStatus); err != nil {
		log.Errorf("[payments] failed to enqueue outcome for payment %s: %v", res.PaymentID, err)
	}
}

func transitionAuditAction(to string) string {
	switch to {
	case models.PaymentStatusPaid:
		return models.AuditPaymentConfirmed
	case models.PaymentStatusFailed:
		return models.AuditPaymentFailed
	case models.PaymentStatusCanceled:
		return models.AuditPaymentCanceled
	case models.PaymentStatusRefunded:
		return models.AuditPaymentRefunded
	default:
		return models.AuditPaymentPending
	}
}

func failureAuditAction(err error) string {
	switch {
	case errors.Is(err, ErrAmountMismatch):
		return models.AuditPaymentAmountMismatch
	case errors.Is(err, ErrPaymentNotFound):
		return models.AuditPaymentNotFound
	case errors.Is(err, ErrIllegalTransition):
		return models.AuditPaymentConflict
	default:
		return models.AuditPaymentFailed
	}
}
