package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// Entity names recorded in the audit trail.
const (
	EntityPayment      = "Payment"
	EntityWebhookEvent = "WebhookEvent"
	EntityUser         = "User"
	EntityProvider     = "PaymentProvider"
)

// metadata keys that must never reach the audit table. Matching is on key
// substrings, lowercased.
var redactedKeys = []string{
	"token",
	"secret",
	"password",
	"authorization",
	"api_key",
	"card",
	"cvv",
	"signature",
}

// NewEntry builds an audit row with redacted metadata. Actor is nil for
// system-originated actions such as webhook processing.
func NewEntry(actor *uuid.UUID, action, entity, entityID string, metadata map[string]any, ip string) (*models.AuditLogEntry, error) {
	if strings.TrimSpace(action) == "" || strings.TrimSpace(entity) == "" {
		return nil, errors.New("audit entry requires action and entity")
	}

	var meta datatypes.JSON
	if len(metadata) > 0 {
		raw, err := json.Marshal(Redact(metadata))
		if err != nil {
			return nil, fmt.Errorf("audit metadata: %w", err)
		}
		meta = datatypes.JSON(raw)
	}

	return &models.AuditLogEntry{
		ActorID:   actor,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Metadata:  meta,
		IPAddress: ip,
	}, nil
}

// Redact returns a copy of metadata with secret-like keys replaced. The
// original map is not modified.
func Redact(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if isRedactedKey(k) {
			out[k] = "[REDACTED]"
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = Redact(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func isRedactedKey(key string) bool {
	k := strings.ToLower(key)
	for _, bad := range redactedKeys {
		if strings.Contains(k, bad) {
			return true
		}
	}
	return false
}

// Recorder writes audit entries outside the webhook engine (handler-level
// actions). Inside the engine the entry is appended through the engine's own
// transaction instead, so an unauditable state change aborts entirely.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates an audit recorder backed by GORM.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record builds and persists one audit entry.
func (r *Recorder) Record(actor *uuid.UUID, action, entity, entityID string, metadata map[string]any, ip string) error {
	entry, err := NewEntry(actor, action, entity, entityID, metadata, ip)
	if err != nil {
		return err
	}
	return r.db.Create(entry).Error
}
