package payments

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// Adapter translates one provider's webhook dialect into canonical events.
// Parsing and signature verification are the only provider-specific concerns;
// everything downstream is provider-neutral.
type Adapter interface {
	// Key returns the provider key this adapter serves (models.PaymentMethod*).
	Key() string
	// VerifySignature checks the provider signature over the raw body.
	VerifySignature(rawBody []byte, headers map[string]string, secret string) bool
	// ParseEvent maps the raw payload to a canonical ProviderEvent.
	ParseEvent(rawBody []byte, headers map[string]string) (ProviderEvent, error)
}

// DefaultAdapters returns the adapter set for the supported providers.
func DefaultAdapters() map[string]Adapter {
	return map[string]Adapter{
		models.PaymentMethodPSE:   NewPSEAdapter(),
		models.PaymentMethodWompi: NewWompiAdapter(),
	}
}

// fallbackEventID derives a deterministic event id from the payload when the
// provider sent none, so redeliveries of the identical payload still dedupe.
func fallbackEventID(rawBody []byte) string {
	sum := sha256.Sum256(rawBody)
	return "hash:" + hex.EncodeToString(sum[:])
}

func headerValue(headers map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(headers[k]); v != "" {
			return v
		}
	}
	return ""
}
