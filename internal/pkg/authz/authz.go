package authz

import "github.com/aseguraplus/SeguroPay/app/models"

// Actions checked by the HTTP layer.
const (
	ActionViewPayment       = "payment:view"
	ActionListPayments      = "payment:list"
	ActionViewBalance       = "balance:view"
	ActionViewLedger        = "ledger:view"
	ActionViewAuditTrail    = "audit:view"
	ActionListFailedEvents  = "webhook_event:list_failed"
	ActionReplayEvent       = "webhook_event:replay"
	ActionManageProviders   = "provider:manage"
	ActionRefreshProjection = "balance:refresh"
)

// ownScoped actions are available to clients on their own resources only.
var ownScoped = map[string]bool{
	ActionViewPayment:  true,
	ActionListPayments: true,
	ActionViewBalance:  true,
	ActionViewLedger:   true,
}

// readOnly actions are available to the oversight roles on any resource.
var readOnly = map[string]bool{
	ActionViewPayment:      true,
	ActionListPayments:     true,
	ActionViewBalance:      true,
	ActionViewLedger:       true,
	ActionViewAuditTrail:   true,
	ActionListFailedEvents: true,
}

// Can reports whether the given role may perform action. ownsResource must be
// true when the subject of the request is the caller's own record; it is
// ignored for the roles that see everything.
func Can(role, action string, ownsResource bool) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleInterventoria, models.RoleSupervisor:
		// Oversight roles audit and inspect but never mutate.
		return readOnly[action]
	case models.RoleClient:
		return ownScoped[action] && ownsResource
	default:
		return false
	}
}
