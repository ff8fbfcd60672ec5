package testutil

import (
	"encoding/json"
	"fmt"
	"testing"
)

// Status payloads using the default code table, one per stage.

// EntryFormJSON has no entries and the needs-entry primary code.
var EntryFormJSON = `{"primaryCode": 1, "listEntries": []}`

// RiskCountdownJSON holds the application for 45 seconds.
var RiskCountdownJSON = `{"primaryCode": 2, "listEntries": [
  {"id": "app-1", "productName": "Cash Plus", "subStatus": {"status": 0, "secondary": 1, "countdownSeconds": 45}}
]}`

// AuditPendingJSON is under review with a 30 second retry interval.
var AuditPendingJSON = `{"primaryCode": 3, "listEntries": [
  {"id": "app-1", "productName": "Cash Plus", "subStatus": {"status": 1, "retryIntervalSeconds": 30}}
]}`

// AuditPendingNoRefreshJSON is under review with the no-auto-refresh sentinel.
var AuditPendingNoRefreshJSON = `{"primaryCode": 3, "listEntries": [
  {"id": "app-1", "subStatus": {"status": 2, "retryIntervalSeconds": -1}}
]}`

// PendingReviewJSON is a rejection still pending manual review.
var PendingReviewJSON = `{"listEntries": [
  {"id": "app-1", "subStatus": {"status": 3, "secondary": 0, "retryIntervalSeconds": 15}}
]}`

// FinalRejectedJSON is a final rejection.
var FinalRejectedJSON = `{"listEntries": [
  {"id": "app-1", "subStatus": {"status": 3}}
]}`

// RetryableRejectedJSON is a rejection that may be retried after a date.
var RetryableRejectedJSON = `{"listEntries": [
  {"id": "app-1", "subStatus": {"status": 3, "secondary": 2, "retryAfterDate": "2026-11-01"}}
]}`

// TermsUnconfirmedJSON awaits loan terms confirmation, using flattened fields.
var TermsUnconfirmedJSON = `{"listEntries": [
  {"id": "app-1", "status": 0, "secondary": 0,
   "loanView": {"orderId": "ord-9", "amount": "500.00", "repayAmount": "560.00", "termDays": 14}}
]}`

// DisbursingJSON is in a repayment period with funds being sent.
var DisbursingJSON = `{"listEntries": [
  {"id": "app-1", "repaymentGate": true, "repaymentSubStatus": {"status": "disbursing"}}
]}`

// PaymentJSON is an active loan in repayment.
var PaymentJSON = `{"listEntries": [
  {"id": "app-1", "productName": "Cash Plus", "repaymentGate": true, "overdue": true,
   "repaymentSubStatus": {"status": "repaying"},
   "loanView": {"orderId": "ord-9", "repayAmount": "560.00", "dueDate": "2026-11-15"}}
]}`

// ProductListJSON short-circuits to the product list.
var ProductListJSON = `{"primaryCode": 10, "listEntries": [
  {"id": "p-1", "productName": "Cash Plus"},
  {"id": "p-2", "productName": "Cash Max", "locked": true}
]}`

// IDRejectedJSON short-circuits to an identity document rejection.
var IDRejectedJSON = `{"primaryCode": 5, "listEntries": [{"id": "app-1", "subStatus": {"status": 1}}]}`

// UnknownJSON carries a primary code outside the table.
var UnknownJSON = `{"primaryCode": 99}`

// Payload decodes a JSON fixture into a generic map. The result is assignable
// to status.RawPayload.
func Payload(t testing.TB, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return m
}

// RiskCountdownPayload builds a risk countdown payload. A negative seconds
// value omits the countdown field.
func RiskCountdownPayload(seconds int) map[string]any {
	sub := map[string]any{"status": 0.0, "secondary": 1.0}
	if seconds >= 0 {
		sub["countdownSeconds"] = float64(seconds)
	}
	return entryPayload(sub)
}

// AuditPendingPayload builds an under-review payload with the given retry
// interval.
func AuditPendingPayload(interval int) map[string]any {
	return entryPayload(map[string]any{"status": 1.0, "retryIntervalSeconds": float64(interval)})
}

// TermsUnconfirmedPayload builds a payload that needs no auto refresh.
func TermsUnconfirmedPayload() map[string]any {
	return entryPayload(map[string]any{"status": 0.0, "secondary": 0.0})
}

func entryPayload(sub map[string]any) map[string]any {
	return map[string]any{
		"listEntries": []any{
			map[string]any{"id": "app-1", "subStatus": sub},
		},
	}
}

// MustJSON marshals v or panics. For building fixtures inline.
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal fixture: %v", err))
	}
	return string(data)
}
