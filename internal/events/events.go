// Package events records billing events in a transactional outbox.
package events

// EventEntitlementUpdated is recorded whenever a reconciled payment
// event changes a customer's plan or limit.
const EventEntitlementUpdated = "entitlement.updated"

// EntitlementUpdatedPayload captures the minimal data downstream
// consumers need about an entitlement change.
type EntitlementUpdatedPayload struct {
	CustomerID   string `json:"customer_id"`
	Plan         string `json:"plan"`
	MessageLimit int64  `json:"message_limit"`
	MessagesUsed int64  `json:"messages_used"`
	PriceID      string `json:"price_id,omitempty"`
	EventID      string `json:"event_id,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p EntitlementUpdatedPayload) ToMap() map[string]any {
	payload := map[string]any{
		"customer_id":   p.CustomerID,
		"plan":          p.Plan,
		"message_limit": p.MessageLimit,
		"messages_used": p.MessagesUsed,
	}
	if p.PriceID != "" {
		payload["price_id"] = p.PriceID
	}
	if p.EventID != "" {
		payload["event_id"] = p.EventID
	}
	return payload
}
