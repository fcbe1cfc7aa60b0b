package billing

// Event types emitted by the provider, normalized to the subset the
// reconciler acts on.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Subscription statuses that confer entitlement.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	StatusPastDue  = "past_due"
)

// SubscriptionEvent is a verified, normalized billing event. Timestamp is
// the provider-side creation time in unix seconds and drives the ordering
// watermark.
type SubscriptionEvent struct {
	ID             string
	Type           string
	CustomerID     string
	SubscriptionID string
	PriceID        string
	Status         string
	Timestamp      int64
	Raw            []byte
}

// Entitling reports whether the event's subscription status confers access.
func (e *SubscriptionEvent) Entitling() bool {
	switch e.Status {
	case StatusActive, StatusTrialing, StatusPastDue:
		return true
	default:
		return false
	}
}

// Plan is a purchasable tier as declared in the provider's price metadata.
type Plan struct {
	PriceID string
	Name    string
	Level   int
}
