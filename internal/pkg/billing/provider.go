package billing

import "context"

// Provider is the interface to the external recurring-billing system. The
// Stripe implementation lives in stripe.go; tests inject fakes.
type Provider interface {
	// SearchCustomerByUserID finds the customer tagged with the given user
	// id in its metadata. Returns ErrCustomerNotFound when absent.
	SearchCustomerByUserID(ctx context.Context, userID uint) (string, error)

	// CreateCustomer creates a customer tagged with the user id and
	// returns the new customer id.
	CreateCustomer(ctx context.Context, userID uint, email string) (string, error)

	// CreateCheckoutSession starts a subscription-mode checkout for one
	// line item and returns the hosted checkout URL.
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL, clientReferenceID string) (string, error)

	// CancelSubscription cancels the subscription immediately.
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// LookupPlan resolves a price id to its metadata-declared tier.
	// Returns ErrUnknownPlan when the price carries no tier metadata.
	LookupPlan(ctx context.Context, priceID string) (*Plan, error)

	// VerifyWebhook authenticates a signed event payload within a bounded
	// timestamp-tolerance window and returns the normalized event.
	// Returns ErrSignatureInvalid on authentication failure and a nil
	// event for authentic payloads the reconciler does not act on.
	VerifyWebhook(payload []byte, signature string) (*SubscriptionEvent, error)
}
