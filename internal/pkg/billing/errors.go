package billing

import "errors"

var (
	// ErrPolicyViolation is returned when a staff account attempts a
	// purchase. Never retried; reported to the caller.
	ErrPolicyViolation = errors.New("staff accounts are exempt from billing and cannot purchase a tier")

	// ErrIdentityMismatch is returned when an event references a customer
	// id that no local account is bound to.
	ErrIdentityMismatch = errors.New("event customer does not match any stored customer")

	// ErrSignatureInvalid is returned when webhook signature verification
	// fails. Hard rejection; the event must not be acknowledged.
	ErrSignatureInvalid = errors.New("invalid webhook signature")

	// ErrInvalidPayload is returned when an authentically signed webhook
	// carries a body that cannot be decoded. Acknowledged with a client
	// error; redelivering the same bytes cannot succeed.
	ErrInvalidPayload = errors.New("malformed webhook payload")

	// ErrProviderUnavailable wraps network/API failures talking to the
	// billing provider. Retryable by the caller; no local state changed.
	ErrProviderUnavailable = errors.New("billing provider unavailable")

	// ErrCustomerNotFound is returned by customer search when no customer
	// is tagged with the user id.
	ErrCustomerNotFound = errors.New("customer not found in billing provider")

	// ErrUnknownPlan is returned when a price id cannot be resolved to a
	// configured tier.
	ErrUnknownPlan = errors.New("plan is not configured as a tier")

	// ErrInconsistentState signals a violated subscription/tier pairing.
	// Fatal-logged, never auto-repaired.
	ErrInconsistentState = errors.New("billing state inconsistent: subscription and tier fields disagree")
)
