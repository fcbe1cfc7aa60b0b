package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/entitlements"
)

// CheckoutInitiator starts subscription purchase flows. It writes no tier
// fields: checkout can be abandoned, so the account only transitions once
// the reconciler observes the resulting subscription event.
type CheckoutInitiator struct {
	provider Provider
	users    repository.UserRepository
	resolver *Resolver
	baseURL  string
	log      zerolog.Logger
}

// NewCheckoutInitiator creates a checkout initiator. baseURL is the public
// origin used to build the success/cancel callback targets.
func NewCheckoutInitiator(provider Provider, users repository.UserRepository, resolver *Resolver, baseURL string, log zerolog.Logger) *CheckoutInitiator {
	return &CheckoutInitiator{
		provider: provider,
		users:    users,
		resolver: resolver,
		baseURL:  baseURL,
		log:      log,
	}
}

// Begin resolves the user's customer and returns a hosted checkout URL for
// the chosen plan. Staff accounts are rejected with ErrPolicyViolation and
// nothing is mutated.
func (ci *CheckoutInitiator) Begin(ctx context.Context, userID uint, email, priceID string) (string, error) {
	accessLevel, err := ci.users.GetAccessLevel(userID)
	if err != nil {
		return "", err
	}
	if entitlements.IsStaff(accessLevel) {
		return "", ErrPolicyViolation
	}

	// Reject unknown plans before touching the customer.
	if _, err := ci.provider.LookupPlan(ctx, priceID); err != nil {
		return "", err
	}

	customerID, err := ci.resolver.Resolve(ctx, userID, email)
	if err != nil {
		return "", err
	}

	// Callback targets differ only by the outcome flag.
	successURL := fmt.Sprintf("%s/user/membership?checkout=success", ci.baseURL)
	cancelURL := fmt.Sprintf("%s/user/membership?checkout=canceled", ci.baseURL)

	url, err := ci.provider.CreateCheckoutSession(ctx, customerID, priceID, successURL, cancelURL, uuid.NewString())
	if err != nil {
		return "", err
	}

	ci.log.Info().Uint("user_id", userID).Str("price_id", priceID).
		Str("customer_id", customerID).Msg("checkout session created")
	return url, nil
}
