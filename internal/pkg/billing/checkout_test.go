package billing

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velomica/accounthub/app/models"
)

func newCheckoutFixture(t *testing.T, user *models.User) (*CheckoutInitiator, *fakeProvider, *fakeBilling) {
	t.Helper()
	users := newFakeUsers(user)
	billing := newFakeBilling(users)
	provider := newFakeProvider()
	provider.plans["price_gold"] = Plan{PriceID: "price_gold", Name: "Gold", Level: 2}

	resolver := NewResolver(provider, billing, zerolog.Nop())
	ci := NewCheckoutInitiator(provider, users, resolver, "https://hub.example.com", zerolog.Nop())
	return ci, provider, billing
}

func TestBeginReturnsCheckoutURL(t *testing.T) {
	ci, provider, billing := newCheckoutFixture(t, &models.User{ID: 3, AccessLevel: 0})

	url, err := ci.Begin(context.Background(), 3, "kim@example.com", "price_gold")
	require.NoError(t, err)
	assert.Equal(t, provider.checkoutURL, url)
	assert.Equal(t, 1, provider.checkoutCalls)

	// The customer is bound but no tier fields are written before the
	// provider confirms the subscription.
	profile, err := billing.GetProfile(3)
	require.NoError(t, err)
	assert.Equal(t, "cus_3", profile.CustomerID)
	assert.Empty(t, profile.SubscriptionID)
	assert.Zero(t, profile.TierLevel)
}

func TestBeginRejectsStaff(t *testing.T) {
	ci, provider, billing := newCheckoutFixture(t, &models.User{ID: 3, AccessLevel: 2})

	_, err := ci.Begin(context.Background(), 3, "kim@example.com", "price_gold")
	assert.ErrorIs(t, err, ErrPolicyViolation)

	// Nothing was mutated, not even a customer binding.
	assert.Zero(t, provider.createCalls)
	assert.Zero(t, provider.checkoutCalls)
	_, err = billing.GetProfile(3)
	assert.Error(t, err)
}

func TestBeginRejectsUnknownPlan(t *testing.T) {
	ci, provider, billing := newCheckoutFixture(t, &models.User{ID: 3, AccessLevel: 0})

	_, err := ci.Begin(context.Background(), 3, "kim@example.com", "price_untagged")
	assert.ErrorIs(t, err, ErrUnknownPlan)

	assert.Zero(t, provider.createCalls)
	assert.Zero(t, provider.checkoutCalls)
	_, err = billing.GetProfile(3)
	assert.Error(t, err)
}
