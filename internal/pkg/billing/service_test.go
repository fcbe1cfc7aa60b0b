package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velomica/accounthub/app/models"
)

func newServiceFixture(t *testing.T, user *models.User) (*Service, *fakeUsers, *fakeBilling) {
	t.Helper()
	users := newFakeUsers(user)
	billing := newFakeBilling(users)
	provider := newFakeProvider()
	provider.plans["price_gold"] = Plan{PriceID: "price_gold", Name: "Gold", Level: 2}

	svc := &Service{
		Provider:   provider,
		Reconciler: NewReconciler(users, billing, provider, zerolog.Nop()),
		repo:       billing,
	}
	return svc, users, billing
}

// A redelivery of an event whose first run failed must run the reconciler
// again. The audit row alone is not a reason to answer "duplicate".
func TestHandleEventRedeliveryAfterFailureIsReprocessed(t *testing.T) {
	user := &models.User{ID: 7, AccessLevel: 0}
	svc, users, billing := newServiceFixture(t, user)
	require.NoError(t, billing.SetCustomer(7, "cus_1"))

	ev := subscriptionEvent("evt_1", 100, EventSubscriptionCreated, StatusActive)

	billing.applyErr = errors.New("deadlock")
	_, err := svc.HandleEvent(context.Background(), ev)
	require.Error(t, err)

	stored, ok := billing.events["evt_1"]
	require.True(t, ok)
	assert.False(t, stored.Processed())

	billing.applyErr = nil
	outcome, err := svc.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	profile, err := billing.GetProfile(7)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", profile.SubscriptionID)
	assert.Equal(t, 2, profile.TierLevel)
	assert.Equal(t, int64(100), profile.LatestWebhookTimestamp)

	level, err := users.GetAccessLevel(7)
	require.NoError(t, err)
	assert.Equal(t, 1, level)
}

func TestHandleEventRedeliveryAfterSuccessIsDuplicate(t *testing.T) {
	user := &models.User{ID: 7, AccessLevel: 0}
	svc, _, billing := newServiceFixture(t, user)
	require.NoError(t, billing.SetCustomer(7, "cus_1"))

	ev := subscriptionEvent("evt_1", 100, EventSubscriptionCreated, StatusActive)

	outcome, err := svc.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	outcome, err = svc.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
}

// Unknown-customer events are recorded with their error so operators can
// inspect them, and redeliveries keep getting the same answer.
func TestHandleEventRecordsIdentityMismatch(t *testing.T) {
	user := &models.User{ID: 7, AccessLevel: 0}
	svc, _, billing := newServiceFixture(t, user)

	ev := subscriptionEvent("evt_1", 100, EventSubscriptionCreated, StatusActive)

	outcome, err := svc.HandleEvent(context.Background(), ev)
	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Equal(t, OutcomeIgnored, outcome)

	stored, ok := billing.events["evt_1"]
	require.True(t, ok)
	assert.False(t, stored.Processed())
	assert.Contains(t, stored.ProcessingError, "cus_1")
}
