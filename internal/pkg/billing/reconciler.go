package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/entitlements"
)

// Outcome describes what the reconciler did with an event.
type Outcome int

const (
	// OutcomeApplied means the event advanced the account's billing state.
	OutcomeApplied Outcome = iota
	// OutcomeStale means the event's timestamp was at or below the stored
	// watermark; acknowledged, nothing changed.
	OutcomeStale
	// OutcomeIgnored means the event was authentic but not applicable
	// (staff account, or no tier change to make).
	OutcomeIgnored
	// OutcomeDuplicate means the event id was seen before and its audit
	// row shows a completed run; nothing was rerun.
	OutcomeDuplicate
)

// Reconciler is the entitlement state machine. It consumes verified
// billing events and maps them onto the account's tier/access fields
// through a single conditional atomic update per event.
type Reconciler struct {
	users    repository.UserRepository
	billing  repository.BillingRepository
	provider Provider
	log      zerolog.Logger
}

// NewReconciler creates an entitlement reconciler.
func NewReconciler(users repository.UserRepository, billing repository.BillingRepository, provider Provider, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		users:    users,
		billing:  billing,
		provider: provider,
		log:      log,
	}
}

// ProcessEvent applies one verified event. The stored watermark rejects
// stale and duplicate deliveries; the account bound to the event's
// customer id is the only account touched.
func (r *Reconciler) ProcessEvent(ctx context.Context, ev *SubscriptionEvent) (Outcome, error) {
	if ev.CustomerID == "" {
		return OutcomeIgnored, fmt.Errorf("%w: event %s carries no customer", ErrIdentityMismatch, ev.ID)
	}

	profile, err := r.billing.GetProfileByCustomerID(ev.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn().Str("event_id", ev.ID).Str("customer_id", ev.CustomerID).
				Msg("billing event for unknown customer")
			return OutcomeIgnored, fmt.Errorf("%w: customer %s", ErrIdentityMismatch, ev.CustomerID)
		}
		return OutcomeIgnored, err
	}

	// Early stale check; the conditional update below guards races.
	if ev.Timestamp <= profile.LatestWebhookTimestamp {
		return OutcomeStale, nil
	}

	accessLevel, err := r.users.GetAccessLevel(profile.UserID)
	if err != nil {
		return OutcomeIgnored, err
	}

	subscribing := ev.Type != EventSubscriptionDeleted && ev.Entitling()

	var t repository.BillingTransition
	switch {
	case subscribing:
		// Staff are exempt: billing never drives their access, and their
		// billing fields are not populated by subscription events.
		if entitlements.IsStaff(accessLevel) {
			r.log.Info().Str("event_id", ev.ID).Uint("user_id", profile.UserID).
				Msg("skipping subscription event for staff account")
			return OutcomeIgnored, nil
		}

		plan, err := r.provider.LookupPlan(ctx, ev.PriceID)
		if err != nil {
			return OutcomeIgnored, err
		}

		t = repository.BillingTransition{
			SubscriptionID: ev.SubscriptionID,
			PriceID:        ev.PriceID,
			TierName:       plan.Name,
			TierLevel:      plan.Level,
			AccessLevel:    entitlements.LevelForTier(plan.Level),
			EventTimestamp: ev.Timestamp,
		}
	default:
		// Deleted or inactive: clear the billing fields. The repository
		// only resets access_level for non-staff accounts.
		t = repository.BillingTransition{
			AccessLevel:    entitlements.LevelUser,
			EventTimestamp: ev.Timestamp,
		}
	}

	if (t.SubscriptionID != "") != (t.TierLevel > 0) {
		// Must never happen: subscription and tier fields change together.
		r.log.Error().Str("event_id", ev.ID).Uint("user_id", profile.UserID).
			Str("subscription_id", t.SubscriptionID).Int("tier_level", t.TierLevel).
			Msg("FATAL: refusing inconsistent billing transition")
		return OutcomeIgnored, ErrInconsistentState
	}

	applied, err := r.billing.ApplyTransition(profile.UserID, t)
	if err != nil {
		return OutcomeIgnored, err
	}
	if !applied {
		return OutcomeStale, nil
	}

	r.log.Info().Str("event_id", ev.ID).Str("type", ev.Type).
		Uint("user_id", profile.UserID).Int("tier_level", t.TierLevel).
		Int64("watermark", ev.Timestamp).Msg("applied billing transition")
	return OutcomeApplied, nil
}
