package billing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/entitlements"
)

// UnsubscribeHandler is the user-initiated cancellation path. After the
// provider confirms the cancellation it applies the unsubscribed
// transition immediately instead of waiting for the asynchronous deletion
// event; the later event finds the watermark already advanced and is a
// no-op.
type UnsubscribeHandler struct {
	provider Provider
	billing  repository.BillingRepository
	now      func() time.Time
	log      zerolog.Logger
}

// NewUnsubscribeHandler creates an unsubscribe handler.
func NewUnsubscribeHandler(provider Provider, billing repository.BillingRepository, log zerolog.Logger) *UnsubscribeHandler {
	return &UnsubscribeHandler{
		provider: provider,
		billing:  billing,
		now:      time.Now,
		log:      log,
	}
}

// Unsubscribe cancels the user's active subscription. With no active
// subscription it is an idempotent no-op; the returned bool reports
// whether a cancellation actually happened. Provider failure leaves local
// state untouched and surfaces as a retryable error.
func (h *UnsubscribeHandler) Unsubscribe(ctx context.Context, userID uint) (bool, error) {
	profile, err := h.billing.GetProfile(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !profile.Subscribed() {
		return false, nil
	}

	if err := h.provider.CancelSubscription(ctx, profile.SubscriptionID); err != nil {
		return false, err
	}

	applied, err := h.billing.ApplyTransition(userID, repository.BillingTransition{
		AccessLevel:    entitlements.LevelUser,
		EventTimestamp: h.now().Unix(),
	})
	if err != nil {
		return true, err
	}
	if !applied {
		// A newer event already moved the account past this point.
		h.log.Info().Uint("user_id", userID).Msg("unsubscribe superseded by newer billing event")
		return true, nil
	}

	h.log.Info().Uint("user_id", userID).Str("subscription_id", profile.SubscriptionID).
		Msg("subscription canceled")
	return true, nil
}
