package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/velomica/accounthub/app/models"
	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/env"
)

// Service bundles the billing components behind one injectable handle.
// Everything is explicitly constructed; there is no package-level client.
type Service struct {
	Provider    Provider
	Resolver    *Resolver
	Reconciler  *Reconciler
	Checkout    *CheckoutInitiator
	Unsubscribe *UnsubscribeHandler

	repo repository.BillingRepository
}

// NewService wires the billing components onto the given provider and
// repositories. baseURL is the public origin for checkout callbacks.
func NewService(provider Provider, repos *repository.Repositories, baseURL string, log zerolog.Logger) *Service {
	resolver := NewResolver(provider, repos.Billing, log)
	return &Service{
		Provider:    provider,
		Resolver:    resolver,
		Reconciler:  NewReconciler(repos.User, repos.Billing, provider, log),
		Checkout:    NewCheckoutInitiator(provider, repos.User, resolver, baseURL, log),
		Unsubscribe: NewUnsubscribeHandler(provider, repos.Billing, log),
		repo:        repos.Billing,
	}
}

// NewServiceFromDB builds a Stripe-backed service from environment
// configuration and a DB handle.
func NewServiceFromDB(db *gorm.DB, log zerolog.Logger) (*Service, error) {
	provider, err := NewStripeProvider(
		env.GetEnv("STRIPE_SECRET_KEY", ""),
		env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		log,
	)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}

	return NewService(provider, repository.NewRepositories(db), base, log), nil
}

// HandleEvent records one verified event and runs the reconciler on it.
// A redelivery is only answered as a duplicate when the stored audit row
// shows a completed run; after a failed run the redelivery is reconciled
// again, which the watermark keeps idempotent. Audit-row dedup on its own
// is never a reason to skip reconciling.
func (s *Service) HandleEvent(ctx context.Context, ev *SubscriptionEvent) (Outcome, error) {
	created, stored, err := s.RecordWebhookEvent(ev)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("recording webhook event %s: %w", ev.ID, err)
	}
	if !created && stored.Processed() {
		return OutcomeDuplicate, nil
	}

	outcome, procErr := s.Reconciler.ProcessEvent(ctx, ev)
	_ = s.MarkWebhookProcessed(stored.ID, procErr)
	return outcome, procErr
}

// RecordWebhookEvent persists a received event for auditing, keyed by
// provider event id. Returns whether the row is new.
func (s *Service) RecordWebhookEvent(ev *SubscriptionEvent) (bool, *models.BillingWebhookEvent, error) {
	return s.repo.RecordWebhookEvent(&models.BillingWebhookEvent{
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		CustomerID:      ev.CustomerID,
		EventTimestamp:  ev.Timestamp,
		PayloadJSON:     string(ev.Raw),
	})
}

// MarkWebhookProcessed stores the processing outcome on the audit row.
func (s *Service) MarkWebhookProcessed(id uint, processingErr error) error {
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(id, msg)
}

// Profile returns the user's billing sub-record, creating it lazily.
func (s *Service) Profile(userID uint) (*models.BillingProfile, error) {
	return s.repo.GetOrCreateProfile(userID)
}
