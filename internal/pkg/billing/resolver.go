package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/velomica/accounthub/app/repository"
)

// Resolver maps internal user ids to billing-provider customer ids,
// creating a customer on first use. Concurrent resolutions for the same
// user are collapsed onto one flight so a user never ends up with two
// customers; the provider-side metadata search covers resolutions racing
// across processes.
type Resolver struct {
	provider Provider
	repo     repository.BillingRepository
	group    singleflight.Group
	log      zerolog.Logger
}

// NewResolver creates a customer resolver.
func NewResolver(provider Provider, repo repository.BillingRepository, log zerolog.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		repo:     repo,
		log:      log,
	}
}

// Resolve returns the billing customer id for a user, creating and
// persisting one if absent. Either the returned id is persisted on the
// account, or an error is returned and nothing was committed locally.
func (r *Resolver) Resolve(ctx context.Context, userID uint, email string) (string, error) {
	v, err, _ := r.group.Do(fmt.Sprintf("resolve:%d", userID), func() (interface{}, error) {
		return r.resolve(ctx, userID, email)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Resolver) resolve(ctx context.Context, userID uint, email string) (string, error) {
	profile, err := r.repo.GetOrCreateProfile(userID)
	if err != nil {
		return "", err
	}
	if profile.CustomerID != "" {
		return profile.CustomerID, nil
	}

	customerID, err := r.provider.SearchCustomerByUserID(ctx, userID)
	if errors.Is(err, ErrCustomerNotFound) {
		customerID, err = r.provider.CreateCustomer(ctx, userID, email)
		if err == nil {
			r.log.Info().Uint("user_id", userID).Str("customer_id", customerID).
				Msg("created billing customer")
		}
	}
	if err != nil {
		return "", err
	}

	if err := r.repo.SetCustomer(userID, customerID); err != nil {
		if errors.Is(err, repository.ErrCustomerConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent resolution in another process won the bind;
			// use whatever is now persisted.
			if stored, readErr := r.repo.GetProfile(userID); readErr == nil && stored.CustomerID != "" {
				return stored.CustomerID, nil
			}
		}
		return "", err
	}

	return customerID, nil
}
