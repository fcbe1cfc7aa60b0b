package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/velomica/accounthub/app/models"
	"github.com/velomica/accounthub/app/repository"
)

// fakeProvider is an in-memory Provider for the billing core tests.
type fakeProvider struct {
	mu sync.Mutex

	plans     map[string]Plan
	customers map[uint]string

	createCalls   int
	canceled      []string
	cancelErr     error
	checkoutURL   string
	checkoutCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		plans:       map[string]Plan{},
		customers:   map[uint]string{},
		checkoutURL: "https://pay.example.com/cs_test",
	}
}

func (f *fakeProvider) SearchCustomerByUserID(_ context.Context, userID uint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.customers[userID]; ok {
		return id, nil
	}
	return "", ErrCustomerNotFound
}

func (f *fakeProvider) CreateCustomer(_ context.Context, userID uint, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	id := fmt.Sprintf("cus_%d", userID)
	f.customers[userID] = id
	return id, nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, _, _, _, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkoutCalls++
	return f.checkoutURL, nil
}

func (f *fakeProvider) CancelSubscription(_ context.Context, subscriptionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.canceled = append(f.canceled, subscriptionID)
	return nil
}

func (f *fakeProvider) LookupPlan(_ context.Context, priceID string) (*Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if plan, ok := f.plans[priceID]; ok {
		return &plan, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, priceID)
}

func (f *fakeProvider) VerifyWebhook(_ []byte, _ string) (*SubscriptionEvent, error) {
	return nil, ErrSignatureInvalid
}

// fakeUsers is an in-memory repository.UserRepository.
type fakeUsers struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[uint]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetByActivationToken(token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ActivationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetAccessLevel(id uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return u.AccessLevel, nil
}

func (f *fakeUsers) Update(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) List(_, _ int) ([]models.User, error) { return nil, nil }
func (f *fakeUsers) Count() (int64, error)                { return int64(len(f.users)), nil }

// fakeBilling is an in-memory repository.BillingRepository with the same
// watermark and staff-guard semantics as the GORM implementation.
type fakeBilling struct {
	mu       sync.Mutex
	users    *fakeUsers
	profiles map[uint]*models.BillingProfile
	events   map[string]*models.BillingWebhookEvent
	nextID   uint

	applyErr error
}

func newFakeBilling(users *fakeUsers) *fakeBilling {
	return &fakeBilling{
		users:    users,
		profiles: map[uint]*models.BillingProfile{},
		events:   map[string]*models.BillingWebhookEvent{},
	}
}

func (f *fakeBilling) GetOrCreateProfile(userID uint) (*models.BillingProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	f.nextID++
	p := &models.BillingProfile{ID: f.nextID, UserID: userID}
	f.profiles[userID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeBilling) GetProfile(userID uint) (*models.BillingProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeBilling) GetProfileByCustomerID(customerID string) (*models.BillingProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.CustomerID == customerID && customerID != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBilling) SetCustomer(userID uint, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		f.nextID++
		p = &models.BillingProfile{ID: f.nextID, UserID: userID}
		f.profiles[userID] = p
	}
	if p.CustomerID == customerID {
		return nil
	}
	if p.CustomerID != "" {
		return repository.ErrCustomerConflict
	}
	p.CustomerID = customerID
	p.LatestWebhookTimestamp = 0
	return nil
}

func (f *fakeBilling) ApplyTransition(userID uint, t repository.BillingTransition) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return false, f.applyErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if p.LatestWebhookTimestamp >= t.EventTimestamp {
		return false, nil
	}
	p.SubscriptionID = t.SubscriptionID
	p.PriceID = t.PriceID
	p.TierName = t.TierName
	p.TierLevel = t.TierLevel
	p.LatestWebhookTimestamp = t.EventTimestamp

	f.users.mu.Lock()
	if u, ok := f.users.users[userID]; ok && u.AccessLevel < 2 {
		u.AccessLevel = t.AccessLevel
	}
	f.users.mu.Unlock()
	return true, nil
}

func (f *fakeBilling) RecordWebhookEvent(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.events[event.ProviderEventID]; ok {
		cp := *stored
		return false, &cp, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.events[event.ProviderEventID] = event
	cp := *event
	return true, &cp, nil
}

func (f *fakeBilling) MarkWebhookProcessed(id uint, processingError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
