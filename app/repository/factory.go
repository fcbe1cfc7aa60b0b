package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles all repository implementations.
type Repositories struct {
	User          UserRepository
	Billing       BillingRepository
	LinkedAccount LinkedAccountRepository
	Mii           MiiRepository
}

// NewRepositories creates all repositories on a shared DB handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Billing:       NewBillingRepository(db),
		LinkedAccount: NewLinkedAccountRepository(db),
		Mii:           NewMiiRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetBillingRepository returns the billing repository instance
func (f *Factory) GetBillingRepository() BillingRepository {
	return f.GetRepositories().Billing
}

// GetLinkedAccountRepository returns the linked account repository instance
func (f *Factory) GetLinkedAccountRepository() LinkedAccountRepository {
	return f.GetRepositories().LinkedAccount
}

// GetMiiRepository returns the Mii repository instance
func (f *Factory) GetMiiRepository() MiiRepository {
	return f.GetRepositories().Mii
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
