package repositories

import "context"

// Store gives transactional access to every repository. A Store handed to the
// callback of ExecuteInTransaction is bound to that transaction.
type Store interface {
	Users() UserRepository
	Properties() PropertyRepository
	OTPCodes() OTPRepository
	Keywords() KeywordRepository
	ComplianceFlags() ComplianceFlagRepository
	Transactions() TransactionRepository
	Catalog() CatalogRepository
	Ads() AdRepository
	Settings() SettingsRepository

	ExecuteInTransaction(ctx context.Context, fn func(tx Store) error) error
}
