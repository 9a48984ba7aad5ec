package repository

import "context"

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on a specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs a function within a database transaction.
	// If the function returns an error, the transaction is rolled back. Otherwise, it's committed.
	// All repository operations within the function will use the same database transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides a way to get repository instances that are bound to a specific transaction.
// A balance change and its ledger row must be written through repositories from the same factory.
type RepositoryFactory interface {
	// ProfileRepo returns a LoyaltyProfileRepository bound to the current transaction.
	ProfileRepo() LoyaltyProfileRepository

	// RuleRepo returns a LoyaltyRuleRepository bound to the current transaction.
	RuleRepo() LoyaltyRuleRepository

	// RewardRepo returns a RewardRepository bound to the current transaction.
	RewardRepo() RewardRepository

	// RedemptionRepo returns a RedemptionRepository bound to the current transaction.
	RedemptionRepo() RedemptionRepository

	// LedgerRepo returns a PointTransactionRepository bound to the current transaction.
	LedgerRepo() PointTransactionRepository
}
