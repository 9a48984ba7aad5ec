package postgres

import (
	"context"

	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/errors"

	"gorm.io/gorm"
)

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db *gorm.DB
}

// gormRepositoryFactory implements the domain's RepositoryFactory interface.
// It holds a specific GORM transaction object and uses it to create
// repository instances that are bound to that single transaction.
type gormRepositoryFactory struct {
	tx *gorm.DB // In GORM, a transaction object is also a *gorm.DB
}

// NewRepositoryFactory binds repositories to db outside of any explicit transaction.
// Read-only paths use it so they share the transactional code paths.
func NewRepositoryFactory(db *gorm.DB) repository.RepositoryFactory {
	return &gormRepositoryFactory{tx: db}
}

// ProfileRepo returns a profile repository bound to the transaction.
func (f *gormRepositoryFactory) ProfileRepo() repository.LoyaltyProfileRepository {
	return NewLoyaltyProfileRepository(f.tx)
}

// RuleRepo returns a rule repository bound to the transaction.
func (f *gormRepositoryFactory) RuleRepo() repository.LoyaltyRuleRepository {
	return NewLoyaltyRuleRepository(f.tx)
}

// RewardRepo returns a reward repository bound to the transaction.
func (f *gormRepositoryFactory) RewardRepo() repository.RewardRepository {
	return NewRewardRepository(f.tx)
}

// RedemptionRepo returns a redemption repository bound to the transaction.
func (f *gormRepositoryFactory) RedemptionRepo() repository.RedemptionRepository {
	return NewRedemptionRepository(f.tx)
}

// LedgerRepo returns a ledger repository bound to the transaction.
func (f *gormRepositoryFactory) LedgerRepo() repository.PointTransactionRepository {
	return NewPointTransactionRepository(f.tx)
}

// NewTransactionManager is the constructor for gormTransactionManager.
// This function will be used as an Fx provider.
func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{db: db}
}

// Execute runs the given function within a single database transaction.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errors.Join(domainerrors.ErrTransactionFailed, errors.Wrap(tx.Error, "failed to begin transaction"))
	}

	// A panic inside fn must not leave the transaction open.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	factory := &gormRepositoryFactory{tx: tx}

	if err := fn(factory); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errors.Join(err, errors.Wrap(rbErr, "transaction rollback failed"))
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Join(domainerrors.ErrTransactionFailed, errors.Wrap(err, "failed to commit transaction"))
	}

	return nil
}
