package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/vichar-ai/vichar-backend/pkg/db"
	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// GormStore persists balances and ledger entries in the relational database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore binds a durable credit store to the provided GORM DB.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is required")
	}
	return &GormStore{db: db}, nil
}

// Balance returns the user's current balance. A missing row reads as zero.
func (s *GormStore) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var row models.CreditBalance
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Credits, nil
}

// Debit subtracts credits atomically. The conditional UPDATE guards the
// balance: zero rows affected means the guard failed and nothing changed.
func (s *GormStore) Debit(ctx context.Context, input DebitInput) (int, error) {
	var newBalance int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CreditBalance{}).
			Where("user_id = ? AND credits >= ?", input.UserID, input.Amount).
			UpdateColumn("credits", gorm.Expr("credits - ?", input.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		entry := &models.CreditLedgerEntry{
			ID:      uuid.New(),
			UserID:  input.UserID,
			Delta:   -input.Amount,
			Reason:  enums.LedgerReasonUsage,
			Context: input.Context,
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		var row models.CreditBalance
		if err := tx.Where("user_id = ?", input.UserID).First(&row).Error; err != nil {
			return err
		}
		newBalance = row.Credits
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit adds credits, inserting the ledger entry first so the unique index on
// external_ref makes replays a no-op that reports the unchanged balance.
func (s *GormStore) Credit(ctx context.Context, input CreditInput) (int, bool, error) {
	var (
		balance int
		applied bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := &models.CreditLedgerEntry{
			ID:          uuid.New(),
			UserID:      input.UserID,
			Delta:       input.Amount,
			Reason:      input.Reason,
			ExternalRef: input.ExternalRef,
			OrderRef:    input.OrderRef,
			Context:     input.Context,
		}
		if err := tx.Create(entry).Error; err != nil {
			if pkgdb.IsUniqueViolation(err, "idx_ledger_external_ref") {
				return errDuplicateRef
			}
			return err
		}

		res := tx.Model(&models.CreditBalance{}).
			Where("user_id = ?", input.UserID).
			UpdateColumn("credits", gorm.Expr("credits + ?", input.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			row := &models.CreditBalance{
				ID:      uuid.New(),
				UserID:  input.UserID,
				Credits: input.Amount,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			balance = row.Credits
			applied = true
			return nil
		}

		var row models.CreditBalance
		if err := tx.Where("user_id = ?", input.UserID).First(&row).Error; err != nil {
			return err
		}
		balance = row.Credits
		applied = true
		return nil
	})
	if errors.Is(err, errDuplicateRef) {
		current, readErr := s.Balance(ctx, input.UserID)
		if readErr != nil {
			return 0, false, readErr
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return balance, applied, nil
}

// History lists the most recent ledger entries, newest first.
func (s *GormStore) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditLedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var entries []models.CreditLedgerEntry
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

var errDuplicateRef = errors.New("duplicate external ref")
