package subscriptions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
)

// MemoryRepository keeps subscription rows in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*models.Subscription
}

// NewMemoryRepository returns an empty in-memory subscriptions repo.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[uuid.UUID]*models.Subscription)}
}

func (r *MemoryRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *sub
	return &clone, nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *sub
	clone.UpdatedAt = time.Now().UTC()
	r.rows[sub.UserID] = &clone
	return nil
}

// UpsertForPayment skips the write when the stored row already carries the
// incoming payment id, mirroring the database-side conflict guard.
func (r *MemoryRepository) UpsertForPayment(ctx context.Context, sub *models.Subscription) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.rows[sub.UserID]; ok &&
		current.LastPaymentID != nil && sub.LastPaymentID != nil &&
		*current.LastPaymentID == *sub.LastPaymentID {
		return false, nil
	}
	clone := *sub
	clone.UpdatedAt = time.Now().UTC()
	r.rows[sub.UserID] = &clone
	return true, nil
}
