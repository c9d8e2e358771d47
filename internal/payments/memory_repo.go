package payments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// MemoryOrderRepository keeps payment orders in process memory.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*models.PaymentOrder
	byGwID map[string]uuid.UUID
}

// NewMemoryOrderRepository returns an empty in-memory order repo.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		byID:   make(map[uuid.UUID]*models.PaymentOrder),
		byGwID: make(map[string]uuid.UUID),
	}
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order *models.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	clone := *order
	r.byID[order.ID] = &clone
	r.byGwID[order.GatewayOrderID] = order.ID
	return nil
}

func (r *MemoryOrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byGwID[gatewayOrderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

func (r *MemoryOrderRepository) SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, paymentID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	if paymentID != nil {
		order.PaymentID = paymentID
	}
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.PaymentOrder, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.PaymentOrder
	for _, order := range r.byID {
		if order.UserID == userID {
			orders = append(orders, *order)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
