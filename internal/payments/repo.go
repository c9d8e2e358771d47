package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// OrderRepository manages persistence for payment orders. Lookups report
// gorm.ErrRecordNotFound when no row matches.
type OrderRepository interface {
	Create(ctx context.Context, order *models.PaymentOrder) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, paymentID *string) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.PaymentOrder, error)
}

// GormOrderRepository persists payment orders in the relational database.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository returns an order repo bound to the provided database.
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.PaymentOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, paymentID *string) error {
	updates := map[string]any{"status": status}
	if paymentID != nil {
		updates["payment_id"] = *paymentID
	}
	return r.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *GormOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.PaymentOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	var orders []models.PaymentOrder
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
