package subscriptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
)

// Repository manages persistence for subscription rows. Get reports
// gorm.ErrRecordNotFound when the user has no row yet. UpsertForPayment is
// the activation write: it refuses to apply a payment id the row already
// carries, so a replayed settlement cannot extend the period twice even when
// two requests race past the service-level check.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) error
	UpsertForPayment(ctx context.Context, sub *models.Subscription) (bool, error)
}

// GormRepository persists subscriptions in the relational database.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository returns a subscriptions repo bound to the provided database.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *GormRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "start_date", "end_date", "last_order_id", "last_payment_id", "updated_at",
			}),
		}).
		Create(sub).Error
}

// UpsertForPayment writes the activation only while the stored row does not
// already carry the incoming payment id. The guard lives in the conflict
// clause so concurrent settlements of the same payment resolve in the
// database, not in application memory. Returns whether the write applied.
func (r *GormRepository) UpsertForPayment(ctx context.Context, sub *models.Subscription) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "start_date", "end_date", "last_order_id", "last_payment_id", "updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "excluded.last_payment_id IS NULL OR subscriptions.last_payment_id IS NULL OR subscriptions.last_payment_id <> excluded.last_payment_id"},
			}},
		}).
		Create(sub)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
