package subscriptions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:subscriptions_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Subscription{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func premiumRow(userID uuid.UUID, paymentID string, end time.Time) *models.Subscription {
	start := end.Add(-30 * 24 * time.Hour)
	row := &models.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    enums.SubscriptionStatusPremium,
		StartDate: &start,
		EndDate:   &end,
	}
	if paymentID != "" {
		row.LastPaymentID = &paymentID
	}
	return row
}

func TestGormRepoUpsertForPaymentGuardsReplay(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	firstEnd := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	applied, err := repo.UpsertForPayment(ctx, premiumRow(userID, "pay_1", firstEnd))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !applied {
		t.Fatal("first activation must apply")
	}

	// same payment id again, as two racing verifies would produce
	replayEnd := firstEnd.Add(30 * 24 * time.Hour)
	replay := premiumRow(userID, "pay_1", replayEnd)
	applied, err = repo.UpsertForPayment(ctx, replay)
	if err != nil {
		t.Fatalf("replay upsert: %v", err)
	}
	if applied {
		t.Fatal("replayed payment id must not apply")
	}

	row, err := repo.Get(ctx, userID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.EndDate == nil || !row.EndDate.Equal(firstEnd) {
		t.Fatalf("expected end date %v to survive the replay, got %v", firstEnd, row.EndDate)
	}

	// a new payment id is a renewal and goes through
	applied, err = repo.UpsertForPayment(ctx, premiumRow(userID, "pay_2", replayEnd))
	if err != nil {
		t.Fatalf("renewal upsert: %v", err)
	}
	if !applied {
		t.Fatal("new payment id must apply")
	}
}

func TestMemoryRepoUpsertForPaymentGuardsReplay(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	userID := uuid.New()
	firstEnd := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	applied, err := repo.UpsertForPayment(ctx, premiumRow(userID, "pay_1", firstEnd))
	if err != nil || !applied {
		t.Fatalf("first upsert: applied=%v err=%v", applied, err)
	}

	applied, err = repo.UpsertForPayment(ctx, premiumRow(userID, "pay_1", firstEnd.Add(30*24*time.Hour)))
	if err != nil {
		t.Fatalf("replay upsert: %v", err)
	}
	if applied {
		t.Fatal("replayed payment id must not apply")
	}

	row, err := repo.Get(ctx, userID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.EndDate == nil || !row.EndDate.Equal(firstEnd) {
		t.Fatalf("expected end date %v to survive the replay, got %v", firstEnd, row.EndDate)
	}
}
