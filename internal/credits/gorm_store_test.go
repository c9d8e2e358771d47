package credits

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:credits_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.CreditBalance{}, &models.CreditLedgerEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := NewGormStore(newTestDB(t))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func strPtr(s string) *string { return &s }

func TestGormStoreGrantDebitCreditScenario(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	// signup grant of 100
	balance, applied, err := store.Credit(ctx, CreditInput{
		UserID:      userID,
		Amount:      100,
		Reason:      enums.LedgerReasonGrant,
		ExternalRef: strPtr("signup:" + userID.String()),
		Context:     "signup",
	})
	if err != nil || !applied {
		t.Fatalf("grant: balance=%d applied=%v err=%v", balance, applied, err)
	}
	if balance != 100 {
		t.Fatalf("expected 100 after grant, got %d", balance)
	}

	// analysis costs 10
	balance, err = store.Debit(ctx, DebitInput{UserID: userID, Amount: 10, Context: "analysis"})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 90 {
		t.Fatalf("expected 90 after debit, got %d", balance)
	}

	// purchase settles 50 credits keyed on the payment id
	balance, applied, err = store.Credit(ctx, CreditInput{
		UserID:      userID,
		Amount:      50,
		Reason:      enums.LedgerReasonPurchase,
		ExternalRef: strPtr("pay_settle_1"),
		OrderRef:    strPtr("order_settle_1"),
		Context:     "purchase",
	})
	if err != nil || !applied {
		t.Fatalf("purchase: applied=%v err=%v", applied, err)
	}
	if balance != 140 {
		t.Fatalf("expected 140 after purchase, got %d", balance)
	}

	// replaying the same payment must not double-credit
	balance, applied, err = store.Credit(ctx, CreditInput{
		UserID:      userID,
		Amount:      50,
		Reason:      enums.LedgerReasonPurchase,
		ExternalRef: strPtr("pay_settle_1"),
		Context:     "purchase",
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if applied {
		t.Fatal("replay must not apply")
	}
	if balance != 140 {
		t.Fatalf("expected 140 after replay, got %d", balance)
	}
}

func TestGormStoreDebitNeverGoesNegative(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, _, err := store.Credit(ctx, CreditInput{
		UserID: userID,
		Amount: 5,
		Reason: enums.LedgerReasonGrant,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := store.Debit(ctx, DebitInput{UserID: userID, Amount: 6, Context: "analysis"}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, err := store.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 5 {
		t.Fatalf("failed debit must not change balance, got %d", balance)
	}

	entries, err := store.History(ctx, userID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("failed debit must not write a ledger entry, got %d entries", len(entries))
	}
}

func TestGormStoreDebitUnknownUser(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Debit(context.Background(), DebitInput{UserID: uuid.New(), Amount: 1, Context: "analysis"})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance for missing balance row, got %v", err)
	}
}

func TestGormStoreBalanceMissingRowReadsZero(t *testing.T) {
	store := newTestStore(t)

	balance, err := store.Balance(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected 0, got %d", balance)
	}
}

func TestGormStoreHistoryNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, _, err := store.Credit(ctx, CreditInput{
			UserID:      userID,
			Amount:      10 * (i + 1),
			Reason:      enums.LedgerReasonPurchase,
			ExternalRef: strPtr(fmt.Sprintf("pay_hist_%d", i)),
		}); err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
	}

	entries, err := store.History(ctx, userID, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
