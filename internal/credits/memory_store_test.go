package credits

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

func TestMemoryStoreIdempotentCredit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	balance, applied, err := store.Credit(ctx, CreditInput{
		UserID:      userID,
		Amount:      100,
		Reason:      enums.LedgerReasonPurchase,
		ExternalRef: strPtr("pay_mem_1"),
	})
	if err != nil || !applied || balance != 100 {
		t.Fatalf("first credit: balance=%d applied=%v err=%v", balance, applied, err)
	}

	balance, applied, err = store.Credit(ctx, CreditInput{
		UserID:      userID,
		Amount:      100,
		Reason:      enums.LedgerReasonPurchase,
		ExternalRef: strPtr("pay_mem_1"),
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if applied || balance != 100 {
		t.Fatalf("replay must be a no-op: balance=%d applied=%v", balance, applied)
	}
}

func TestMemoryStoreConcurrentDebitsNeverOversell(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	if _, _, err := store.Credit(ctx, CreditInput{
		UserID: userID,
		Amount: 50,
		Reason: enums.LedgerReasonGrant,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const workers = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Debit(ctx, DebitInput{UserID: userID, Amount: 1, Context: "analysis"}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrInsufficientBalance) {
				t.Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 50 {
		t.Fatalf("expected exactly 50 debits to succeed, got %d", succeeded)
	}
	balance, err := store.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected drained balance of 0, got %d", balance)
	}
}

func TestMemoryStoreHistoryFiltersByUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	for _, userID := range []uuid.UUID{alice, bob, alice} {
		if _, _, err := store.Credit(ctx, CreditInput{
			UserID: userID,
			Amount: 10,
			Reason: enums.LedgerReasonGrant,
		}); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}

	entries, err := store.History(ctx, alice, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for alice, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.UserID != alice {
			t.Fatalf("entry for wrong user %s", entry.UserID)
		}
	}
}
