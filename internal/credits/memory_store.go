package credits

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// MemoryStore keeps balances and ledger entries in process memory. Used for
// local development and as the fallback when no database is configured; state
// does not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int
	refs     map[string]struct{}
	entries  []models.CreditLedgerEntry
}

// NewMemoryStore returns an empty in-memory credit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[uuid.UUID]int),
		refs:     make(map[string]struct{}),
	}
}

func (s *MemoryStore) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}

func (s *MemoryStore) Debit(ctx context.Context, input DebitInput) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.balances[input.UserID]
	if current < input.Amount {
		return 0, ErrInsufficientBalance
	}
	s.balances[input.UserID] = current - input.Amount
	s.entries = append(s.entries, models.CreditLedgerEntry{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Delta:     -input.Amount,
		Reason:    enums.LedgerReasonUsage,
		Context:   input.Context,
		CreatedAt: time.Now().UTC(),
	})
	return s.balances[input.UserID], nil
}

func (s *MemoryStore) Credit(ctx context.Context, input CreditInput) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input.ExternalRef != nil {
		if _, seen := s.refs[*input.ExternalRef]; seen {
			return s.balances[input.UserID], false, nil
		}
		s.refs[*input.ExternalRef] = struct{}{}
	}

	s.balances[input.UserID] += input.Amount
	s.entries = append(s.entries, models.CreditLedgerEntry{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Delta:       input.Amount,
		Reason:      input.Reason,
		ExternalRef: input.ExternalRef,
		OrderRef:    input.OrderRef,
		Context:     input.Context,
		CreatedAt:   time.Now().UTC(),
	})
	return s.balances[input.UserID], true, nil
}

func (s *MemoryStore) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditLedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.CreditLedgerEntry
	for _, entry := range s.entries {
		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
