package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
)

// MemoryRepository keeps users in process memory for database-less mode.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*models.User
	index map[string]uuid.UUID // lowercase email -> id
}

// NewMemoryRepository returns an empty in-memory users repo.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[uuid.UUID]*models.User),
		index: make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(dto.Email)
	if _, exists := r.index[key]; exists {
		return nil, errors.New("duplicate key value: users email")
	}

	user := dto.ToModel()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	r.byID[user.ID] = &clone
	r.index[key] = user.ID
	return user, nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.index[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *MemoryRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LastLoginAt = &at
	user.UpdatedAt = time.Now().UTC()
	return nil
}
