package users

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:users_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func repoImplementations(t *testing.T) map[string]Repository {
	t.Helper()
	return map[string]Repository{
		"gorm":   NewRepository(newTestDB(t)),
		"memory": NewMemoryRepository(),
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	for name, repo := range repoImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := repo.Create(ctx, CreateUserDTO{
				Email:        "player@example.com",
				PasswordHash: "hash",
				DisplayName:  "Player One",
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			byEmail, err := repo.FindByEmail(ctx, "player@example.com")
			if err != nil {
				t.Fatalf("find by email: %v", err)
			}
			if byEmail.ID != created.ID {
				t.Fatalf("expected id %s, got %s", created.ID, byEmail.ID)
			}

			byID, err := repo.FindByID(ctx, created.ID)
			if err != nil {
				t.Fatalf("find by id: %v", err)
			}
			if byID.Email != "player@example.com" {
				t.Fatalf("unexpected email %q", byID.Email)
			}
		})
	}
}

func TestRepositoryDuplicateEmailRejected(t *testing.T) {
	for name, repo := range repoImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dto := CreateUserDTO{Email: "dup@example.com", PasswordHash: "hash"}
			if _, err := repo.Create(ctx, dto); err != nil {
				t.Fatalf("first create: %v", err)
			}
			if _, err := repo.Create(ctx, dto); err == nil {
				t.Fatal("expected duplicate email to be rejected")
			}
		})
	}
}

func TestRepositoryNotFound(t *testing.T) {
	for name, repo := range repoImplementations(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := repo.FindByID(context.Background(), uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
				t.Fatalf("expected gorm.ErrRecordNotFound, got %v", err)
			}
		})
	}
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	for name, repo := range repoImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := repo.Create(ctx, CreateUserDTO{Email: "login@example.com", PasswordHash: "hash"})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			at := time.Now().UTC().Truncate(time.Second)
			if err := repo.UpdateLastLogin(ctx, created.ID, at); err != nil {
				t.Fatalf("update last login: %v", err)
			}

			loaded, err := repo.FindByID(ctx, created.ID)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if loaded.LastLoginAt == nil || !loaded.LastLoginAt.Equal(at) {
				t.Fatalf("expected last login %v, got %v", at, loaded.LastLoginAt)
			}
		})
	}
}
