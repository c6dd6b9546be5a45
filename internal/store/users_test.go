package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/invman/internal/db"
	"github.com/erazemk/invman/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "Keeper@Example.com", "keeper", "hash123", model.RoleStockKeeper)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Email != "keeper@example.com" {
		t.Errorf("expected lower-cased email, got %q", user.Email)
	}
	if user.Privileges != model.RoleStockKeeper {
		t.Errorf("expected privileges 2, got %d", user.Privileges)
	}

	got, err := GetUserByEmail(ctx, database, "KEEPER@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("expected user %d, got %+v", user.ID, got)
	}

	missing, err := GetUser(ctx, database, 999)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "a@example.com", "a", "h", model.RoleAdmin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := CreateUser(ctx, database, "a@example.com", "b", "h", model.RoleStockKeeper)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateUserInvalidPrivileges(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := CreateUser(context.Background(), database, "x@example.com", "x", "h", model.Role(9))
	if err == nil {
		t.Error("expected error for invalid privileges")
	}
}

func TestListAndCountUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a@example.com", "a", "h", model.RoleAdmin)
	CreateUser(ctx, database, "b@example.com", "b", "h", model.RoleInventoryManager)

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	n, _ := CountUsers(ctx, database)
	if n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "a@example.com", "a", "old", model.RoleAdmin)
	if err := UpdateUserPassword(ctx, database, user.ID, "new"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "new" {
		t.Errorf("expected updated hash, got %q", got.PasswordHash)
	}

	if err := UpdateUserPassword(ctx, database, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
