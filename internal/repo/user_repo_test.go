package repo

import (
	"context"
	"testing"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "Ada", "ada@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user: %+v", u)
	}
	got, err := GetUser(ctx, db, u.ID)
	if err != nil || got.Email != "ada@example.com" {
		t.Fatalf("GetUser = %+v, %v", got, err)
	}
	got, err = GetUserByEmail(ctx, db, "ada@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := GetUser(ctx, db, "missing"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepo_EmailTaken(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()
	if _, err := CreateUser(ctx, db, "A", "a@example.com", "h"); err != nil {
		t.Fatalf("first: %v", err)
	}
	_, err := CreateUser(ctx, db, "B", "a@example.com", "h")
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}
