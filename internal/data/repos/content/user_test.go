package content

import (
	"context"
	"testing"

	"github.com/studyvault/studyvault-backend/internal/data/repos/testutil"
)

func TestUserRepoEnsure(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewUserRepo(db, testutil.Logger(t))

	first, err := repo.Ensure(ctx, tx, "an.nguyen")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if first.Username != "an.nguyen" {
		t.Fatalf("username wrong: %q", first.Username)
	}
	if first.UserRole != "user" || !first.IsActive {
		t.Fatalf("defaults wrong: role=%q active=%v", first.UserRole, first.IsActive)
	}

	// Second sight returns the same row instead of creating another.
	second, err := repo.Ensure(ctx, tx, "an.nguyen")
	if err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	if second.UserID != first.UserID {
		t.Fatalf("ensure created a second row: %s vs %s", first.UserID, second.UserID)
	}

	got, err := repo.GetByUsername(ctx, tx, "an.nguyen")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.UserID != first.UserID {
		t.Fatalf("lookup mismatch: %s vs %s", got.UserID, first.UserID)
	}
}
