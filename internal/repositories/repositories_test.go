package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
	testutil "github.com/desertthunder/musicagent/internal/testing"
)

func newUser(username, email string) *models.User {
	return &models.User{
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "$2a$10$hash",
	}
}

func mustCreate(t *testing.T, repo *UserRepository, username, email string) *models.User {
	t.Helper()
	user, err := repo.Create(context.Background(), newUser(username, email))
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestNextSequence(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(ctx, db, "users")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("NextSequence() = %d, want %d", got, want)
		}
	}

	if _, err := NextSequence(ctx, db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		user := mustCreate(t, repo, "ada", "ada@example.com")

		if !shared.IsValidID(user.ID) {
			t.Errorf("expected storage identifier, got %q", user.ID)
		}
		if user.PasswordHash != "" {
			t.Error("password hash must not be returned")
		}
		if user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
			t.Errorf("expected matching timestamps, got %v / %v", user.CreatedAt, user.UpdatedAt)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		user := mustCreate(t, repo, "ada", "ada@example.com")

		retrieved, err := repo.Get(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.Email != user.Email {
			t.Errorf("expected email %s, got %s", user.Email, retrieved.Email)
		}
		if retrieved.PasswordHash != "" || retrieved.Spotify != nil {
			t.Error("read path leaked secrets")
		}
		if !retrieved.CreatedAt.Equal(user.CreatedAt) {
			t.Errorf("created_at round trip: got %v, want %v", retrieved.CreatedAt, user.CreatedAt)
		}
	})

	t.Run("GetByUsername and GetByEmail", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		user := mustCreate(t, repo, "ada", "ada@example.com")

		byName, err := repo.GetByUsername(ctx, "ada")
		if err != nil || byName.ID != user.ID {
			t.Fatalf("GetByUsername() = %v, %v", byName, err)
		}
		byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
		if err != nil || byEmail.ID != user.ID {
			t.Fatalf("GetByEmail() = %v, %v", byEmail, err)
		}
		if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Credentials", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		mustCreate(t, repo, "ada", "ada@example.com")

		full, err := repo.Credentials(ctx, "ada")
		if err != nil {
			t.Fatalf("Credentials() error = %v", err)
		}
		if full.PasswordHash != "$2a$10$hash" {
			t.Errorf("expected stored hash, got %q", full.PasswordHash)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		first := mustCreate(t, repo, "ada", "ada@example.com")
		mustCreate(t, repo, "grace", "grace@example.com")
		mustCreate(t, repo, "linus", "linus@example.com")

		users, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(users) != 2 {
			t.Fatalf("expected 2 users, got %d", len(users))
		}
		if users[0].ID != first.ID {
			t.Error("expected creation order")
		}
	})

	t.Run("List Limit Bounds", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		for _, limit := range []int{0, -1, MaxListLimit + 1} {
			if _, err := repo.List(ctx, limit); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("List(%d) expected ErrValidation, got %v", limit, err)
			}
		}
		users, err := repo.List(ctx, MaxListLimit)
		if err != nil {
			t.Fatalf("List(max) error = %v", err)
		}
		if users == nil || len(users) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", users)
		}
	})

	t.Run("Update", func(t *testing.T) {
		clock := testutil.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
		repo := NewUserRepository(testutil.NewTestDB(t)).WithClock(clock.Now)
		user := mustCreate(t, repo, "ada", "ada@example.com")

		clock.Advance(time.Minute)
		updated, err := repo.Update(ctx, user.ID, models.UserPatch{
			Email:     models.Some("ada@lovelace.dev"),
			FirstName: models.Null[string](),
		})
		if err != nil {
			t.Fatalf("failed to update user: %v", err)
		}
		if updated.Email != "ada@lovelace.dev" {
			t.Errorf("expected updated email, got %s", updated.Email)
		}
		if updated.FirstName != "Test" {
			t.Errorf("null must not clear first name, got %q", updated.FirstName)
		}
		if !updated.UpdatedAt.Equal(clock.Now()) {
			t.Errorf("expected updated_at %v, got %v", clock.Now(), updated.UpdatedAt)
		}
		if !updated.CreatedAt.Equal(user.CreatedAt) {
			t.Error("created_at must not change")
		}
	})

	t.Run("Update Without Effective Change", func(t *testing.T) {
		clock := testutil.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
		repo := NewUserRepository(testutil.NewTestDB(t)).WithClock(clock.Now)
		user := mustCreate(t, repo, "ada", "ada@example.com")
		clock.Advance(time.Hour)

		for name, patch := range map[string]models.UserPatch{
			"empty":      {},
			"nulls only": {Username: models.Null[string](), Email: models.Null[string]()},
			"same value": {Username: models.Some("ada")},
		} {
			got, err := repo.Update(ctx, user.ID, patch)
			if err != nil {
				t.Fatalf("%s: Update() error = %v", name, err)
			}
			if !got.UpdatedAt.Equal(user.UpdatedAt) {
				t.Errorf("%s: updated_at bumped to %v", name, got.UpdatedAt)
			}
			if got.Username != "ada" {
				t.Errorf("%s: username changed to %s", name, got.Username)
			}
		}
	})

	t.Run("Update Password Hash", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		mustCreate(t, repo, "ada", "ada@example.com")
		user, _ := repo.GetByUsername(ctx, "ada")

		if _, err := repo.Update(ctx, user.ID, models.UserPatch{PasswordHash: models.Some("new")}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		full, _ := repo.Credentials(ctx, "ada")
		if full.PasswordHash != "new" {
			t.Errorf("expected new hash, got %q", full.PasswordHash)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		user := mustCreate(t, repo, "ada", "ada@example.com")

		deleted, err := repo.Delete(ctx, user.ID)
		if err != nil || !deleted {
			t.Fatalf("Delete() = %v, %v", deleted, err)
		}

		deleted, err = repo.Delete(ctx, user.ID)
		if err != nil || deleted {
			t.Errorf("second Delete() = %v, %v, want false, nil", deleted, err)
		}

		if _, err := repo.Get(ctx, user.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		repo := NewUserRepository(db)
		if err := repo.Ping(ctx); err != nil {
			t.Fatalf("Ping() error = %v", err)
		}
		db.Close()
		if err := repo.Ping(ctx); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestUserRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Malformed IDs Read As Not Found", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		mustCreate(t, repo, "ada", "ada@example.com")

		for _, id := range []string{"", "123", "not-a-uuid", "507f1f77bcf86cd799439011", "'; DROP TABLE users; --"} {
			if _, err := repo.Get(ctx, id); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("Get(%q) expected ErrNotFound, got %v", id, err)
			}
			if _, err := repo.Update(ctx, id, models.UserPatch{Username: models.Some("x")}); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("Update(%q) expected ErrNotFound, got %v", id, err)
			}
			if deleted, err := repo.Delete(ctx, id); err != nil || deleted {
				t.Errorf("Delete(%q) = %v, %v", id, deleted, err)
			}
			if _, err := repo.MergeSpotifyAuth(ctx, id, models.SpotifyAuth{}); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("MergeSpotifyAuth(%q) expected ErrNotFound, got %v", id, err)
			}
		}
	})

	t.Run("Well Formed Unknown ID", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		if _, err := repo.Get(ctx, shared.GenerateID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Duplicate Username", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		mustCreate(t, repo, "ada", "ada@example.com")

		_, err := repo.Create(ctx, newUser("ada", "other@example.com"))
		if !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		mustCreate(t, repo, "ada", "ada@example.com")

		_, err := repo.Create(ctx, newUser("other", "ada@example.com"))
		if !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("Duplicate Caught By Unique Index", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		repo := NewUserRepository(db)
		mustCreate(t, repo, "ada", "ada@example.com")

		// Simulate a racing insert the pre-flight lookup cannot see.
		if _, err := db.Exec("DROP INDEX idx_users_email"); err != nil {
			t.Fatalf("failed to drop index: %v", err)
		}
		if _, err := db.Exec("CREATE UNIQUE INDEX idx_users_email ON users (lower(email))"); err != nil {
			t.Fatalf("failed to create index: %v", err)
		}

		_, err := repo.Create(ctx, newUser("other", "ADA@example.com"))
		if !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected ErrConflict from index, got %v", err)
		}
	})

	t.Run("Update Conflict", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		mustCreate(t, repo, "ada", "ada@example.com")
		grace := mustCreate(t, repo, "grace", "grace@example.com")

		_, err := repo.Update(ctx, grace.ID, models.UserPatch{Username: models.Some("ada")})
		if !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		repo := NewUserRepository(db)
		db.Close()

		if _, err := repo.Create(ctx, newUser("ada", "ada@example.com")); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.List(ctx, 10); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.Get(ctx, shared.GenerateID()); errors.Is(err, shared.ErrNotFound) || err == nil {
			t.Errorf("expected driver error, got %v", err)
		}
	})
}

func TestSpotifyAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("Not Linked", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		user := mustCreate(t, repo, "ada", "ada@example.com")

		for _, id := range []string{user.ID, shared.GenerateID(), "bogus"} {
			if _, err := repo.SpotifyAuth(ctx, id); !errors.Is(err, shared.ErrNotLinked) {
				t.Errorf("SpotifyAuth(%q) expected ErrNotLinked, got %v", id, err)
			}
		}
	})

	t.Run("Merge Keeps Unset Fields", func(t *testing.T) {
		clock := testutil.NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
		repo := NewUserRepository(testutil.NewTestDB(t)).WithClock(clock.Now)
		user := mustCreate(t, repo, "ada", "ada@example.com")

		first := models.SpotifyAuth{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
			Scope:        "user-top-read",
			ExpiresIn:    3600,
			ExpiresAt:    "2025-01-01T13:00:00Z",
			UpdatedAt:    clock.Now(),
		}
		if _, err := repo.MergeSpotifyAuth(ctx, user.ID, first); err != nil {
			t.Fatalf("MergeSpotifyAuth() error = %v", err)
		}

		clock.Advance(time.Hour)
		updated, err := repo.MergeSpotifyAuth(ctx, user.ID, models.SpotifyAuth{
			AccessToken: "access-2",
			ExpiresIn:   0,
			UpdatedAt:   clock.Now(),
		})
		if err != nil {
			t.Fatalf("MergeSpotifyAuth() error = %v", err)
		}
		if !updated.UpdatedAt.Equal(clock.Now()) {
			t.Errorf("expected user updated_at bumped, got %v", updated.UpdatedAt)
		}

		auth, err := repo.SpotifyAuth(ctx, user.ID)
		if err != nil {
			t.Fatalf("SpotifyAuth() error = %v", err)
		}
		if auth.AccessToken != "access-2" {
			t.Errorf("access token = %s", auth.AccessToken)
		}
		if auth.RefreshToken != "refresh-1" || auth.Scope != "user-top-read" || auth.TokenType != "Bearer" {
			t.Errorf("unset fields overwritten: %+v", auth)
		}
		if auth.ExpiresAt != "2025-01-01T13:00:00Z" {
			t.Errorf("expiry overwritten: %s", auth.ExpiresAt)
		}
		if auth.ExpiresIn != 0 {
			t.Errorf("expires_in = %d, want 0", auth.ExpiresIn)
		}
	})

	t.Run("Merge Unknown User", func(t *testing.T) {
		repo := NewUserRepository(testutil.NewTestDB(t))
		_, err := repo.MergeSpotifyAuth(ctx, shared.GenerateID(), models.SpotifyAuth{AccessToken: "a", UpdatedAt: time.Now()})
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func setupSnapshots(t *testing.T) (*sql.DB, *SnapshotRepository, *testutil.Clock) {
	t.Helper()
	db := testutil.NewTestDB(t)
	clock := testutil.NewClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	return db, NewSnapshotRepository(db).WithClock(clock.Now), clock
}
