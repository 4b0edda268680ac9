package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

const (
	// MaxListLimit bounds [UserRepository.List].
	MaxListLimit = 500

	userColumns = "id, sequence, username, first_name, last_name, email, password_hash, created_at, updated_at"
)

// UserRepository persists [models.User] records.
type UserRepository struct {
	db  *sql.DB
	now Clock
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// WithClock replaces the repository's time source.
func (r *UserRepository) WithClock(c Clock) *UserRepository {
	r.now = c
	return r
}

// Create inserts user with a generated ID and sequence and returns its public projection.
//
// A taken username or email fails with [shared.ErrConflict], whether caught by the
// pre-flight lookup or by the unique index on insert.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	for _, check := range []struct{ column, value string }{
		{"username", user.Username},
		{"email", user.Email},
	} {
		taken, err := r.exists(ctx, check.column, check.value)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: %s already registered", shared.ErrConflict, check.column)
		}
	}

	sequence, err := NextSequence(ctx, r.db, "users")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := r.now().UTC()
	created := *user
	created.ID = shared.GenerateID()
	created.Sequence = sequence
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Spotify = nil

	query := `
		INSERT INTO users (id, sequence, username, first_name, last_name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	ts := shared.FormatTimestamp(now)
	_, err = r.db.ExecContext(ctx, query,
		created.ID, created.Sequence, created.Username, created.FirstName, created.LastName,
		created.Email, created.PasswordHash, ts, ts,
	)
	if shared.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: username or email already registered", shared.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return created.Public(), nil
}

func (r *UserRepository) exists(ctx context.Context, column, value string) (bool, error) {
	var found bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM users WHERE %s = ?)", column)
	if err := r.db.QueryRowContext(ctx, query, value).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return found, nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	if !shared.IsValidID(id) {
		return nil, notFound(id)
	}
	user, err := r.findBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := r.findBy(ctx, "username", username)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := r.findBy(ctx, "email", email)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// Credentials returns the full record for username, password hash included.
// It is the only read path that exposes the hash and exists for sign-in checks.
func (r *UserRepository) Credentials(ctx context.Context, username string) (*models.User, error) {
	return r.findBy(ctx, "username", username)
}

func (r *UserRepository) findBy(ctx context.Context, column, value string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s = ?", userColumns, column)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// List returns up to limit users in creation order. limit must be within 1..[MaxListLimit].
func (r *UserRepository) List(ctx context.Context, limit int) ([]*models.User, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", shared.ErrValidation, MaxListLimit)
	}

	query := fmt.Sprintf("SELECT %s FROM users ORDER BY sequence ASC LIMIT ?", userColumns)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user.Public())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

// Update applies patch to the user with id.
//
// Absent and null fields are ignored. When nothing effectively changes the current
// record is returned as is and updated_at is left alone.
func (r *UserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if !shared.IsValidID(id) {
		return nil, notFound(id)
	}

	user, err := r.findBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}

	if !patch.Apply(user) {
		return user.Public(), nil
	}

	user.UpdatedAt = r.now().UTC()
	query := `
		UPDATE users
		SET username = ?, first_name = ?, last_name = ?, email = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Username, user.FirstName, user.LastName, user.Email, user.PasswordHash,
		shared.FormatTimestamp(user.UpdatedAt), id,
	)
	if shared.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: username or email already registered", shared.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return nil, notFound(id)
	}

	return user.Public(), nil
}

// Delete removes the user with id and reports whether a record was removed.
func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !shared.IsValidID(id) {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// Ping checks that the store answers queries.
func (r *UserRepository) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRowContext(ctx, "SELECT 1 FROM users_sequence WHERE id = 1").Scan(&one)
}

func scanUser(row scanner) (*models.User, error) {
	var (
		user               models.User
		createdAt, updated string
	)
	err := row.Scan(
		&user.ID, &user.Sequence, &user.Username, &user.FirstName, &user.LastName,
		&user.Email, &user.PasswordHash, &createdAt, &updated,
	)
	if err != nil {
		return nil, err
	}

	if user.CreatedAt, err = shared.ParseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = shared.ParseTimestamp(updated); err != nil {
		return nil, err
	}
	return &user, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
}
