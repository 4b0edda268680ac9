package services

import (
	"context"
	"strings"
	"testing"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAccounts(t *testing.T) (*AccountService, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewAccountService(f.users).WithCost(bcrypt.MinCost), f
}

func validSignup() SignupRequest {
	return SignupRequest{
		Username:  "ada",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "analytical-engine",
	}
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()

	t.Run("Signup Hashes Password", func(t *testing.T) {
		accounts, f := newAccounts(t)

		user, err := accounts.Signup(ctx, validSignup())
		require.NoError(t, err)
		require.Empty(t, user.PasswordHash)

		full, err := f.users.Credentials(ctx, "ada")
		require.NoError(t, err)
		require.NotEqual(t, "analytical-engine", full.PasswordHash)
		require.True(t, checkPassword(full.PasswordHash, "analytical-engine"))
		require.False(t, checkPassword(full.PasswordHash, "wrong"))
	})

	t.Run("Signup Validation", func(t *testing.T) {
		accounts, _ := newAccounts(t)

		tc := map[string]func(*SignupRequest){
			"bad email":      func(r *SignupRequest) { r.Email = "not-an-email" },
			"short password": func(r *SignupRequest) { r.Password = "short" },
			"blank username": func(r *SignupRequest) { r.Username = "   " },
			"missing name":   func(r *SignupRequest) { r.FirstName = "" },
		}
		for name, mutate := range tc {
			t.Run(name, func(t *testing.T) {
				req := validSignup()
				mutate(&req)
				_, err := accounts.Signup(ctx, req)
				require.ErrorIs(t, err, shared.ErrValidation)
			})
		}
	})

	t.Run("Signup Validation Names JSON Fields", func(t *testing.T) {
		accounts, _ := newAccounts(t)
		req := validSignup()
		req.FirstName = ""

		_, err := accounts.Signup(ctx, req)
		require.True(t, strings.Contains(err.Error(), "first_name"), err.Error())
	})

	t.Run("Signup Conflict", func(t *testing.T) {
		accounts, _ := newAccounts(t)
		_, err := accounts.Signup(ctx, validSignup())
		require.NoError(t, err)

		req := validSignup()
		req.Email = "other@example.com"
		_, err = accounts.Signup(ctx, req)
		require.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("Authenticate", func(t *testing.T) {
		accounts, _ := newAccounts(t)
		user, err := accounts.Signup(ctx, validSignup())
		require.NoError(t, err)

		got, err := accounts.Authenticate(ctx, SigninRequest{Username: " ada ", Password: "analytical-engine"})
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
		require.Empty(t, got.PasswordHash)

		_, err = accounts.Authenticate(ctx, SigninRequest{Username: "ada", Password: "wrong-password"})
		require.ErrorIs(t, err, shared.ErrUnauthorized)

		_, err = accounts.Authenticate(ctx, SigninRequest{Username: "nobody", Password: "analytical-engine"})
		require.ErrorIs(t, err, shared.ErrUnauthorized)
		require.NotErrorIs(t, err, shared.ErrNotFound)

		_, err = accounts.Authenticate(ctx, SigninRequest{Username: "ada"})
		require.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("Update", func(t *testing.T) {
		accounts, f := newAccounts(t)
		user, err := accounts.Signup(ctx, validSignup())
		require.NoError(t, err)

		updated, err := accounts.Update(ctx, user.ID, ProfileUpdate{
			LastName: models.Some("Byron"),
			Password: models.Some("difference-engine"),
		})
		require.NoError(t, err)
		require.Equal(t, "Byron", updated.LastName)

		full, err := f.users.Credentials(ctx, "ada")
		require.NoError(t, err)
		require.True(t, checkPassword(full.PasswordHash, "difference-engine"))
	})

	t.Run("Update Empty", func(t *testing.T) {
		accounts, _ := newAccounts(t)
		user, err := accounts.Signup(ctx, validSignup())
		require.NoError(t, err)

		for _, req := range []ProfileUpdate{{}, {Email: models.Null[string](), Password: models.Null[string]()}} {
			_, err := accounts.Update(ctx, user.ID, req)
			require.ErrorIs(t, err, shared.ErrValidation)
		}
	})

	t.Run("Update Invalid Email", func(t *testing.T) {
		accounts, _ := newAccounts(t)
		user, err := accounts.Signup(ctx, validSignup())
		require.NoError(t, err)

		_, err = accounts.Update(ctx, user.ID, ProfileUpdate{Email: models.Some("nope")})
		require.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("Update Unknown User", func(t *testing.T) {
		accounts, _ := newAccounts(t)
		_, err := accounts.Update(ctx, shared.GenerateID(), ProfileUpdate{FirstName: models.Some("X")})
		require.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		accounts, _ := newAccounts(t)
		user, err := accounts.Signup(ctx, validSignup())
		require.NoError(t, err)

		require.NoError(t, accounts.Delete(ctx, user.ID))
		require.ErrorIs(t, accounts.Delete(ctx, user.ID), shared.ErrNotFound)
		require.ErrorIs(t, accounts.Delete(ctx, "bogus"), shared.ErrNotFound)

		_, err = accounts.Get(ctx, user.ID)
		require.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		accounts, _ := newAccounts(t)
		_, err := accounts.Signup(ctx, validSignup())
		require.NoError(t, err)

		users, err := accounts.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, users, 1)

		_, err = accounts.List(ctx, 501)
		require.ErrorIs(t, err, shared.ErrValidation)
	})
}
