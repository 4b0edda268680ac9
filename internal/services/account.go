package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// SignupRequest is the body of an account creation.
type SignupRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// ProfileUpdate is the body of an account update. Absent and null fields are left unchanged.
type ProfileUpdate struct {
	Username  models.Optional[string] `json:"username"`
	FirstName models.Optional[string] `json:"first_name"`
	LastName  models.Optional[string] `json:"last_name"`
	Email     models.Optional[string] `json:"email"`
	Password  models.Optional[string] `json:"password"`
}

// SigninRequest is the body of a sign-in.
type SigninRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var errInvalidCredentials = fmt.Errorf("%w: invalid username or password", shared.ErrUnauthorized)

// AccountService manages user accounts on top of a [UserStore].
type AccountService struct {
	users    UserStore
	validate *validator.Validate
	cost     int
}

// NewAccountService creates an [AccountService] hashing passwords at bcrypt's default cost.
func NewAccountService(users UserStore) *AccountService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return &AccountService{users: users, validate: v, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost. Tests use [bcrypt.MinCost].
func (s *AccountService) WithCost(cost int) *AccountService {
	s.cost = cost
	return s
}

// Signup validates req, hashes the password and creates the account.
func (s *AccountService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	return s.users.Create(ctx, &models.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	})
}

// Get returns the account with id.
func (s *AccountService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.Get(ctx, id)
}

// List returns up to limit accounts.
func (s *AccountService) List(ctx context.Context, limit int) ([]*models.User, error) {
	return s.users.List(ctx, limit)
}

// Update applies a profile update. An update that sets no field fails with [shared.ErrValidation].
func (s *AccountService) Update(ctx context.Context, id string, req ProfileUpdate) (*models.User, error) {
	patch := models.UserPatch{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}

	checks := []struct {
		field string
		value models.Optional[string]
		tag   string
	}{
		{"username", req.Username, "min=3,max=64"},
		{"first_name", req.FirstName, "max=100"},
		{"last_name", req.LastName, "max=100"},
		{"email", req.Email, "email"},
		{"password", req.Password, "min=8,max=72"},
	}
	for _, c := range checks {
		v, ok := c.value.Get()
		if !ok {
			continue
		}
		if err := s.validate.VarCtx(ctx, v, c.tag); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrValidation, c.field, err)
		}
	}

	if password, ok := req.Password.Get(); ok {
		hash, err := s.hash(password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = models.Some(hash)
	}

	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no valid fields to update", shared.ErrValidation)
	}

	return s.users.Update(ctx, id, patch)
}

// Authenticate checks username and password and returns the account.
// Unknown users and wrong passwords fail alike with [shared.ErrUnauthorized].
func (s *AccountService) Authenticate(ctx context.Context, req SigninRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.users.Credentials(ctx, req.Username)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !checkPassword(user.PasswordHash, req.Password) {
		return nil, errInvalidCredentials
	}
	return user.Public(), nil
}

// Delete removes the account with id. A missing account fails with [shared.ErrNotFound].
func (s *AccountService) Delete(ctx context.Context, id string) error {
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
	}
	return nil
}

// checkPassword reports whether password matches hash.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *AccountService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", shared.ErrValidation, strings.Join(fields, "; "))
}
