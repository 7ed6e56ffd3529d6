package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// validate checks field rules for input that does not pass through gin binding,
// such as the setup-admin command.
var validate = validator.New()

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	cost     int
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// WithHashCost lowers the bcrypt cost, for tests.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup creates a new regular, active user.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials, records the login time and returns the user.
// Deactivated accounts are refused even with a correct password.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, invalidCredentials()
	}

	if !user.IsActive {
		return nil, apierrors.Authorization(apierrors.ReasonAccountDisabled, "Account is deactivated")
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, userNotFound()
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// ProfileInput lists the fields a user may change on their own account.
type ProfileInput struct {
	Name  *string
	Email *string
}

// UpdateProfile changes the principal's own name or email.
func (s *AuthService) UpdateProfile(ctx context.Context, principal *models.User, input ProfileInput) (*models.User, error) {
	user, err := s.GetUser(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validateName(*input.Name)
		if err != nil {
			return nil, err
		}
		user.Name = name
	}
	if input.Email != nil {
		email, err := validateEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the principal's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, principal *models.User, current, next string) error {
	user, err := s.GetUser(ctx, principal.ID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apierrors.Unauthenticated(apierrors.ReasonInvalidCredentials, "Current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// AdminSeed describes the bootstrap administrator.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin creates the bootstrap administrator, or promotes and
// reactivates the existing account with that email. It reports whether a new
// account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, seed AdminSeed) (*models.User, bool, error) {
	email, err := validateEmail(seed.Email)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() && existing.IsActive {
			return existing, false, nil
		}
		existing.Role = models.RoleAdmin
		existing.IsActive = true
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("failed to promote admin: %w", err)
		}
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, fmt.Errorf("failed to find admin: %w", err)
	}

	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Administrator"
	}
	if name, err = validateName(name); err != nil {
		return nil, false, err
	}
	if err := validatePassword(seed.Password); err != nil {
		return nil, false, err
	}

	hash, err := s.hash(seed.Password)
	if err != nil {
		return nil, false, err
	}
	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, true, nil
}

func (s *AuthService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// ensureEmailFree fails when another account than ownerID uses email.
func (s *AuthService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	return checkEmailFree(ctx, s.userRepo, email, ownerID)
}

func checkEmailFree(ctx context.Context, users repository.UserRepository, email, ownerID string) error {
	existing, err := users.FindByEmail(ctx, email)
	if err == nil {
		if existing.ID != ownerID {
			return emailTaken()
		}
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check email: %w", err)
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < constants.MinNameLength || n > constants.MaxNameLength {
		return "", apierrors.Validation(apierrors.ReasonValidationFailed,
			"Name must be between %d and %d characters", constants.MinNameLength, constants.MaxNameLength)
	}
	return name, nil
}

func validateEmail(email string) (string, error) {
	email = models.NormalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", apierrors.Validation(apierrors.ReasonValidationFailed, "Please provide a valid email")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < constants.MinPasswordLength {
		return apierrors.Validation(apierrors.ReasonPasswordTooShort,
			"Password must be at least %d characters", constants.MinPasswordLength)
	}
	return nil
}

func invalidCredentials() error {
	return apierrors.Unauthenticated(apierrors.ReasonInvalidCredentials, "Invalid email or password")
}

func emailTaken() error {
	return apierrors.ConflictError(apierrors.ReasonEmailTaken, "Email is already taken")
}

func userNotFound() error {
	return apierrors.NotFoundError(apierrors.ReasonUserNotFound, "User not found")
}
