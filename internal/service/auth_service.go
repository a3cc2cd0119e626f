package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"foodorder/internal/auth"
	"foodorder/internal/errors"
	"foodorder/internal/model"
	"foodorder/internal/repository"
)

const (
	minPasswordLength = 8
	// bcrypt only accepts this many bytes of input.
	maxPasswordBytes = 72
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	Role  string
	User  *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ValidateToken(ctx context.Context, token string) (*model.Profile, error)
	// LogoutEverywhere invalidates every token issued so far for the user.
	LogoutEverywhere(ctx context.Context, userID string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	throttle   auth.Throttle
	validate   *validator.Validate
	bcryptCost int
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, throttle auth.Throttle, bcryptCost int) AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		throttle:   throttle,
		validate:   validator.New(),
		bcryptCost: bcryptCost,
	}
}

// Register creates a user with a hashed password and returns a token.
func (s *authService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, errors.Validation("Please enter your name")
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, errors.Validation("Please enter valid email")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, errors.Validation("Please enter a strong password")
	}
	if len(password) > maxPasswordBytes {
		return nil, errors.Validation(fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes))
	}

	// Check if user already exists
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, errors.Conflict("User already exists")
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         model.RoleUser,
		Cart:         map[string]int{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return &AuthResult{Token: token, Role: user.Role, User: user}, nil
}

// Login verifies credentials and returns a token.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)

	if !s.throttle.Allowed(ctx, email) {
		return nil, errors.Auth("Too many login attempts, try again later")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("User Doesn't exist")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.throttle.RecordFailure(ctx, email)
		return nil, errors.Auth("Invalid Credentials")
	}
	s.throttle.Reset(ctx, email)

	token, err := s.jwtService.GenerateToken(user.ID, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{Token: token, Role: user.Role, User: user}, nil
}

// ValidateToken resolves a token to the public profile of a live user.
func (s *authService) ValidateToken(ctx context.Context, token string) (*model.Profile, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.Auth("Not Authorized Login Again")
	}

	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, errors.Auth("Invalid token")
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.Auth("User no longer exists")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.TokenVersion != claims.Version {
		return nil, errors.Auth("Token has been revoked")
	}
	return user.Profile(), nil
}

func (s *authService) LogoutEverywhere(ctx context.Context, userID string) error {
	if err := s.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("user not found")
		}
		return fmt.Errorf("revoke tokens: %w", err)
	}
	slog.InfoContext(ctx, "tokens revoked", "user_id", userID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
