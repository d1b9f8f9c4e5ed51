// Package auth implements account management: registration, login,
// password reset, and the JWT tokens that authenticate API requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aviary-ai/aviary/internal/postgres"
)

// Sentinel errors for account operations.
var (
	// ErrEmailTaken indicates registration with an already-registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login. The same error covers
	// unknown email and wrong password so responses don't reveal which.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// Querier defines the database operations the auth service needs.
// Interfaces are defined by the consumer, not the provider.
type Querier interface {
	CreateUser(ctx context.Context, arg postgres.CreateUserParams) (postgres.User, error)
	GetUser(ctx context.Context, id pgtype.UUID) (postgres.User, error)
	GetUserByEmail(ctx context.Context, email string) (postgres.User, error)
	UpdateUserPassword(ctx context.Context, arg postgres.UpdateUserPasswordParams) error
}

// Mailer sends the password reset mail. Implemented by internal/mail.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// User is the account representation exposed to callers.
// The password hash never leaves this package.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Config holds the service's token and reset-mail settings.
type Config struct {
	TokenTTL     time.Duration
	ResetTTL     time.Duration
	ResetURLBase string
}

// Service implements account operations over a Querier.
// Service is safe for concurrent use by multiple goroutines.
type Service struct {
	querier Querier
	tokens  *TokenIssuer
	mailer  Mailer
	cfg     Config
	logger  *slog.Logger
}

// NewService creates an auth Service. mailer may be nil, in which case
// password reset mails are logged instead of sent.
func NewService(querier Querier, tokens *TokenIssuer, mailer Mailer, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		querier: querier,
		tokens:  tokens,
		mailer:  mailer,
		cfg:     cfg,
		logger:  logger,
	}
}

// Register creates a new account and returns it with a fresh access token.
func (s *Service) Register(ctx context.Context, email, name, password string) (User, string, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, "", err
	}

	row, err := s.querier.CreateUser(ctx, postgres.CreateUserParams{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, "", ErrEmailTaken
		}
		return User{}, "", fmt.Errorf("create user: %w", err)
	}

	user := toUser(row)
	token, err := s.tokens.Issue(user.ID, PurposeAccess, s.cfg.TokenTTL)
	if err != nil {
		return User{}, "", err
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login verifies credentials and returns the account with a fresh access token.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	row, err := s.querier.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", fmt.Errorf("get user by email: %w", err)
	}

	if !CheckPassword(row.PasswordHash, password) {
		return User{}, "", ErrInvalidCredentials
	}

	user := toUser(row)
	token, err := s.tokens.Issue(user.ID, PurposeAccess, s.cfg.TokenTTL)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// GetUser returns the account for the given user ID.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (User, error) {
	row, err := s.querier.GetUser(ctx, postgres.PgUUID(userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return toUser(row), nil
}

// RequestPasswordReset issues a reset token for the given email and mails a
// reset link. Unknown emails succeed silently so the endpoint doesn't reveal
// which addresses are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	row, err := s.querier.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("get user by email: %w", err)
	}

	token, err := s.tokens.Issue(postgres.FromPgUUID(row.ID), PurposeReset, s.cfg.ResetTTL)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s?token=%s", s.cfg.ResetURLBase, token)
	if s.mailer == nil {
		s.logger.Info("password reset link (no mailer configured)", "email", email, "url", resetURL)
		return nil
	}
	if err := s.mailer.SendPasswordReset(ctx, email, resetURL); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	s.logger.Info("password reset mail sent", "user_id", postgres.FromPgUUID(row.ID))
	return nil
}

// ResetPassword validates a reset token and replaces the account password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.Verify(token, PurposeReset)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.querier.UpdateUserPassword(ctx, postgres.UpdateUserPasswordParams{
		ID:           postgres.PgUUID(userID),
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password reset", "user_id", userID)
	return nil
}

// VerifyAccessToken validates an access token and returns the user ID.
// Used by the API auth middleware.
func (s *Service) VerifyAccessToken(token string) (uuid.UUID, error) {
	return s.tokens.Verify(token, PurposeAccess)
}

func toUser(row postgres.User) User {
	return User{
		ID:        postgres.FromPgUUID(row.ID),
		Email:     row.Email,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.Time,
	}
}
