package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/store"
)

// Service implements the password account flows.
type Service struct {
	users     store.UserRepository
	sessions  *SessionManager
	hasher    Hasher
	links     *LinkSigner
	notifier  VerificationNotifier
	verifyURL string
	logger    *slog.Logger
}

type ServiceConfig struct {
	Users     store.UserRepository
	Sessions  *SessionManager
	Hasher    Hasher
	Links     *LinkSigner
	Notifier  VerificationNotifier
	VerifyURL string // frontend page that receives ?token=
	Logger    *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = NewBcryptHasher()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:     cfg.Users,
		sessions:  cfg.Sessions,
		hasher:    hasher,
		links:     cfg.Links,
		notifier:  cfg.Notifier,
		verifyURL: cfg.VerifyURL,
		logger:    logger,
	}
}

type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// Signup creates an unverified free account and sends its verification link.
// A delivery failure is logged; the account is kept.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	user := &models.User{
		Email:             input.Email,
		PasswordHash:      hash,
		Name:              input.Name,
		VerificationToken: &token,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	link, err := s.VerificationLink(user.ID, token)
	if err != nil {
		s.logger.Error("failed to sign verification link", "user_id", user.ID, "error", err)
		return user, nil
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyVerification(ctx, user.Email, link); err != nil {
			s.logger.Error("failed to send verification email", "user_id", user.ID, "error", err)
		}
	}

	return user, nil
}

// VerificationLink builds the frontend URL carrying a signed link token.
func (s *Service) VerificationLink(userID, verificationToken string) (string, error) {
	signed, err := s.links.Sign(userID, verificationToken)
	if err != nil {
		return "", err
	}
	return s.verifyURL + "?token=" + url.QueryEscape(signed), nil
}

// Verify consumes a verification link token. It reports alreadyVerified when
// the account behind a valid link had been verified before.
func (s *Service) Verify(ctx context.Context, linkToken string) (alreadyVerified bool, err error) {
	claims, err := s.links.Parse(linkToken)
	if err != nil {
		return false, ErrInvalidVerification
	}

	user, err := s.users.GetByVerificationToken(ctx, claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		// The stored token is cleared on verification, so a reused link lands here.
		owner, ownerErr := s.users.GetByID(ctx, claims.Subject)
		if ownerErr == nil && owner.IsVerified {
			return true, nil
		}
		return false, ErrInvalidVerification
	}
	if err != nil {
		return false, fmt.Errorf("loading user: %w", err)
	}

	if user.ID != claims.Subject {
		return false, ErrInvalidVerification
	}
	if user.IsVerified {
		return true, nil
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return false, fmt.Errorf("marking verified: %w", err)
	}
	return false, nil
}

// ResendVerification mails a fresh link for an unverified account's stored
// token. Unknown and already verified emails are a silent no-op so the
// response never reveals whether an account exists.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if user.IsVerified || user.VerificationToken == nil || *user.VerificationToken == "" {
		return nil
	}

	link, err := s.VerificationLink(user.ID, *user.VerificationToken)
	if err != nil {
		return fmt.Errorf("signing verification link: %w", err)
	}
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.NotifyVerification(ctx, user.Email, link); err != nil {
		return fmt.Errorf("sending verification email: %w", err)
	}
	return nil
}

type LoginInput struct {
	Email    string
	Password string
}

// Login checks credentials and opens a session. Unknown email, wrong password
// and password-less accounts all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, input LoginInput) (*models.User, *models.Session, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("loading user: %w", err)
	}

	if !user.HasPassword() || !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, nil, ErrEmailNotVerified
	}

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout revokes the presented token, if any.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}
