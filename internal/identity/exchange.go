package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/store"
)

type SessionIssuer interface {
	CreateSessionWithToken(ctx context.Context, userID, token string) (*models.Session, error)
}

type Exchanger struct {
	provider Provider
	users    store.UserRepository
	sessions SessionIssuer
	logger   *slog.Logger
}

func NewExchanger(provider Provider, users store.UserRepository, sessions SessionIssuer, logger *slog.Logger) *Exchanger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exchanger{
		provider: provider,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// Exchange signs in through the external provider. Existing accounts only
// have their display name and picture refreshed; plan and verification state
// are never touched. The session is keyed by the provider-issued token.
func (e *Exchanger) Exchange(ctx context.Context, sessionID string) (*models.User, *models.Session, error) {
	if sessionID == "" {
		return nil, nil, &ExchangeError{Kind: ProviderRejected, Err: errors.New("session id is required")}
	}

	claims, err := e.provider.SessionData(ctx, sessionID)
	if err != nil {
		var xerr *ExchangeError
		if errors.As(err, &xerr) {
			return nil, nil, err
		}
		return nil, nil, &ExchangeError{Kind: ProviderUnreachable, Err: err}
	}

	user, err := e.upsert(ctx, claims)
	if err != nil {
		return nil, nil, err
	}

	session, err := e.sessions.CreateSessionWithToken(ctx, user.ID, claims.SessionToken)
	if err != nil {
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}

	return user, session, nil
}

func (e *Exchanger) upsert(ctx context.Context, claims *Claims) (*models.User, error) {
	user, err := e.users.GetByEmail(ctx, claims.Email)
	switch {
	case err == nil:
		if err := e.users.UpdateProfile(ctx, user.ID, claims.Name, claims.Picture); err != nil {
			return nil, fmt.Errorf("refreshing profile: %w", err)
		}
		user.Name = claims.Name
		user.Picture = claims.Picture
		return user, nil

	case errors.Is(err, store.ErrNotFound):
		user = &models.User{
			Email:      claims.Email,
			Name:       claims.Name,
			Picture:    claims.Picture,
			Plan:       plans.Free,
			IsVerified: true,
		}
		if err := e.users.Create(ctx, user); err != nil {
			// Lost a race with a concurrent first sign-in for the same email.
			if errors.Is(err, store.ErrDuplicate) {
				return e.users.GetByEmail(ctx, claims.Email)
			}
			return nil, fmt.Errorf("creating user: %w", err)
		}
		e.logger.Info("user created from external identity", "user_id", user.ID)
		return user, nil

	default:
		return nil, fmt.Errorf("looking up user: %w", err)
	}
}
