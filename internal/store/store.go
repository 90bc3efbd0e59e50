package store

import (
	"context"
	"errors"

	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	// MarkVerified sets is_verified and clears the verification token.
	MarkVerified(ctx context.Context, id string) error
	// SetPlan assigns the tier and reports whether a user matched.
	SetPlan(ctx context.Context, id string, tier plans.Tier) (bool, error)
	UpdateProfile(ctx context.Context, id, name string, picture *string) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	// Delete removes the session. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error
}

// PortfolioUpdate holds the fields a caller wants changed. Nil means unchanged.
type PortfolioUpdate struct {
	Name           *string
	Bio            *string
	Role           *string
	Skills         []string
	Projects       []models.Project
	Education      []models.Education
	Experience     []models.Experience
	Template       *string
	ThemeColor     *string
	GitHubUsername *string
}

type PortfolioRepository interface {
	Create(ctx context.Context, portfolio *models.Portfolio) error
	Get(ctx context.Context, id, userID string) (*models.Portfolio, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Portfolio, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Update(ctx context.Context, id, userID string, upd PortfolioUpdate) (*models.Portfolio, error)
	Delete(ctx context.Context, id, userID string) error
	Publish(ctx context.Context, id, userID, slug string) error
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Portfolio, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.PaymentOrder) error
	MarkPaid(ctx context.Context, orderID, paymentID string) error
}

// Store groups the repositories over one backing database.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	Portfolios() PortfolioRepository
	Orders() OrderRepository
	Ping(ctx context.Context) error
	Close() error
}
