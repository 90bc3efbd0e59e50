package portfolios

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gosimple/slug"

	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/storage"
	"github.com/hugh/go-folio/internal/store"
	"github.com/hugh/go-folio/pkg/crypto"
)

const (
	listLimit       = 100
	slugSuffixLen   = 6
	publishAttempts = 3
)

var (
	ErrNotFound        = errors.New("portfolio not found")
	ErrInvalidData     = errors.New("invalid portfolio data")
	ErrUploadsDisabled = errors.New("image uploads are not configured")
)

var themeColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// QuotaError carries the denial so the caller can render an upgrade prompt.
type QuotaError struct {
	Decision plans.Decision
}

func (e *QuotaError) Error() string {
	return e.Decision.Message()
}

// ValidationError lists field problems and matches ErrInvalidData.
type ValidationError struct {
	Details map[string]string
}

func (e *ValidationError) Error() string {
	return ErrInvalidData.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidData
}

type ImageUploader interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
	Constraints() storage.Constraints
}

type Service struct {
	repo     store.PortfolioRepository
	enforcer *plans.Enforcer
	uploader ImageUploader
	logger   *slog.Logger
}

func NewService(repo store.PortfolioRepository, enforcer *plans.Enforcer, uploader ImageUploader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		enforcer: enforcer,
		uploader: uploader,
		logger:   logger,
	}
}

type CreateInput struct {
	Name           string              `json:"name"`
	Bio            string              `json:"bio"`
	Role           string              `json:"role"`
	Skills         []string            `json:"skills"`
	Projects       []models.Project    `json:"projects"`
	Education      []models.Education  `json:"education"`
	Experience     []models.Experience `json:"experience"`
	Template       string              `json:"template"`
	ThemeColor     string              `json:"theme_color"`
	GitHubUsername *string             `json:"github_username"`
}

func (in *CreateInput) validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(in.Name) == "" {
		errs["name"] = "name is required"
	}
	if in.Template != "" && !models.IsValidTemplate(in.Template) {
		errs["template"] = "template must be minimal, modern or creative"
	}
	if in.ThemeColor != "" && !themeColorRe.MatchString(in.ThemeColor) {
		errs["theme_color"] = "theme_color must be a hex color"
	}
	for i, p := range in.Projects {
		if strings.TrimSpace(p.Title) == "" {
			errs[fmt.Sprintf("projects[%d].title", i)] = "title is required"
		}
	}
	return errs
}

// imageConstraints applies the default size cap even when uploads are off.
func (s *Service) imageConstraints() storage.Constraints {
	if s.uploader == nil {
		return storage.DefaultConstraints()
	}
	return s.uploader.Constraints()
}

// DecodeCreateInput parses the JSON portfolio document sent on create.
func DecodeCreateInput(data []byte) (*CreateInput, error) {
	var in CreateInput
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&in); err != nil {
		return nil, &ValidationError{Details: map[string]string{"data": "must be a JSON object"}}
	}
	if errs := in.validate(); len(errs) > 0 {
		return nil, &ValidationError{Details: errs}
	}
	return &in, nil
}

// Create checks the owner's quota before the document is even parsed, and
// rejects an oversized image before any upload is attempted.
func (s *Service) Create(ctx context.Context, user *models.User, data []byte, image []byte) (*models.Portfolio, error) {
	decision, err := s.enforcer.CheckCreateAllowed(ctx, user.ID, user.Plan)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &QuotaError{Decision: decision}
	}

	in, err := DecodeCreateInput(data)
	if err != nil {
		return nil, err
	}

	p := &models.Portfolio{
		ID:             models.NewID("portfolio"),
		UserID:         user.ID,
		Name:           strings.TrimSpace(in.Name),
		Bio:            in.Bio,
		Role:           in.Role,
		Skills:         in.Skills,
		Projects:       in.Projects,
		Education:      in.Education,
		Experience:     in.Experience,
		Template:       in.Template,
		ThemeColor:     in.ThemeColor,
		GitHubUsername: in.GitHubUsername,
	}

	if len(image) > 0 {
		if max := s.imageConstraints().MaxBytes; max > 0 && int64(len(image)) > max {
			return nil, storage.ErrImageTooLarge
		}
		if s.uploader == nil {
			return nil, ErrUploadsDisabled
		}
		url, err := s.uploader.Upload(ctx, storage.ProfileImageKey(p.ID), image)
		if err != nil {
			return nil, err
		}
		p.ProfileImage = &url
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating portfolio: %w", err)
	}

	s.logger.Info("portfolio created", "portfolio_id", p.ID, "user_id", user.ID)
	return p, nil
}

func (s *Service) List(ctx context.Context, user *models.User) ([]models.Portfolio, error) {
	list, err := s.repo.ListByUser(ctx, user.ID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("listing portfolios: %w", err)
	}
	if list == nil {
		list = []models.Portfolio{}
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, user *models.User, id string) (*models.Portfolio, error) {
	p, err := s.repo.Get(ctx, id, user.ID)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

type UpdateInput struct {
	Name           *string             `json:"name"`
	Bio            *string             `json:"bio"`
	Role           *string             `json:"role"`
	Skills         []string            `json:"skills"`
	Projects       []models.Project    `json:"projects"`
	Education      []models.Education  `json:"education"`
	Experience     []models.Experience `json:"experience"`
	Template       *string             `json:"template"`
	ThemeColor     *string             `json:"theme_color"`
	GitHubUsername *string             `json:"github_username"`
}

func (in *UpdateInput) Validate() map[string]string {
	errs := make(map[string]string)
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		errs["name"] = "name cannot be empty"
	}
	if in.Template != nil && !models.IsValidTemplate(*in.Template) {
		errs["template"] = "template must be minimal, modern or creative"
	}
	if in.ThemeColor != nil && !themeColorRe.MatchString(*in.ThemeColor) {
		errs["theme_color"] = "theme_color must be a hex color"
	}
	return errs
}

// Update applies only the provided fields.
func (s *Service) Update(ctx context.Context, user *models.User, id string, in UpdateInput) (*models.Portfolio, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Details: errs}
	}

	p, err := s.repo.Update(ctx, id, user.ID, store.PortfolioUpdate{
		Name:           in.Name,
		Bio:            in.Bio,
		Role:           in.Role,
		Skills:         in.Skills,
		Projects:       in.Projects,
		Education:      in.Education,
		Experience:     in.Experience,
		Template:       in.Template,
		ThemeColor:     in.ThemeColor,
		GitHubUsername: in.GitHubUsername,
	})
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, user *models.User, id string) error {
	return notFound(s.repo.Delete(ctx, id, user.ID))
}

// Publish marks the portfolio public under a fresh slug derived from its name.
func (s *Service) Publish(ctx context.Context, user *models.User, id string) (string, error) {
	p, err := s.repo.Get(ctx, id, user.ID)
	if err != nil {
		return "", notFound(err)
	}

	base := slug.Make(p.Name)
	if base == "" {
		base = "portfolio"
	}

	for attempt := 0; attempt < publishAttempts; attempt++ {
		suffix, err := crypto.RandomHex(slugSuffixLen)
		if err != nil {
			return "", err
		}
		candidate := base + "-" + suffix

		err = s.repo.Publish(ctx, id, user.ID, candidate)
		if err == nil {
			s.logger.Info("portfolio published", "portfolio_id", id, "slug", candidate)
			return candidate, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return "", notFound(err)
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, publishAttempts)
}

// GetPublic returns a published portfolio without its owner.
func (s *Service) GetPublic(ctx context.Context, slugValue string) (*models.Portfolio, error) {
	p, err := s.repo.GetPublishedBySlug(ctx, slugValue)
	if err != nil {
		return nil, notFound(err)
	}
	public := p.Public()
	return &public, nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
