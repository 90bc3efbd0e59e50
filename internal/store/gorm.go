package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
	"gorm.io/gorm"
)

// GormStore implements Store on a relational database.
type GormStore struct {
	db         *gorm.DB
	users      *gormUsers
	sessions   *gormSessions
	portfolios *gormPortfolios
	orders     *gormOrders
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:         db,
		users:      &gormUsers{db: db},
		sessions:   &gormSessions{db: db},
		portfolios: &gormPortfolios{db: db},
		orders:     &gormOrders{db: db},
	}
}

func (s *GormStore) Users() UserRepository           { return s.users }
func (s *GormStore) Sessions() SessionRepository     { return s.sessions }
func (s *GormStore) Portfolios() PortfolioRepository { return s.portfolios }
func (s *GormStore) Orders() OrderRepository         { return s.orders }

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *gormUsers) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *gormUsers) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.first(ctx, "verification_token = ?", token)
}

func (r *gormUsers) MarkVerified(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_verified":        true,
			"verification_token": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormUsers) SetPlan(ctx context.Context, id string, tier plans.Tier) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("subscription_plan", tier)
	if res.Error != nil {
		return false, fmt.Errorf("setting plan: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormUsers) UpdateProfile(ctx context.Context, id, name string, picture *string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":    name,
			"picture": picture,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormSessions struct {
	db *gorm.DB
}

func (r *gormSessions) Create(ctx context.Context, session *models.Session) error {
	return translate(r.db.WithContext(ctx).Create(session).Error)
}

func (r *gormSessions) Get(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("session_token = ?", token).First(&session).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *gormSessions) Delete(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("session_token = ?", token).Delete(&models.Session{}).Error
}

type gormPortfolios struct {
	db *gorm.DB
}

func (r *gormPortfolios) Create(ctx context.Context, portfolio *models.Portfolio) error {
	return translate(r.db.WithContext(ctx).Create(portfolio).Error)
}

func (r *gormPortfolios) Get(ctx context.Context, id, userID string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *gormPortfolios) ListByUser(ctx context.Context, userID string, limit int) ([]models.Portfolio, error) {
	var list []models.Portfolio
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *gormPortfolios) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Portfolio{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *gormPortfolios) Update(ctx context.Context, id, userID string, upd PortfolioUpdate) (*models.Portfolio, error) {
	fields := updateColumns(upd)
	fields["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&models.Portfolio{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id, userID)
}

func (r *gormPortfolios) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Portfolio{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormPortfolios) Publish(ctx context.Context, id, userID, slug string) error {
	res := r.db.WithContext(ctx).Model(&models.Portfolio{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_published": true,
			"slug":         slug,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormPortfolios) GetPublishedBySlug(ctx context.Context, slug string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := r.db.WithContext(ctx).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// updateColumns maps the provided fields to column values.
func updateColumns(upd PortfolioUpdate) map[string]interface{} {
	fields := make(map[string]interface{})
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Bio != nil {
		fields["bio"] = *upd.Bio
	}
	if upd.Role != nil {
		fields["role"] = *upd.Role
	}
	if upd.Skills != nil {
		fields["skills"] = models.JSONList[string](upd.Skills)
	}
	if upd.Projects != nil {
		fields["projects"] = models.JSONList[models.Project](upd.Projects)
	}
	if upd.Education != nil {
		fields["education"] = models.JSONList[models.Education](upd.Education)
	}
	if upd.Experience != nil {
		fields["experience"] = models.JSONList[models.Experience](upd.Experience)
	}
	if upd.Template != nil {
		fields["template"] = *upd.Template
	}
	if upd.ThemeColor != nil {
		fields["theme_color"] = *upd.ThemeColor
	}
	if upd.GitHubUsername != nil {
		fields["github_username"] = *upd.GitHubUsername
	}
	return fields
}

type gormOrders struct {
	db *gorm.DB
}

func (r *gormOrders) Create(ctx context.Context, order *models.PaymentOrder) error {
	return translate(r.db.WithContext(ctx).Create(order).Error)
}

func (r *gormOrders) MarkPaid(ctx context.Context, orderID, paymentID string) error {
	res := r.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusPaid,
			"payment_id": paymentID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*GormStore)(nil)
