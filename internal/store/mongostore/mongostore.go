// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection      = "users"
	sessionsCollection   = "user_sessions"
	portfoliosCollection = "portfolios"
	ordersCollection     = "payment_orders"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to uri, verifies the connection and ensures indexes.
func New(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "verification_token", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		sessionsCollection: {
			{Keys: bson.D{{Key: "session_token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		portfoliosCollection: {
			{Keys: bson.D{{Key: "portfolio_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("creating %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Users() store.UserRepository {
	return &users{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Sessions() store.SessionRepository {
	return &sessions{coll: s.db.Collection(sessionsCollection)}
}

func (s *Store) Portfolios() store.PortfolioRepository {
	return &portfolios{coll: s.db.Collection(portfoliosCollection)}
}

func (s *Store) Orders() store.OrderRepository {
	return &orders{coll: s.db.Collection(ordersCollection)}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	}
	return err
}

type users struct {
	coll *mongo.Collection
}

func (r *users) Create(ctx context.Context, user *models.User) error {
	user.SetDefaults()
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, user)
	return translate(err)
}

func (r *users) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	// Documents are schemaless; reject a plan we do not recognise.
	if _, err := plans.ParseTier(string(user.Plan)); err != nil {
		return nil, fmt.Errorf("decoding user %s: %w", user.ID, err)
	}
	return &user, nil
}

func (r *users) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"user_id": id})
}

func (r *users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *users) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"verification_token": token})
}

func (r *users) MarkVerified(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": id},
		bson.M{
			"$set":   bson.M{"is_verified": true, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"verification_token": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *users) SetPlan(ctx context.Context, id string, tier plans.Tier) (bool, error) {
	if !tier.Valid() {
		return false, fmt.Errorf("%w: %q", plans.ErrUnknownTier, string(tier))
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": id},
		bson.M{"$set": bson.M{"subscription_plan": string(tier), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("setting plan: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *users) UpdateProfile(ctx context.Context, id, name string, picture *string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": id},
		bson.M{"$set": bson.M{"name": name, "picture": picture, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

type sessions struct {
	coll *mongo.Collection
}

func (r *sessions) Create(ctx context.Context, session *models.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, session)
	return translate(err)
}

func (r *sessions) Get(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := r.coll.FindOne(ctx, bson.M{"session_token": token}).Decode(&session); err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *sessions) Delete(ctx context.Context, token string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"session_token": token})
	return err
}

type portfolios struct {
	coll *mongo.Collection
}

func (r *portfolios) Create(ctx context.Context, p *models.Portfolio) error {
	p.SetDefaults()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err)
}

func (r *portfolios) findOne(ctx context.Context, filter bson.M) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *portfolios) Get(ctx context.Context, id, userID string) (*models.Portfolio, error) {
	return r.findOne(ctx, bson.M{"portfolio_id": id, "user_id": userID})
}

func (r *portfolios) ListByUser(ctx context.Context, userID string, limit int) ([]models.Portfolio, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	var list []models.Portfolio
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *portfolios) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"user_id": userID})
}

func (r *portfolios) Update(ctx context.Context, id, userID string, upd store.PortfolioUpdate) (*models.Portfolio, error) {
	set := setFields(upd)
	set["updated_at"] = time.Now().UTC()

	filter := bson.M{"portfolio_id": id, "user_id": userID}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, translate(err)
	}
	if res.MatchedCount == 0 {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *portfolios) Delete(ctx context.Context, id, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"portfolio_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *portfolios) Publish(ctx context.Context, id, userID, slug string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"portfolio_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_published": true, "slug": slug, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *portfolios) GetPublishedBySlug(ctx context.Context, slug string) (*models.Portfolio, error) {
	return r.findOne(ctx, bson.M{"slug": slug, "is_published": true})
}

func setFields(upd store.PortfolioUpdate) bson.M {
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Role != nil {
		set["role"] = *upd.Role
	}
	if upd.Skills != nil {
		set["skills"] = upd.Skills
	}
	if upd.Projects != nil {
		set["projects"] = upd.Projects
	}
	if upd.Education != nil {
		set["education"] = upd.Education
	}
	if upd.Experience != nil {
		set["experience"] = upd.Experience
	}
	if upd.Template != nil {
		set["template"] = *upd.Template
	}
	if upd.ThemeColor != nil {
		set["theme_color"] = *upd.ThemeColor
	}
	if upd.GitHubUsername != nil {
		set["github_username"] = *upd.GitHubUsername
	}
	return set
}

type orders struct {
	coll *mongo.Collection
}

func (r *orders) Create(ctx context.Context, order *models.PaymentOrder) error {
	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now
	if order.Status == "" {
		order.Status = models.OrderStatusCreated
	}
	_, err := r.coll.InsertOne(ctx, order)
	return translate(err)
}

func (r *orders) MarkPaid(ctx context.Context, orderID, paymentID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"order_id": orderID},
		bson.M{"$set": bson.M{"status": models.OrderStatusPaid, "payment_id": paymentID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Store = (*Store)(nil)
