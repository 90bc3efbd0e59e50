package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/database"
	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestPassword = "testpassword123"

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Every pooled connection to :memory: would open a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// CreateTestUser creates a verified user on the given plan
func CreateTestUser(t *testing.T, db *gorm.DB, tier plans.Tier) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash: hash,
		Name:         "Test User",
		Plan:         tier,
		IsVerified:   true,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestSession stores a session for user expiring after ttl and returns its token
func CreateTestSession(t *testing.T, db *gorm.DB, user *models.User, ttl time.Duration) string {
	t.Helper()

	session := &models.Session{
		Token:     "session_" + uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(ttl),
		CreatedAt: time.Now().UTC(),
	}

	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}

	return session.Token
}

// CreateTestPortfolio creates a portfolio owned by user
func CreateTestPortfolio(t *testing.T, db *gorm.DB, user *models.User, name string) *models.Portfolio {
	t.Helper()

	p := &models.Portfolio{
		UserID: user.ID,
		Name:   name,
		Bio:    "Test bio",
		Role:   "Engineer",
		Skills: models.JSONList[string]{"go"},
	}

	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}

	return p
}

// AuthenticatedRequest creates an HTTP request with a bearer session token
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// CookieRequest creates an HTTP request carrying the session cookie
func CookieRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()
	req := UnauthenticatedRequest(t, method, path, body)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	return req
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB       *gorm.DB
	Store    *store.GormStore
	Sessions *auth.SessionManager
	User     *models.User
	Token    string
}

// NewTestContext creates a complete test setup with DB, a free user and a live session
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	st := store.NewGormStore(db)
	user := CreateTestUser(t, db, plans.Free)
	token := CreateTestSession(t, db, user, auth.DefaultSessionTTL)

	return &TestSetup{
		DB:       db,
		Store:    st,
		Sessions: auth.NewSessionManager(st.Sessions(), st.Users(), auth.DefaultSessionTTL),
		User:     user,
		Token:    token,
	}
}

// Reload reads the user back from the database
func (ts *TestSetup) Reload(t *testing.T, user *models.User) *models.User {
	t.Helper()
	var fresh models.User
	if err := ts.DB.First(&fresh, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	return &fresh
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
