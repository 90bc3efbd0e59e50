package models

import "time"

type Session struct {
	Token     string    `gorm:"primaryKey;column:session_token;size:255" bson:"session_token"`
	UserID    string    `gorm:"index;not null;size:32" bson:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

func (Session) TableName() string {
	return "user_sessions"
}

// ExpiredAt reports whether the session is no longer valid at now.
// A session whose expiry equals now is already expired.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
