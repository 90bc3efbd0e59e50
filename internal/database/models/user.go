package models

import (
	"time"

	"github.com/hugh/go-folio/internal/plans"
	"gorm.io/gorm"
)

type User struct {
	ID                string     `gorm:"primaryKey;size:32" json:"user_id" bson:"user_id"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email" bson:"email"`
	PasswordHash      string     `json:"-" bson:"password_hash,omitempty"`
	Name              string     `json:"name" bson:"name"`
	Picture           *string    `json:"picture" bson:"picture"`
	Plan              plans.Tier `gorm:"column:subscription_plan;size:16;not null" json:"subscription_plan" bson:"subscription_plan"`
	IsVerified        bool       `gorm:"not null;default:false" json:"is_verified" bson:"is_verified"`
	VerificationToken *string    `gorm:"index" json:"-" bson:"verification_token,omitempty"`
	CreatedAt         time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" bson:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.SetDefaults()
	return nil
}

// SetDefaults fills the generated fields of a new user.
func (u *User) SetDefaults() {
	if u.ID == "" {
		u.ID = NewID("user")
	}
	if u.Plan == "" {
		u.Plan = plans.Free
	}
}

// HasPassword reports whether the account can sign in with a password.
// Accounts created through an external identity provider have none.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
