package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TemplateMinimal  = "minimal"
	TemplateModern   = "modern"
	TemplateCreative = "creative"

	DefaultThemeColor = "#4F46E5"
)

func IsValidTemplate(t string) bool {
	switch t {
	case TemplateMinimal, TemplateModern, TemplateCreative:
		return true
	}
	return false
}

type Project struct {
	Title       string   `json:"title" bson:"title"`
	Description string   `json:"description" bson:"description"`
	TechStack   []string `json:"tech_stack" bson:"tech_stack"`
	Link        *string  `json:"link" bson:"link"`
	GitHubLink  *string  `json:"github_link" bson:"github_link"`
}

type Education struct {
	Degree      string `json:"degree" bson:"degree"`
	Institution string `json:"institution" bson:"institution"`
	Year        string `json:"year" bson:"year"`
}

type Experience struct {
	Title       string `json:"title" bson:"title"`
	Company     string `json:"company" bson:"company"`
	Duration    string `json:"duration" bson:"duration"`
	Description string `json:"description" bson:"description"`
}

type Portfolio struct {
	ID             string               `gorm:"primaryKey;size:32" json:"portfolio_id" bson:"portfolio_id"`
	UserID         string               `gorm:"index;not null;size:32" json:"user_id,omitempty" bson:"user_id"`
	Name           string               `gorm:"not null" json:"name" bson:"name"`
	Bio            string               `json:"bio" bson:"bio"`
	Role           string               `json:"role" bson:"role"`
	Skills         JSONList[string]     `json:"skills" bson:"skills"`
	Projects       JSONList[Project]    `json:"projects" bson:"projects"`
	Education      JSONList[Education]  `json:"education" bson:"education"`
	Experience     JSONList[Experience] `json:"experience" bson:"experience"`
	Template       string               `gorm:"size:16;not null" json:"template" bson:"template"`
	ThemeColor     string               `gorm:"size:16;not null" json:"theme_color" bson:"theme_color"`
	IsPublished    bool                 `gorm:"not null;default:false" json:"is_published" bson:"is_published"`
	Slug           *string              `gorm:"uniqueIndex;size:128" json:"slug" bson:"slug,omitempty"`
	GitHubUsername *string              `gorm:"column:github_username" json:"github_username" bson:"github_username"`
	ProfileImage   *string              `json:"profile_image" bson:"profile_image"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	p.SetDefaults()
	return nil
}

func (p *Portfolio) SetDefaults() {
	if p.ID == "" {
		p.ID = NewID("portfolio")
	}
	if p.Template == "" {
		p.Template = TemplateMinimal
	}
	if p.ThemeColor == "" {
		p.ThemeColor = DefaultThemeColor
	}
}

// Public returns a copy suitable for unauthenticated readers, without the owner.
func (p Portfolio) Public() Portfolio {
	p.UserID = ""
	return p
}
