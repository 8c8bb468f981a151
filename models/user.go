package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a studio account in the system. Owners carry the
// subscription; staff accounts are linked to an owner through TeamMember.
type User struct {
	gorm.Model

	// Authentication fields
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`
	OTP           string `json:"-"`
	OTPExpiresAt  time.Time
	OTPVerified   bool `gorm:"default:false"`
	TokenVersion  int  `gorm:"default:0" json:"-"`

	// Google OAuth fields
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	GoogleImageURL *string `json:"google_image_url,omitempty"`

	// Profile information
	Name       *string `json:"name,omitempty"`
	StudioName *string `json:"studio_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
	Timezone   string  `gorm:"default:'UTC'" json:"timezone"`
	Language   string  `gorm:"default:'es'" json:"language"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`
	IsAdmin  bool `gorm:"default:false" json:"is_admin"`

	// Subscription information
	PlanID             *uint      `json:"plan_id,omitempty"`
	PlanName           string     `gorm:"default:'trial'" json:"plan_name"` // trial, starter, studio, chain
	SubscriptionStatus string     `gorm:"default:'trialing'" json:"subscription_status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`

	// Stripe integration
	StripeCustomerID     *string `gorm:"index" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string `gorm:"index" json:"stripe_subscription_id,omitempty"`
	DefaultCurrency      string  `gorm:"default:'usd'" json:"default_currency"`

	// Relations
	Clients      []Client      `gorm:"foreignKey:UserID" json:"clients,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:UserID" json:"appointments,omitempty"`
	LoyaltyPlans []LoyaltyPlan `gorm:"foreignKey:UserID" json:"loyalty_plans,omitempty"`
	Products     []Product     `gorm:"foreignKey:UserID" json:"products,omitempty"`
	Sales        []Sale        `gorm:"foreignKey:UserID" json:"sales,omitempty"`
	TeamMembers  []TeamMember  `gorm:"foreignKey:OwnerID" json:"team_members,omitempty"`
}

// RefreshToken stores issued refresh tokens so they can be revoked on logout.
type RefreshToken struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`

	// Relations
	User User `json:"-"`
}
