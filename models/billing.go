package models

import "gorm.io/gorm"

// SubscriptionPlan represents the tiers a studio can subscribe to
type SubscriptionPlan struct {
	gorm.Model
	Name        string `gorm:"not null;uniqueIndex" json:"name"` // starter, studio, chain
	Description string `json:"description"`

	Price int `gorm:"not null" json:"price"` // in cents, per billing interval

	// Limits
	MaxTeamMembers int `gorm:"default:1" json:"max_team_members"`
	MaxClients     int `gorm:"default:200" json:"max_clients"`

	// Features
	LoyaltyEnabled   bool `gorm:"default:true" json:"loyalty_enabled"`
	AftercareEnabled bool `gorm:"default:true" json:"aftercare_enabled"`
	ReportsEnabled   bool `gorm:"default:false" json:"reports_enabled"`

	// For display purposes
	DisplayPrice string `gorm:"-" json:"display_price"` // e.g. "$19"
	IsPopular    bool   `gorm:"default:false" json:"is_popular"`

	StripePriceID   string `json:"stripe_price_id"`                          // price_xxx from Stripe dashboard
	BillingInterval string `json:"billing_interval" gorm:"default:'month'"`  // month, year
	TrialDays       int    `gorm:"default:14" json:"trial_days"`
}

// CreateDefaultPlans seeds the subscription tiers on first migration
func CreateDefaultPlans(db *gorm.DB) error {
	defaultPlans := []SubscriptionPlan{
		{
			Name:           "starter",
			Description:    "Single piercer: appointments, clients and POS",
			Price:          1900, // $19
			MaxTeamMembers: 1,
			MaxClients:     200,
			ReportsEnabled: false,
			DisplayPrice:   "$19",
		},
		{
			Name:           "studio",
			Description:    "Full studio: team permissions, loyalty programs and reports",
			Price:          4900, // $49
			MaxTeamMembers: 8,
			MaxClients:     2000,
			ReportsEnabled: true,
			DisplayPrice:   "$49",
			IsPopular:      true,
		},
		{
			Name:           "chain",
			Description:    "Multi-location studios with unlimited clients",
			Price:          9900, // $99
			MaxTeamMembers: 50,
			MaxClients:     100000,
			ReportsEnabled: true,
			DisplayPrice:   "$99",
		},
	}
	for _, plan := range defaultPlans {
		if err := db.FirstOrCreate(&plan, "name = ?", plan.Name).Error; err != nil {
			return err
		}
	}
	return nil
}
