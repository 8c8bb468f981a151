package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Loyalty plan condition types
const (
	ConditionVisits   = "visits"
	ConditionSpending = "spending"
	ConditionPoints   = "points"
	ConditionBirthday = "birthday"
)

// Loyalty plan reward types
const (
	RewardDiscount = "discount"
	RewardFreeItem = "free_item"
	RewardCustom   = "custom"
)

// PlanCondition is the tagged descriptor deciding when a reward becomes
// claimable. Only the threshold matching Type is meaningful; the engine
// treats an unknown type or a missing threshold as "not eligible" rather
// than an error.
type PlanCondition struct {
	Type      string  `json:"type"` // visits, spending, points, birthday
	MinVisits int     `json:"min_visits,omitempty"`
	MinAmount float64 `json:"min_amount,omitempty"`
	MinPoints int     `json:"min_points,omitempty"`
}

// PlanReward is the tagged descriptor of what a claim grants.
type PlanReward struct {
	Type               string  `json:"type"` // discount, free_item, custom
	DiscountPercentage float64 `json:"discount_percentage,omitempty"`
	ItemName           string  `json:"item_name,omitempty"`
	Description        string  `json:"description,omitempty"`
}

func (c PlanCondition) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *PlanCondition) Scan(value interface{}) error {
	return scanJSON(value, c, "PlanCondition")
}

func (r PlanReward) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *PlanReward) Scan(value interface{}) error {
	return scanJSON(value, r, "PlanReward")
}

func scanJSON(value, dest interface{}, name string) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported type for %s: %T", name, value)
	}
}

// LoyaltyPlan defines a reward policy owned by a studio account.
type LoyaltyPlan struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name        string        `gorm:"not null" json:"name"`
	Description string        `json:"description"`
	IsActive    bool          `gorm:"default:true" json:"is_active"`
	Condition   PlanCondition `gorm:"type:jsonb" json:"condition"`
	Reward      PlanReward    `gorm:"type:jsonb" json:"reward"`

	// Relations
	Enrollments []ClientLoyaltyEnrollment `gorm:"foreignKey:PlanID" json:"enrollments,omitempty"`
}

// ClientLoyaltyEnrollment links one client to one loyalty plan. A client may
// hold several enrollments, but at most one per plan.
type ClientLoyaltyEnrollment struct {
	gorm.Model
	UserID   uint `gorm:"not null;index" json:"user_id"`
	ClientID uint `gorm:"not null;uniqueIndex:idx_enrollment_client_plan" json:"client_id"`
	PlanID   uint `gorm:"not null;uniqueIndex:idx_enrollment_client_plan" json:"plan_id"`

	Points         int        `gorm:"default:0" json:"points"`
	TotalSpent     float64    `gorm:"default:0" json:"total_spent"`
	RewardsClaimed int        `gorm:"default:0" json:"rewards_claimed"`
	LastRewardAt   *time.Time `json:"last_reward_at,omitempty"`

	// Relations
	Client Client      `json:"-"`
	Plan   LoyaltyPlan `json:"plan,omitempty"`
}

// LoyaltyRedemption is an immutable history record of a claimed reward.
// Redemption does not reset the progress that earned it (milestone
// semantics).
type LoyaltyRedemption struct {
	gorm.Model
	EnrollmentID uint `gorm:"not null;index" json:"enrollment_id"`

	RewardType  string  `gorm:"not null" json:"reward_type"`
	RewardValue float64 `json:"reward_value"`
	Description string  `json:"description"`
	SaleID      *uint   `json:"sale_id,omitempty"`

	// Relations
	Enrollment ClientLoyaltyEnrollment `json:"-"`
}
