package loyalty

import (
	"fmt"
	"time"

	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

// Eligibility is the result of evaluating one enrollment against its plan.
// Discount is set only when the plan's reward carries a discount percentage.
type Eligibility struct {
	Eligible bool     `json:"eligible"`
	Reason   string   `json:"reason,omitempty"`
	Discount *float64 `json:"discount,omitempty"`
}

// BestDiscount describes the highest eligible discount across a client's
// enrollments.
type BestDiscount struct {
	EnrollmentID uint    `json:"enrollment_id"`
	PlanID       uint    `json:"plan_id"`
	PlanName     string  `json:"plan_name"`
	Discount     float64 `json:"discount"`
	Reason       string  `json:"reason"`
}

// CheckEligibility decides whether the enrollment's reward may currently be
// claimed. Evaluation is stateless: it reads the stored counters and the
// clock passed in, never a cached result. Malformed or unknown condition
// descriptors evaluate to "not eligible" instead of erroring.
func CheckEligibility(enrollment models.ClientLoyaltyEnrollment, client models.Client, plan models.LoyaltyPlan, now time.Time) Eligibility {
	var result Eligibility

	switch plan.Condition.Type {
	case models.ConditionVisits:
		if plan.Condition.MinVisits > 0 && client.VisitCount >= plan.Condition.MinVisits {
			result.Eligible = true
			result.Reason = fmt.Sprintf("%d visitas completadas", plan.Condition.MinVisits)
		}
	case models.ConditionSpending:
		if plan.Condition.MinAmount > 0 && enrollment.TotalSpent >= plan.Condition.MinAmount {
			result.Eligible = true
			result.Reason = fmt.Sprintf("%.2f en compras acumuladas", plan.Condition.MinAmount)
		}
	case models.ConditionPoints:
		if plan.Condition.MinPoints > 0 && enrollment.Points >= plan.Condition.MinPoints {
			result.Eligible = true
			result.Reason = fmt.Sprintf("%d puntos acumulados", plan.Condition.MinPoints)
		}
	case models.ConditionBirthday:
		// Year is ignored: any birthday in the current calendar month counts.
		if client.BirthDate != nil && client.BirthDate.Month() == now.Month() {
			result.Eligible = true
			result.Reason = "mes de cumpleaños"
		}
	default:
		// Unknown condition type: not eligible, no error.
	}

	if result.Eligible {
		result.Discount = rewardDiscount(plan.Reward)
	}
	return result
}

// rewardDiscount extracts the discount percentage a reward grants, nil when
// the reward kind carries none.
func rewardDiscount(reward models.PlanReward) *float64 {
	switch reward.Type {
	case models.RewardDiscount:
		if reward.DiscountPercentage > 0 {
			d := reward.DiscountPercentage
			return &d
		}
	case models.RewardFreeItem, models.RewardCustom:
		// No percentage attached.
	}
	return nil
}

// Progress returns how far the enrollment is toward its plan's threshold as
// a percentage clamped to [0, 100]. Birthday and unknown conditions have no
// measurable progress and report zero.
func Progress(enrollment models.ClientLoyaltyEnrollment, client models.Client, plan models.LoyaltyPlan) float64 {
	var current, target float64

	switch plan.Condition.Type {
	case models.ConditionVisits:
		current = float64(client.VisitCount)
		target = float64(plan.Condition.MinVisits)
	case models.ConditionSpending:
		current = enrollment.TotalSpent
		target = plan.Condition.MinAmount
	case models.ConditionPoints:
		current = float64(enrollment.Points)
		target = float64(plan.Condition.MinPoints)
	default:
		return 0
	}

	if target <= 0 {
		target = 1
	}
	pct := current / target * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// EvaluateBest returns the eligible enrollment with the numerically highest
// discount, or nil when none qualifies. Enrollments must arrive with their
// Plan preloaded. Ties keep the first-encountered enrollment, so the
// caller's ordering (creation descending) decides.
func EvaluateBest(enrollments []models.ClientLoyaltyEnrollment, client models.Client, now time.Time) *BestDiscount {
	var best *BestDiscount
	for _, enrollment := range enrollments {
		if !enrollment.Plan.IsActive {
			continue
		}
		result := CheckEligibility(enrollment, client, enrollment.Plan, now)
		if !result.Eligible || result.Discount == nil {
			continue
		}
		if best == nil || *result.Discount > best.Discount {
			best = &BestDiscount{
				EnrollmentID: enrollment.ID,
				PlanID:       enrollment.PlanID,
				PlanName:     enrollment.Plan.Name,
				Discount:     *result.Discount,
				Reason:       result.Reason,
			}
		}
	}
	return best
}
