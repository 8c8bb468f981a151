package loyalty_test

import (
	"testing"
	"time"

	"github.com/cristophermlima/pierce-hub-suite-sub001/loyalty"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

var evalNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func discountPlan(condition models.PlanCondition, pct float64) models.LoyaltyPlan {
	return models.LoyaltyPlan{
		Name:      "test plan",
		IsActive:  true,
		Condition: condition,
		Reward:    models.PlanReward{Type: models.RewardDiscount, DiscountPercentage: pct},
	}
}

func TestCheckEligibility_Visits(t *testing.T) {
	tests := []struct {
		name     string
		visits   int
		min      int
		eligible bool
	}{
		{"at threshold", 5, 5, true},
		{"above threshold", 8, 5, true},
		{"below threshold", 4, 5, false},
		{"zero visits", 0, 1, false},
		{"missing threshold", 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := models.Client{VisitCount: tt.visits}
			plan := discountPlan(models.PlanCondition{Type: models.ConditionVisits, MinVisits: tt.min}, 15)
			got := loyalty.CheckEligibility(models.ClientLoyaltyEnrollment{}, client, plan, evalNow)
			if got.Eligible != tt.eligible {
				t.Errorf("CheckEligibility() eligible = %v, want %v", got.Eligible, tt.eligible)
			}
		})
	}
}

func TestCheckEligibility_VisitsReasonAndDiscount(t *testing.T) {
	client := models.Client{VisitCount: 5}
	plan := discountPlan(models.PlanCondition{Type: models.ConditionVisits, MinVisits: 5}, 15)

	got := loyalty.CheckEligibility(models.ClientLoyaltyEnrollment{}, client, plan, evalNow)
	if !got.Eligible {
		t.Fatal("expected eligible")
	}
	if got.Reason != "5 visitas completadas" {
		t.Errorf("reason = %q, want %q", got.Reason, "5 visitas completadas")
	}
	if got.Discount == nil || *got.Discount != 15 {
		t.Errorf("discount = %v, want 15", got.Discount)
	}
}

func TestCheckEligibility_Spending(t *testing.T) {
	tests := []struct {
		name     string
		spent    float64
		min      float64
		eligible bool
	}{
		{"below threshold", 80, 100, false},
		{"at threshold", 100, 100, true},
		{"above threshold", 150.50, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enrollment := models.ClientLoyaltyEnrollment{TotalSpent: tt.spent}
			plan := discountPlan(models.PlanCondition{Type: models.ConditionSpending, MinAmount: tt.min}, 10)
			got := loyalty.CheckEligibility(enrollment, models.Client{}, plan, evalNow)
			if got.Eligible != tt.eligible {
				t.Errorf("CheckEligibility() eligible = %v, want %v", got.Eligible, tt.eligible)
			}
		})
	}
}

func TestCheckEligibility_Points(t *testing.T) {
	enrollment := models.ClientLoyaltyEnrollment{Points: 120}
	plan := discountPlan(models.PlanCondition{Type: models.ConditionPoints, MinPoints: 100}, 20)

	if got := loyalty.CheckEligibility(enrollment, models.Client{}, plan, evalNow); !got.Eligible {
		t.Error("expected eligible with 120/100 points")
	}

	enrollment.Points = 99
	if got := loyalty.CheckEligibility(enrollment, models.Client{}, plan, evalNow); got.Eligible {
		t.Error("expected not eligible with 99/100 points")
	}
}

func TestCheckEligibility_Birthday(t *testing.T) {
	june := time.Date(1995, time.June, 3, 0, 0, 0, 0, time.UTC)
	december := time.Date(1995, time.December, 3, 0, 0, 0, 0, time.UTC)
	plan := discountPlan(models.PlanCondition{Type: models.ConditionBirthday}, 25)

	tests := []struct {
		name     string
		birth    *time.Time
		eligible bool
	}{
		{"birth month matches", &june, true},
		{"different month", &december, false},
		{"no birth date", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := models.Client{BirthDate: tt.birth}
			got := loyalty.CheckEligibility(models.ClientLoyaltyEnrollment{}, client, plan, evalNow)
			if got.Eligible != tt.eligible {
				t.Errorf("CheckEligibility() eligible = %v, want %v", got.Eligible, tt.eligible)
			}
		})
	}
}

func TestCheckEligibility_UnknownCondition(t *testing.T) {
	plan := discountPlan(models.PlanCondition{Type: "stamps", MinPoints: 1}, 50)
	got := loyalty.CheckEligibility(models.ClientLoyaltyEnrollment{Points: 100}, models.Client{}, plan, evalNow)
	if got.Eligible {
		t.Error("unknown condition type must not be eligible")
	}
	if got.Discount != nil {
		t.Error("unknown condition type must not carry a discount")
	}
}

func TestCheckEligibility_NoDiscountForFreeItem(t *testing.T) {
	plan := models.LoyaltyPlan{
		IsActive:  true,
		Condition: models.PlanCondition{Type: models.ConditionVisits, MinVisits: 3},
		Reward:    models.PlanReward{Type: models.RewardFreeItem, ItemName: "titanium stud"},
	}
	got := loyalty.CheckEligibility(models.ClientLoyaltyEnrollment{}, models.Client{VisitCount: 3}, plan, evalNow)
	if !got.Eligible {
		t.Fatal("expected eligible")
	}
	if got.Discount != nil {
		t.Errorf("free_item reward must not populate discount, got %v", *got.Discount)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name       string
		enrollment models.ClientLoyaltyEnrollment
		client     models.Client
		condition  models.PlanCondition
		want       float64
	}{
		{
			name:      "halfway on visits",
			client:    models.Client{VisitCount: 5},
			condition: models.PlanCondition{Type: models.ConditionVisits, MinVisits: 10},
			want:      50,
		},
		{
			name:       "spending clamped at 100",
			enrollment: models.ClientLoyaltyEnrollment{TotalSpent: 500},
			condition:  models.PlanCondition{Type: models.ConditionSpending, MinAmount: 100},
			want:       100,
		},
		{
			name:       "points quarter",
			enrollment: models.ClientLoyaltyEnrollment{Points: 25},
			condition:  models.PlanCondition{Type: models.ConditionPoints, MinPoints: 100},
			want:       25,
		},
		{
			name:      "zero target defaults to one",
			client:    models.Client{VisitCount: 0},
			condition: models.PlanCondition{Type: models.ConditionVisits},
			want:      0,
		},
		{
			name:      "birthday has no progress",
			condition: models.PlanCondition{Type: models.ConditionBirthday},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := models.LoyaltyPlan{Condition: tt.condition}
			got := loyalty.Progress(tt.enrollment, tt.client, plan)
			if got != tt.want {
				t.Errorf("Progress() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("Progress() = %v, out of [0,100]", got)
			}
		})
	}
}

func TestEvaluateBest(t *testing.T) {
	client := models.Client{VisitCount: 10}

	planA := discountPlan(models.PlanCondition{Type: models.ConditionVisits, MinVisits: 5}, 10)
	planA.ID = 1
	planA.Name = "Plan A"
	planB := discountPlan(models.PlanCondition{Type: models.ConditionVisits, MinVisits: 5}, 20)
	planB.ID = 2
	planB.Name = "Plan B"

	enrollments := []models.ClientLoyaltyEnrollment{
		{PlanID: 1, Plan: planA},
		{PlanID: 2, Plan: planB},
	}

	best := loyalty.EvaluateBest(enrollments, client, evalNow)
	if best == nil {
		t.Fatal("expected a best discount")
	}
	if best.Discount != 20 || best.PlanName != "Plan B" {
		t.Errorf("best = %+v, want Plan B at 20", best)
	}
}

func TestEvaluateBest_NoneEligible(t *testing.T) {
	client := models.Client{VisitCount: 1}
	plan := discountPlan(models.PlanCondition{Type: models.ConditionVisits, MinVisits: 5}, 10)

	best := loyalty.EvaluateBest([]models.ClientLoyaltyEnrollment{{Plan: plan}}, client, evalNow)
	if best != nil {
		t.Errorf("expected nil, got %+v", best)
	}

	if got := loyalty.EvaluateBest(nil, client, evalNow); got != nil {
		t.Errorf("expected nil with zero enrollments, got %+v", got)
	}
}

func TestEvaluateBest_TieKeepsFirst(t *testing.T) {
	client := models.Client{VisitCount: 10}

	first := discountPlan(models.PlanCondition{Type: models.ConditionVisits, MinVisits: 5}, 15)
	first.ID = 7
	first.Name = "Newest"
	second := discountPlan(models.PlanCondition{Type: models.ConditionVisits, MinVisits: 5}, 15)
	second.ID = 8
	second.Name = "Oldest"

	enrollments := []models.ClientLoyaltyEnrollment{
		{PlanID: 7, Plan: first},
		{PlanID: 8, Plan: second},
	}

	best := loyalty.EvaluateBest(enrollments, client, evalNow)
	if best == nil || best.PlanName != "Newest" {
		t.Errorf("tie must keep first-encountered enrollment, got %+v", best)
	}
}

func TestEvaluateBest_SkipsInactivePlans(t *testing.T) {
	client := models.Client{VisitCount: 10}
	plan := discountPlan(models.PlanCondition{Type: models.ConditionVisits, MinVisits: 5}, 30)
	plan.IsActive = false

	if best := loyalty.EvaluateBest([]models.ClientLoyaltyEnrollment{{Plan: plan}}, client, evalNow); best != nil {
		t.Errorf("inactive plan must be skipped, got %+v", best)
	}
}
