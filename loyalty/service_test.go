package loyalty_test

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/loyalty"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

func setupTestService(t *testing.T) *loyalty.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.LoyaltyPlan{},
		&models.ClientLoyaltyEnrollment{},
		&models.LoyaltyRedemption{},
	)
	require.NoError(t, err)

	return loyalty.NewService(db, log.New(os.Stdout, "LOYALTY-TEST: ", log.LstdFlags))
}

func seedClientWithPlans(t *testing.T, svc *loyalty.Service, planCount int) (models.Client, []models.LoyaltyPlan) {
	t.Helper()

	client := models.Client{UserID: 1, Name: "Ana", VisitCount: 5}
	require.NoError(t, svc.DB.Create(&client).Error)

	plans := make([]models.LoyaltyPlan, 0, planCount)
	for i := 0; i < planCount; i++ {
		plan := models.LoyaltyPlan{
			UserID:    1,
			Name:      "Plan",
			IsActive:  true,
			Condition: models.PlanCondition{Type: models.ConditionPoints, MinPoints: 100},
			Reward:    models.PlanReward{Type: models.RewardDiscount, DiscountPercentage: 10},
		}
		require.NoError(t, svc.DB.Create(&plan).Error)
		plans = append(plans, plan)
	}
	return client, plans
}

func TestEnroll_DuplicateRejected(t *testing.T) {
	svc := setupTestService(t)
	client, plans := seedClientWithPlans(t, svc, 1)

	enrollment, err := svc.Enroll(1, client.ID, plans[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, enrollment.Points)
	assert.Equal(t, float64(0), enrollment.TotalSpent)

	_, err = svc.Enroll(1, client.ID, plans[0].ID)
	assert.ErrorIs(t, err, loyalty.ErrAlreadyEnrolled)
}

func TestEnroll_ScopedToOwningAccount(t *testing.T) {
	svc := setupTestService(t)

	client := models.Client{UserID: 1, Name: "Ana"}
	require.NoError(t, svc.DB.Create(&client).Error)

	plan := models.LoyaltyPlan{
		UserID:    2,
		Name:      "Other studio plan",
		IsActive:  true,
		Condition: models.PlanCondition{Type: models.ConditionPoints, MinPoints: 100},
		Reward:    models.PlanReward{Type: models.RewardDiscount, DiscountPercentage: 10},
	}
	require.NoError(t, svc.DB.Create(&plan).Error)

	// Neither record belongs to account 3.
	_, err := svc.Enroll(3, client.ID, plan.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Client belongs to account 1 but the plan does not.
	_, err = svc.Enroll(1, client.ID, plan.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Plan belongs to account 2 but the client does not.
	_, err = svc.Enroll(2, client.ID, plan.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, svc.DB.Model(&models.ClientLoyaltyEnrollment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAddPoints_FansOutToAllEnrollments(t *testing.T) {
	svc := setupTestService(t)
	client, plans := seedClientWithPlans(t, svc, 2)

	for _, plan := range plans {
		_, err := svc.Enroll(1, client.ID, plan.ID)
		require.NoError(t, err)
	}

	updated, err := svc.AddPoints(1, client.ID, 10, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	var enrollments []models.ClientLoyaltyEnrollment
	require.NoError(t, svc.DB.Where("client_id = ?", client.ID).Find(&enrollments).Error)
	require.Len(t, enrollments, 2)
	for _, enrollment := range enrollments {
		assert.Equal(t, 10, enrollment.Points)
		assert.Equal(t, float64(50), enrollment.TotalSpent)
	}
}

func TestUnenroll_DeletesProgress(t *testing.T) {
	svc := setupTestService(t)
	client, plans := seedClientWithPlans(t, svc, 1)

	enrollment, err := svc.Enroll(1, client.ID, plans[0].ID)
	require.NoError(t, err)

	require.NoError(t, svc.Unenroll(1, enrollment.ID))

	err = svc.Unenroll(1, enrollment.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRedeem_KeepsProgress(t *testing.T) {
	svc := setupTestService(t)
	client, plans := seedClientWithPlans(t, svc, 1)

	enrollment, err := svc.Enroll(1, client.ID, plans[0].ID)
	require.NoError(t, err)

	_, err = svc.AddPoints(1, client.ID, 150, 0)
	require.NoError(t, err)

	redemption, err := svc.Redeem(1, enrollment.ID, models.RewardDiscount, 10, "10% off jewelry", nil)
	require.NoError(t, err)
	assert.Equal(t, enrollment.ID, redemption.EnrollmentID)

	var reloaded models.ClientLoyaltyEnrollment
	require.NoError(t, svc.DB.First(&reloaded, enrollment.ID).Error)
	assert.Equal(t, 1, reloaded.RewardsClaimed)
	assert.NotNil(t, reloaded.LastRewardAt)
	// Milestone semantics: redemption does not consume points.
	assert.Equal(t, 150, reloaded.Points)
}

func TestBestDiscount_PicksHighest(t *testing.T) {
	svc := setupTestService(t)
	client, _ := seedClientWithPlans(t, svc, 0)

	planA := models.LoyaltyPlan{
		UserID:    1,
		Name:      "Plan A",
		IsActive:  true,
		Condition: models.PlanCondition{Type: models.ConditionVisits, MinVisits: 5},
		Reward:    models.PlanReward{Type: models.RewardDiscount, DiscountPercentage: 10},
	}
	planB := models.LoyaltyPlan{
		UserID:    1,
		Name:      "Plan B",
		IsActive:  true,
		Condition: models.PlanCondition{Type: models.ConditionVisits, MinVisits: 5},
		Reward:    models.PlanReward{Type: models.RewardDiscount, DiscountPercentage: 20},
	}
	require.NoError(t, svc.DB.Create(&planA).Error)
	require.NoError(t, svc.DB.Create(&planB).Error)

	_, err := svc.Enroll(1, client.ID, planA.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(1, client.ID, planB.ID)
	require.NoError(t, err)

	best, err := svc.BestDiscount(1, client.ID, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, float64(20), best.Discount)
	assert.Equal(t, "Plan B", best.PlanName)
}

func TestBestDiscount_NilWhenNoneEligible(t *testing.T) {
	svc := setupTestService(t)
	client, plans := seedClientWithPlans(t, svc, 1)

	_, err := svc.Enroll(1, client.ID, plans[0].ID)
	require.NoError(t, err)

	// Points condition needs 100, enrollment has 0.
	best, err := svc.BestDiscount(1, client.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, best)
}
