package loyalty

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

// ErrAlreadyEnrolled is returned when a client already holds an enrollment
// for the requested plan. Callers surface it as a distinct user-facing
// message instead of a generic failure.
var ErrAlreadyEnrolled = errors.New("client is already enrolled in this plan")

// Service owns enrollment lifecycle and reward evaluation against the store.
type Service struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewService(db *gorm.DB, logger *log.Logger) *Service {
	return &Service{
		DB:     db,
		Logger: logger,
	}
}

// Enroll creates a fresh enrollment with zeroed progress. The client and the
// plan must both belong to the account; a miss on either returns
// gorm.ErrRecordNotFound. The (client, plan) pair is unique; an existing one
// fails with ErrAlreadyEnrolled.
func (s *Service) Enroll(userID, clientID, planID uint) (*models.ClientLoyaltyEnrollment, error) {
	var client models.Client
	if err := s.DB.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error; err != nil {
		return nil, err
	}
	var plan models.LoyaltyPlan
	if err := s.DB.Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		return nil, err
	}

	var existing models.ClientLoyaltyEnrollment
	err := s.DB.Where("client_id = ? AND plan_id = ?", clientID, planID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyEnrolled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := models.ClientLoyaltyEnrollment{
		UserID:   userID,
		ClientID: clientID,
		PlanID:   planID,
	}
	if err := s.DB.Create(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Unenroll deletes the enrollment outright. There is no soft delete:
// accumulated progress is unrecoverable.
func (s *Service) Unenroll(userID, enrollmentID uint) error {
	result := s.DB.Where("id = ? AND user_id = ?", enrollmentID, userID).
		Delete(&models.ClientLoyaltyEnrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddPoints applies earning activity to every enrollment the client holds:
// a client enrolled in three plans accrues the same points and spend in all
// three. Each enrollment is an independent update; a failure partway leaves
// the earlier updates in place and is reported alongside the success count.
func (s *Service) AddPoints(userID, clientID uint, points int, amountSpent float64) (int, error) {
	var enrollments []models.ClientLoyaltyEnrollment
	if err := s.DB.Where("client_id = ? AND user_id = ?", clientID, userID).Find(&enrollments).Error; err != nil {
		return 0, err
	}

	updated := 0
	var lastErr error
	for _, enrollment := range enrollments {
		err := s.DB.Model(&models.ClientLoyaltyEnrollment{}).
			Where("id = ?", enrollment.ID).
			Updates(map[string]interface{}{
				"points":      gorm.Expr("points + ?", points),
				"total_spent": gorm.Expr("total_spent + ?", amountSpent),
			}).Error
		if err != nil {
			s.Logger.Printf("failed to add points to enrollment %d: %v", enrollment.ID, err)
			lastErr = err
			continue
		}
		updated++
	}
	return updated, lastErr
}

// Redeem appends an immutable history record and bumps the enrollment's
// claimed counter and last-reward timestamp. Points and spend are not
// consumed: thresholds are milestones, not a wallet.
func (s *Service) Redeem(userID, enrollmentID uint, rewardType string, rewardValue float64, description string, saleID *uint) (*models.LoyaltyRedemption, error) {
	var enrollment models.ClientLoyaltyEnrollment
	if err := s.DB.Where("id = ? AND user_id = ?", enrollmentID, userID).First(&enrollment).Error; err != nil {
		return nil, err
	}

	redemption := models.LoyaltyRedemption{
		EnrollmentID: enrollment.ID,
		RewardType:   rewardType,
		RewardValue:  rewardValue,
		Description:  description,
		SaleID:       saleID,
	}
	if err := s.DB.Create(&redemption).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.DB.Model(&enrollment).Updates(map[string]interface{}{
		"rewards_claimed": gorm.Expr("rewards_claimed + 1"),
		"last_reward_at":  now,
	}).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

// BestDiscount evaluates all of the client's enrollments and returns the
// highest eligible discount, nil when none qualifies. Enrollments are
// iterated newest-first, so on equal discounts the most recent enrollment
// wins.
func (s *Service) BestDiscount(userID, clientID uint, now time.Time) (*BestDiscount, error) {
	var client models.Client
	if err := s.DB.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error; err != nil {
		return nil, err
	}

	var enrollments []models.ClientLoyaltyEnrollment
	err := s.DB.Preload("Plan").
		Where("client_id = ? AND user_id = ?", clientID, userID).
		Order("created_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}

	return EvaluateBest(enrollments, client, now), nil
}

// Eligibility loads one enrollment with its plan and client and evaluates it.
func (s *Service) Eligibility(userID, enrollmentID uint, now time.Time) (*Eligibility, *models.ClientLoyaltyEnrollment, error) {
	var enrollment models.ClientLoyaltyEnrollment
	err := s.DB.Preload("Plan").Preload("Client").
		Where("id = ? AND user_id = ?", enrollmentID, userID).
		First(&enrollment).Error
	if err != nil {
		return nil, nil, err
	}

	result := CheckEligibility(enrollment, enrollment.Client, enrollment.Plan, now)
	return &result, &enrollment, nil
}
