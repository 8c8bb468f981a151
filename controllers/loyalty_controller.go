package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/loyalty"
	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

type LoyaltyController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Service *loyalty.Service
}

func NewLoyaltyController(db *gorm.DB, logger *log.Logger) *LoyaltyController {
	return &LoyaltyController{
		DB:      db,
		Logger:  logger,
		Service: loyalty.NewService(db, logger),
	}
}

type LoyaltyPlanRequest struct {
	Name        string               `json:"name" validate:"required,max=120"`
	Description string               `json:"description"`
	IsActive    *bool                `json:"is_active"`
	Condition   models.PlanCondition `json:"condition" validate:"required"`
	Reward      models.PlanReward    `json:"reward" validate:"required"`
}

func validatePlanPayload(req *LoyaltyPlanRequest) string {
	switch req.Condition.Type {
	case models.ConditionVisits:
		if req.Condition.MinVisits <= 0 {
			return "min_visits must be greater than zero"
		}
	case models.ConditionSpending:
		if req.Condition.MinAmount <= 0 {
			return "min_amount must be greater than zero"
		}
	case models.ConditionPoints:
		if req.Condition.MinPoints <= 0 {
			return "min_points must be greater than zero"
		}
	case models.ConditionBirthday:
		// no threshold
	default:
		return "Unknown condition type"
	}

	switch req.Reward.Type {
	case models.RewardDiscount:
		if req.Reward.DiscountPercentage <= 0 || req.Reward.DiscountPercentage > 100 {
			return "discount_percentage must be between 1 and 100"
		}
	case models.RewardFreeItem:
		if req.Reward.ItemName == "" {
			return "item_name is required for free item rewards"
		}
	case models.RewardCustom:
		if req.Reward.Description == "" {
			return "description is required for custom rewards"
		}
	default:
		return "Unknown reward type"
	}
	return ""
}

func (lc *LoyaltyController) CreatePlan(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var req LoyaltyPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if msg := validatePlanPayload(&req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	plan := models.LoyaltyPlan{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		Condition:   req.Condition,
		Reward:      req.Reward,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := lc.DB.Create(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create loyalty plan",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(plan))
}

func (lc *LoyaltyController) GetPlans(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var plans []models.LoyaltyPlan
	err := lc.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&plans).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch loyalty plans",
		})
	}

	return c.JSON(utils.SuccessResponse(plans))
}

func (lc *LoyaltyController) UpdatePlan(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	planID := utils.ParseUint(c.Params("id"))

	var plan models.LoyaltyPlan
	if err := lc.DB.Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Loyalty plan not found",
		})
	}

	var req LoyaltyPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if msg := validatePlanPayload(&req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	plan.Name = req.Name
	plan.Description = req.Description
	plan.Condition = req.Condition
	plan.Reward = req.Reward
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := lc.DB.Save(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update loyalty plan",
		})
	}

	return c.JSON(utils.SuccessResponse(plan))
}

func (lc *LoyaltyController) DeletePlan(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	planID := utils.ParseUint(c.Params("id"))

	result := lc.DB.Where("id = ? AND user_id = ?", planID, userID).Delete(&models.LoyaltyPlan{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete loyalty plan",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Loyalty plan not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Loyalty plan deleted"})
}

type EnrollRequest struct {
	ClientID uint `json:"client_id" validate:"required"`
	PlanID   uint `json:"plan_id" validate:"required"`
}

func (lc *LoyaltyController) EnrollClient(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	enrollment, err := lc.Service.Enroll(userID, req.ClientID, req.PlanID)
	if err != nil {
		if errors.Is(err, loyalty.ErrAlreadyEnrolled) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Client is already enrolled in this plan",
			})
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client or plan not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to enroll client",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(enrollment))
}

func (lc *LoyaltyController) UnenrollClient(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	enrollmentID := utils.ParseUint(c.Params("id"))

	if err := lc.Service.Unenroll(userID, enrollmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Enrollment not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove enrollment",
		})
	}

	return c.JSON(fiber.Map{"message": "Enrollment removed"})
}

func (lc *LoyaltyController) GetEnrollments(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	clientID := utils.ParseUint(c.Params("clientId"))

	var enrollments []models.ClientLoyaltyEnrollment
	err := lc.DB.Preload("Plan").
		Where("user_id = ? AND client_id = ?", userID, clientID).
		Order("created_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch enrollments",
		})
	}

	// Decorate each enrollment with its live eligibility and progress.
	var client models.Client
	if err := lc.DB.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	type enrollmentView struct {
		models.ClientLoyaltyEnrollment
		Eligibility loyalty.Eligibility `json:"eligibility"`
		Progress    float64             `json:"progress"`
	}

	now := time.Now()
	views := make([]enrollmentView, 0, len(enrollments))
	for _, e := range enrollments {
		views = append(views, enrollmentView{
			ClientLoyaltyEnrollment: e,
			Eligibility:             loyalty.CheckEligibility(e, client, e.Plan, now),
			Progress:                loyalty.Progress(e, client, e.Plan),
		})
	}

	return c.JSON(utils.SuccessResponse(views))
}

type AddPointsRequest struct {
	ClientID uint    `json:"client_id" validate:"required"`
	Points   int     `json:"points" validate:"required,gt=0"`
	Amount   float64 `json:"amount" validate:"gte=0"`
}

func (lc *LoyaltyController) AddPoints(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var req AddPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updated, err := lc.Service.AddPoints(userID, req.ClientID, req.Points, req.Amount)
	if err != nil && updated == 0 {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add points",
		})
	}

	return c.JSON(fiber.Map{
		"message":             "Points added",
		"enrollments_updated": updated,
	})
}

type RedeemRequest struct {
	SaleID *uint `json:"sale_id"`
}

func (lc *LoyaltyController) RedeemReward(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	enrollmentID := utils.ParseUint(c.Params("id"))

	var req RedeemRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	eligibility, enrollment, err := lc.Service.Eligibility(userID, enrollmentID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Enrollment not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to evaluate eligibility",
		})
	}
	if !eligibility.Eligible {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Client is not eligible for this reward yet",
		})
	}

	reward := enrollment.Plan.Reward
	var rewardValue float64
	if eligibility.Discount != nil {
		rewardValue = *eligibility.Discount
	}
	description := reward.Description
	if reward.Type == models.RewardFreeItem && reward.ItemName != "" {
		description = reward.ItemName
	}

	redemption, err := lc.Service.Redeem(userID, enrollmentID, reward.Type, rewardValue, description, req.SaleID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to redeem reward",
		})
	}

	utils.LogEvent("loyalty_redemption", map[string]interface{}{
		"user_id":       userID,
		"enrollment_id": enrollmentID,
		"reward_type":   redemption.RewardType,
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(redemption))
}

// BestDiscount returns the single highest applicable percentage discount for
// the client, if any. Used by the POS before closing a sale.
func (lc *LoyaltyController) BestDiscount(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	clientID := utils.ParseUint(c.Params("clientId"))

	best, err := lc.Service.BestDiscount(userID, clientID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to evaluate discounts",
		})
	}

	if best == nil {
		return c.JSON(fiber.Map{
			"success":  true,
			"discount": nil,
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"discount": best,
	})
}

// GetEligibility evaluates a single enrollment on demand.
func (lc *LoyaltyController) GetEligibility(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	enrollmentID := utils.ParseUint(c.Params("id"))

	eligibility, enrollment, err := lc.Service.Eligibility(userID, enrollmentID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Enrollment not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to evaluate eligibility",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"eligibility": eligibility,
		"progress":    loyalty.Progress(*enrollment, enrollment.Client, enrollment.Plan),
	})
}

func (lc *LoyaltyController) GetRedemptions(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 25)

	query := lc.DB.Model(&models.LoyaltyRedemption{}).
		Joins("JOIN client_loyalty_enrollments ON client_loyalty_enrollments.id = loyalty_redemptions.enrollment_id").
		Where("client_loyalty_enrollments.user_id = ?", userID)

	var total int64
	query.Count(&total)

	var redemptions []models.LoyaltyRedemption
	err := query.Order("loyalty_redemptions.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&redemptions).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch redemptions",
		})
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  redemptions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
