package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

type AftercareController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAftercareController(db *gorm.DB, logger *log.Logger) *AftercareController {
	return &AftercareController{
		DB:     db,
		Logger: logger,
	}
}

type AftercareTemplateRequest struct {
	ProcedureType string `json:"procedure_type" validate:"required,max=60"`
	Subject       string `json:"subject" validate:"required,max=200"`
	Body          string `json:"body" validate:"required"`
	DayOffset     *int   `json:"day_offset" validate:"omitempty,gte=0,lte=90"`
	IsActive      *bool  `json:"is_active"`
}

func (ac *AftercareController) CreateTemplate(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var req AftercareTemplateRequest
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

	template := models.AftercareTemplate{
		UserID:        userID,
		ProcedureType: req.ProcedureType,
		Subject:       req.Subject,
		Body:          req.Body,
		DayOffset:     1,
		IsActive:      true,
	}
	if req.DayOffset != nil {
		template.DayOffset = *req.DayOffset
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := ac.DB.Create(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create aftercare template",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(template))
}

func (ac *AftercareController) GetTemplates(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var templates []models.AftercareTemplate
	err := ac.DB.Where("user_id = ?", userID).
		Order("procedure_type ASC, day_offset ASC").
		Find(&templates).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch aftercare templates",
		})
	}

	return c.JSON(utils.SuccessResponse(templates))
}

func (ac *AftercareController) UpdateTemplate(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	templateID := utils.ParseUint(c.Params("id"))

	var template models.AftercareTemplate
	if err := ac.DB.Where("id = ? AND user_id = ?", templateID, userID).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Aftercare template not found",
		})
	}

	var req AftercareTemplateRequest
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

	updates := map[string]interface{}{
		"procedure_type": req.ProcedureType,
		"subject":        req.Subject,
		"body":           req.Body,
	}
	if req.DayOffset != nil {
		updates["day_offset"] = *req.DayOffset
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := ac.DB.Model(&template).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update aftercare template",
		})
	}

	return c.JSON(utils.SuccessResponse(template))
}

func (ac *AftercareController) DeleteTemplate(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	templateID := utils.ParseUint(c.Params("id"))

	result := ac.DB.Where("id = ? AND user_id = ?", templateID, userID).
		Delete(&models.AftercareTemplate{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete aftercare template",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Aftercare template not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Aftercare template deleted"})
}
