package controller

import (
	"log"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

type ClientController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewClientController(db *gorm.DB, logger *log.Logger) *ClientController {
	return &ClientController{
		DB:     db,
		Logger: logger,
	}
}

type ClientRequest struct {
	Name           string     `json:"name" validate:"required,max=150"`
	Email          string     `json:"email" validate:"omitempty,email"`
	Phone          string     `json:"phone" validate:"omitempty,max=30"`
	BirthDate      *time.Time `json:"birth_date"`
	HealthNotes    string     `json:"health_notes"`
	AftercareOptIn *bool      `json:"aftercare_opt_in"`
}

func (cc *ClientController) CreateClient(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var req ClientRequest
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

	if req.Email != "" {
		if err := checkmail.ValidateFormat(req.Email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid email address",
			})
		}
	}

	notes, err := utils.Encrypt(req.HealthNotes)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store health notes",
		})
	}

	client := models.Client{
		UserID:         userID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		BirthDate:      req.BirthDate,
		HealthNotes:    notes,
		AftercareOptIn: true,
	}
	if req.AftercareOptIn != nil {
		client.AftercareOptIn = *req.AftercareOptIn
	}

	if err := cc.DB.Create(&client).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create client",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(client))
}

func (cc *ClientController) GetClients(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 25)
	search := c.Query("search")

	query := cc.DB.Model(&models.Client{}).Where("user_id = ?", userID)
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", like, like, like)
	}

	var total int64
	query.Count(&total)

	var clients []models.Client
	err := query.Order("name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&clients).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch clients",
		})
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  clients,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (cc *ClientController) GetClient(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	clientID := utils.ParseUint(c.Params("id"))

	var client models.Client
	err := cc.DB.Preload("Enrollments.Plan").
		Where("id = ? AND user_id = ?", clientID, userID).
		First(&client).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	// Health notes are stored encrypted; decrypt for the detail view only.
	notes, err := utils.Decrypt(client.HealthNotes)
	if err != nil {
		cc.Logger.Printf("Failed to decrypt health notes for client %d: %v", client.ID, err)
		notes = ""
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"data":         client,
		"health_notes": notes,
	})
}

func (cc *ClientController) UpdateClient(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	clientID := utils.ParseUint(c.Params("id"))

	var client models.Client
	if err := cc.DB.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	var req ClientRequest
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
		"name":       req.Name,
		"email":      req.Email,
		"phone":      req.Phone,
		"birth_date": req.BirthDate,
	}
	if req.HealthNotes != "" {
		notes, err := utils.Encrypt(req.HealthNotes)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to store health notes",
			})
		}
		updates["health_notes"] = notes
	}
	if req.AftercareOptIn != nil {
		updates["aftercare_opt_in"] = *req.AftercareOptIn
	}

	if err := cc.DB.Model(&client).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update client",
		})
	}

	return c.JSON(utils.SuccessResponse(client))
}

func (cc *ClientController) DeleteClient(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	clientID := utils.ParseUint(c.Params("id"))

	result := cc.DB.Where("id = ? AND user_id = ?", clientID, userID).Delete(&models.Client{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete client",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Client deleted"})
}

// RecordVisit bumps the visit counter used by visit-based loyalty plans.
func (cc *ClientController) RecordVisit(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	clientID := utils.ParseUint(c.Params("id"))

	now := time.Now()
	result := cc.DB.Model(&models.Client{}).
		Where("id = ? AND user_id = ?", clientID, userID).
		Updates(map[string]interface{}{
			"visit_count":   gorm.Expr("visit_count + 1"),
			"last_visit_at": now,
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record visit",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Visit recorded"})
}
