package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

type AppointmentController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Mailer *utils.Mailer
}

func NewAppointmentController(db *gorm.DB, logger *log.Logger, mailer *utils.Mailer) *AppointmentController {
	return &AppointmentController{
		DB:     db,
		Logger: logger,
		Mailer: mailer,
	}
}

type AppointmentRequest struct {
	ClientID      uint      `json:"client_id" validate:"required"`
	StaffID       *uint     `json:"staff_id"`
	ServiceName   string    `json:"service_name" validate:"required,max=150"`
	ProcedureType string    `json:"procedure_type" validate:"omitempty,max=60"`
	StartsAt      time.Time `json:"starts_at" validate:"required"`
	EndsAt        time.Time `json:"ends_at"`
	Price         float64   `json:"price" validate:"gte=0"`
	Notes         string    `json:"notes"`
}

func (ac *AppointmentController) CreateAppointment(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var req AppointmentRequest
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

	if !req.EndsAt.IsZero() && !req.EndsAt.After(req.StartsAt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ends_at must be after starts_at",
		})
	}

	var client models.Client
	if err := ac.DB.Where("id = ? AND user_id = ?", req.ClientID, userID).First(&client).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	// Reject a slot that overlaps an existing booking for the same piercer.
	if req.StaffID != nil {
		endsAt := req.EndsAt
		if endsAt.IsZero() {
			endsAt = req.StartsAt.Add(time.Hour)
		}
		var overlapping int64
		ac.DB.Model(&models.Appointment{}).
			Where("user_id = ? AND staff_id = ? AND status IN ?", userID, *req.StaffID,
				[]string{models.AppointmentScheduled, models.AppointmentConfirmed}).
			Where("starts_at < ? AND ends_at > ?", endsAt, req.StartsAt).
			Count(&overlapping)
		if overlapping > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "This time slot overlaps another appointment for the selected piercer",
			})
		}
	}

	appointment := models.Appointment{
		UserID:        userID,
		ClientID:      req.ClientID,
		StaffID:       req.StaffID,
		ServiceName:   req.ServiceName,
		ProcedureType: req.ProcedureType,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		Status:        models.AppointmentScheduled,
		Price:         req.Price,
		Notes:         req.Notes,
	}
	if appointment.EndsAt.IsZero() {
		appointment.EndsAt = req.StartsAt.Add(time.Hour)
	}

	if err := ac.DB.Create(&appointment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create appointment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(appointment))
}

// GetAppointments lists a date range, defaulting to the current week.
func (ac *AppointmentController) GetAppointments(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	from := time.Now().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 7)
	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			from = parsed
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			to = parsed
		}
	}

	query := ac.DB.Preload("Client").
		Where("user_id = ? AND starts_at >= ? AND starts_at < ?", userID, from, to)
	if status := c.Query("status"); status != "" {
		if !models.IsValidAppointmentStatus(status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown appointment status",
			})
		}
		query = query.Where("status = ?", status)
	}
	if staffID := c.Query("staff_id"); staffID != "" {
		query = query.Where("staff_id = ?", utils.ParseUint(staffID))
	}

	var appointments []models.Appointment
	if err := query.Order("starts_at ASC").Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch appointments",
		})
	}

	return c.JSON(utils.SuccessResponse(appointments))
}

func (ac *AppointmentController) GetAppointment(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	appointmentID := utils.ParseUint(c.Params("id"))

	var appointment models.Appointment
	err := ac.DB.Preload("Client").
		Where("id = ? AND user_id = ?", appointmentID, userID).
		First(&appointment).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}

	return c.JSON(utils.SuccessResponse(appointment))
}

func (ac *AppointmentController) UpdateAppointment(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	appointmentID := utils.ParseUint(c.Params("id"))

	var appointment models.Appointment
	if err := ac.DB.Where("id = ? AND user_id = ?", appointmentID, userID).First(&appointment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}

	if appointment.Status == models.AppointmentCompleted || appointment.Status == models.AppointmentCancelled {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Completed or cancelled appointments can't be rescheduled",
		})
	}

	var req AppointmentRequest
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

	// A reschedule passes the same piercer-overlap check a new booking does,
	// ignoring the slot the appointment itself holds.
	if req.StaffID != nil {
		endsAt := req.EndsAt
		if endsAt.IsZero() {
			endsAt = appointment.EndsAt
			if !endsAt.After(req.StartsAt) {
				endsAt = req.StartsAt.Add(time.Hour)
			}
		}
		var overlapping int64
		ac.DB.Model(&models.Appointment{}).
			Where("id != ? AND user_id = ? AND staff_id = ? AND status IN ?", appointment.ID, userID, *req.StaffID,
				[]string{models.AppointmentScheduled, models.AppointmentConfirmed}).
			Where("starts_at < ? AND ends_at > ?", endsAt, req.StartsAt).
			Count(&overlapping)
		if overlapping > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "This time slot overlaps another appointment for the selected piercer",
			})
		}
	}

	updates := map[string]interface{}{
		"service_name":   req.ServiceName,
		"procedure_type": req.ProcedureType,
		"starts_at":      req.StartsAt,
		"price":          req.Price,
		"notes":          req.Notes,
		"staff_id":       req.StaffID,
	}
	if !req.EndsAt.IsZero() {
		updates["ends_at"] = req.EndsAt
	}

	if err := ac.DB.Model(&appointment).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update appointment",
		})
	}

	return c.JSON(utils.SuccessResponse(appointment))
}

// ConfirmAppointment flips the status and emails the client once. The sent
// timestamp guards against duplicate confirmations.
func (ac *AppointmentController) ConfirmAppointment(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	appointmentID := utils.ParseUint(c.Params("id"))

	var appointment models.Appointment
	err := ac.DB.Preload("Client").
		Where("id = ? AND user_id = ?", appointmentID, userID).
		First(&appointment).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}

	if appointment.Status != models.AppointmentScheduled {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Only scheduled appointments can be confirmed",
		})
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status": models.AppointmentConfirmed,
	}

	if appointment.ConfirmationSentAt == nil && appointment.Client.Email != "" {
		studioName := "your studio"
		var owner models.User
		if err := ac.DB.First(&owner, userID).Error; err == nil && owner.StudioName != nil && *owner.StudioName != "" {
			studioName = *owner.StudioName
		}
		if err := ac.Mailer.SendAppointmentConfirmation(appointment.Client, appointment, studioName); err != nil {
			utils.LogError("appointment_confirmation_email", err, map[string]interface{}{
				"appointment_id": appointment.ID,
			})
		} else {
			updates["confirmation_sent_at"] = now
		}
	}

	if err := ac.DB.Model(&appointment).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to confirm appointment",
		})
	}

	appointment.Status = models.AppointmentConfirmed
	return c.JSON(utils.SuccessResponse(appointment))
}

// CompleteAppointment closes the session and credits the visit, which feeds
// visit-based loyalty plans.
func (ac *AppointmentController) CompleteAppointment(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	appointmentID := utils.ParseUint(c.Params("id"))

	var appointment models.Appointment
	if err := ac.DB.Where("id = ? AND user_id = ?", appointmentID, userID).First(&appointment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}

	if appointment.Status == models.AppointmentCompleted {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Appointment is already completed",
		})
	}
	if appointment.Status == models.AppointmentCancelled {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Cancelled appointments can't be completed",
		})
	}

	now := time.Now()
	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&appointment).Updates(map[string]interface{}{
			"status":       models.AppointmentCompleted,
			"completed_at": now,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Client{}).
			Where("id = ?", appointment.ClientID).
			Updates(map[string]interface{}{
				"visit_count":   gorm.Expr("visit_count + 1"),
				"last_visit_at": now,
			}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to complete appointment",
		})
	}

	appointment.Status = models.AppointmentCompleted
	appointment.CompletedAt = &now
	return c.JSON(utils.SuccessResponse(appointment))
}

type CancelAppointmentRequest struct {
	NoShow bool `json:"no_show"`
}

func (ac *AppointmentController) CancelAppointment(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	appointmentID := utils.ParseUint(c.Params("id"))

	var req CancelAppointmentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	var appointment models.Appointment
	if err := ac.DB.Where("id = ? AND user_id = ?", appointmentID, userID).First(&appointment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}

	if appointment.Status == models.AppointmentCompleted {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Completed appointments can't be cancelled",
		})
	}

	status := models.AppointmentCancelled
	if req.NoShow {
		status = models.AppointmentNoShow
	}

	if err := ac.DB.Model(&appointment).Update("status", status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel appointment",
		})
	}

	appointment.Status = status
	return c.JSON(utils.SuccessResponse(appointment))
}
