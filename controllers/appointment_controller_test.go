package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

func setupAppointmentTestApp(t *testing.T) (*fiber.App, *gorm.DB, models.Client) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TeamMember{},
		&models.Client{},
		&models.Appointment{},
	))

	owner := models.User{Email: "owner@studio.test", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&owner).Error)

	client := models.Client{UserID: owner.ID, Name: "Ana"}
	require.NoError(t, db.Create(&client).Error)

	discard := log.New(io.Discard, "", 0)
	ac := NewAppointmentController(db, discard, utils.NewMailer(discard))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		var actor models.User
		require.NoError(t, db.First(&actor, owner.ID).Error)
		c.Locals("user", &actor)
		c.Locals("userID", actor.ID)
		c.Locals("effectiveUserID", models.ResolveEffectiveUserID(db, actor.ID))
		return c.Next()
	})
	app.Post("/appointments", ac.CreateAppointment)
	app.Put("/appointments/:id", ac.UpdateAppointment)

	return app, db, client
}

func seedAppointment(t *testing.T, db *gorm.DB, client models.Client, staffID uint, starts, ends time.Time) models.Appointment {
	t.Helper()

	appointment := models.Appointment{
		UserID:      client.UserID,
		ClientID:    client.ID,
		StaffID:     &staffID,
		ServiceName: "Helix piercing",
		StartsAt:    starts,
		EndsAt:      ends,
		Status:      models.AppointmentScheduled,
	}
	require.NoError(t, db.Create(&appointment).Error)
	return appointment
}

func putReschedule(t *testing.T, app *fiber.App, appointment models.Appointment, staffID uint, starts, ends time.Time) int {
	t.Helper()

	body, _ := json.Marshal(fiber.Map{
		"client_id":    appointment.ClientID,
		"staff_id":     staffID,
		"service_name": appointment.ServiceName,
		"starts_at":    starts.Format(time.RFC3339),
		"ends_at":      ends.Format(time.RFC3339),
	})
	path := "/appointments/" + strconv.FormatUint(uint64(appointment.ID), 10)
	req := httptest.NewRequest("PUT", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestUpdateAppointment_RejectsOverlappingReschedule(t *testing.T) {
	app, db, client := setupAppointmentTestApp(t)

	staffID := uint(5)
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	seedAppointment(t, db, client, staffID, day.Add(10*time.Hour), day.Add(11*time.Hour))
	second := seedAppointment(t, db, client, staffID, day.Add(12*time.Hour), day.Add(13*time.Hour))

	// Moving the second booking onto the first one's slot must fail the same
	// way an overlapping new booking does.
	status := putReschedule(t, app, second, staffID, day.Add(10*time.Hour+30*time.Minute), day.Add(11*time.Hour+30*time.Minute))
	assert.Equal(t, fiber.StatusConflict, status)

	var reloaded models.Appointment
	require.NoError(t, db.First(&reloaded, second.ID).Error)
	assert.True(t, reloaded.StartsAt.Equal(second.StartsAt))

	// Back-to-back with the first booking is fine.
	status = putReschedule(t, app, second, staffID, day.Add(11*time.Hour), day.Add(12*time.Hour))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestUpdateAppointment_OwnSlotDoesNotCollideWithItself(t *testing.T) {
	app, db, client := setupAppointmentTestApp(t)

	staffID := uint(5)
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	appointment := seedAppointment(t, db, client, staffID, day.Add(10*time.Hour), day.Add(11*time.Hour))

	// Re-saving the appointment on its current slot only moves it by notes or
	// price; its own row is not an overlap.
	status := putReschedule(t, app, appointment, staffID, appointment.StartsAt, appointment.EndsAt)
	assert.Equal(t, fiber.StatusOK, status)
}
