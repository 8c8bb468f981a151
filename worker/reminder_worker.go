package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/loyalty"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

// ReminderWorker emails clients a reminder the day before their appointment
// and a greeting once per birthday month.
type ReminderWorker struct {
	DB     *gorm.DB
	Mailer *utils.Mailer
	Logger *log.Logger
}

func NewReminderWorker(db *gorm.DB, mailer *utils.Mailer, logger *log.Logger) *ReminderWorker {
	return &ReminderWorker{
		DB:     db,
		Mailer: mailer,
		Logger: logger,
	}
}

func (rw *ReminderWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	rw.Logger.Println("Reminder worker started")

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Println("Reminder worker shutting down...")
			return
		case <-ticker.C:
			rw.processReminders()
			rw.processBirthdays()
		}
	}
}

// processReminders covers appointments starting within the next 24 hours
// that haven't been reminded yet.
func (rw *ReminderWorker) processReminders() {
	now := time.Now()
	windowEnd := now.Add(24 * time.Hour)

	var appointments []models.Appointment
	err := rw.DB.Preload("Client").
		Where("status IN ? AND reminder_sent_at IS NULL AND starts_at BETWEEN ? AND ?",
			[]string{models.AppointmentScheduled, models.AppointmentConfirmed}, now, windowEnd).
		Limit(200).
		Find(&appointments).Error
	if err != nil {
		rw.Logger.Printf("Error fetching upcoming appointments: %v", err)
		return
	}

	for _, appointment := range appointments {
		if appointment.Client.Email == "" {
			rw.markReminded(appointment.ID, now)
			continue
		}

		if err := rw.Mailer.SendAppointmentReminder(appointment.Client, appointment); err != nil {
			utils.LogError("reminder_email", err, map[string]interface{}{
				"appointment_id": appointment.ID,
			})
			continue
		}

		rw.markReminded(appointment.ID, now)
	}
}

func (rw *ReminderWorker) markReminded(appointmentID uint, now time.Time) {
	err := rw.DB.Model(&models.Appointment{}).
		Where("id = ?", appointmentID).
		Update("reminder_sent_at", now).Error
	if err != nil {
		rw.Logger.Printf("Error marking reminder for appointment %d: %v", appointmentID, err)
	}
}

// processBirthdays greets each client once per birthday month, mentioning
// an active birthday-plan discount when one applies.
func (rw *ReminderWorker) processBirthdays() {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var clients []models.Client
	err := rw.DB.Where("birth_date IS NOT NULL AND email != ''").
		Where("last_birthday_greeting_at IS NULL OR last_birthday_greeting_at < ?", monthStart).
		Limit(500).
		Find(&clients).Error
	if err != nil {
		rw.Logger.Printf("Error fetching birthday clients: %v", err)
		return
	}

	for _, client := range clients {
		if client.BirthDate.Month() != now.Month() {
			continue
		}
		if err := rw.greetClient(client, now); err != nil {
			rw.Logger.Printf("Error greeting client %d: %v", client.ID, err)
		}
	}
}

func (rw *ReminderWorker) greetClient(client models.Client, now time.Time) error {
	studioName := "your studio"
	var owner models.User
	if err := rw.DB.First(&owner, client.UserID).Error; err == nil && owner.StudioName != nil && *owner.StudioName != "" {
		studioName = *owner.StudioName
	}

	var discount *float64
	var enrollments []models.ClientLoyaltyEnrollment
	err := rw.DB.Preload("Plan").
		Where("client_id = ? AND user_id = ?", client.ID, client.UserID).
		Order("created_at DESC").
		Find(&enrollments).Error
	if err == nil {
		if best := loyalty.EvaluateBest(enrollments, client, now); best != nil {
			discount = &best.Discount
		}
	}

	if err := rw.Mailer.SendBirthdayGreeting(client, studioName, discount); err != nil {
		utils.LogError("birthday_email", err, map[string]interface{}{
			"client_id": client.ID,
		})
		return err
	}

	utils.LogEvent("birthday_greeting_sent", map[string]interface{}{
		"client_id": client.ID,
	})

	return rw.DB.Model(&models.Client{}).
		Where("id = ?", client.ID).
		Update("last_birthday_greeting_at", now).Error
}
