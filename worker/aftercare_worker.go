package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

// AftercareWorker sends the post-procedure follow-up emails. A completed
// appointment becomes due once its template's day offset has elapsed; each
// appointment is emailed at most once.
type AftercareWorker struct {
	DB     *gorm.DB
	Mailer *utils.Mailer
	Logger *log.Logger
}

func NewAftercareWorker(db *gorm.DB, mailer *utils.Mailer, logger *log.Logger) *AftercareWorker {
	return &AftercareWorker{
		DB:     db,
		Mailer: mailer,
		Logger: logger,
	}
}

func (aw *AftercareWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	aw.Logger.Println("Aftercare worker started")

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			aw.Logger.Println("Aftercare worker shutting down...")
			return
		case <-ticker.C:
			aw.processDueAftercare()
		}
	}
}

func (aw *AftercareWorker) processDueAftercare() {
	var appointments []models.Appointment
	err := aw.DB.Preload("Client").
		Where("status = ? AND aftercare_sent_at IS NULL AND completed_at IS NOT NULL", models.AppointmentCompleted).
		Limit(200).
		Find(&appointments).Error
	if err != nil {
		aw.Logger.Printf("Error fetching completed appointments: %v", err)
		return
	}

	now := time.Now()
	for _, appointment := range appointments {
		if err := aw.processAppointment(appointment, now); err != nil {
			aw.Logger.Printf("Error processing aftercare for appointment %d: %v", appointment.ID, err)
		}
	}
}

func (aw *AftercareWorker) processAppointment(appointment models.Appointment, now time.Time) error {
	if !appointment.Client.AftercareOptIn || appointment.Client.Email == "" {
		// Never due; mark it so the scan doesn't pick it up again.
		return aw.markSent(appointment.ID, now)
	}

	template, err := aw.templateFor(appointment)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return aw.markSent(appointment.ID, now)
		}
		return err
	}

	dueAt := appointment.CompletedAt.AddDate(0, 0, template.DayOffset)
	if now.Before(dueAt) {
		return nil
	}

	if err := aw.Mailer.SendAftercare(appointment.Client, appointment, *template); err != nil {
		utils.LogError("aftercare_email", err, map[string]interface{}{
			"appointment_id": appointment.ID,
			"template_id":    template.ID,
		})
		return err
	}

	utils.LogEvent("aftercare_sent", map[string]interface{}{
		"appointment_id": appointment.ID,
		"procedure_type": appointment.ProcedureType,
	})
	return aw.markSent(appointment.ID, now)
}

// templateFor matches by procedure type first, falling back to a catch-all
// template with an empty procedure type.
func (aw *AftercareWorker) templateFor(appointment models.Appointment) (*models.AftercareTemplate, error) {
	var template models.AftercareTemplate
	err := aw.DB.Where("user_id = ? AND procedure_type = ? AND is_active = ?",
		appointment.UserID, appointment.ProcedureType, true).
		Order("day_offset ASC").
		First(&template).Error
	if err == nil {
		return &template, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	err = aw.DB.Where("user_id = ? AND procedure_type = ? AND is_active = ?",
		appointment.UserID, "", true).
		Order("day_offset ASC").
		First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (aw *AftercareWorker) markSent(appointmentID uint, now time.Time) error {
	return aw.DB.Model(&models.Appointment{}).
		Where("id = ?", appointmentID).
		Update("aftercare_sent_at", now).Error
}
