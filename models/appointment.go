package models

import (
	"time"

	"gorm.io/gorm"
)

// Appointment statuses
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

// Appointment represents a booked studio session
type Appointment struct {
	gorm.Model
	UserID   uint  `gorm:"not null;index" json:"user_id"`
	ClientID uint  `gorm:"not null;index" json:"client_id"`
	StaffID  *uint `gorm:"index" json:"staff_id,omitempty"` // piercer performing the procedure

	ServiceName   string    `gorm:"not null" json:"service_name"`
	ProcedureType string    `json:"procedure_type"` // ear, nose, navel, dermal, ...
	StartsAt      time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Status        string    `gorm:"default:'scheduled'" json:"status"`
	Price         float64   `json:"price"`
	Notes         string    `gorm:"type:text" json:"notes"`

	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	ConfirmationSentAt *time.Time `json:"confirmation_sent_at,omitempty"`
	ReminderSentAt     *time.Time `json:"reminder_sent_at,omitempty"`
	AftercareSentAt    *time.Time `json:"aftercare_sent_at,omitempty"`

	// Relations
	Client Client `json:"client,omitempty"`
	Staff  *User  `gorm:"foreignKey:StaffID" json:"-"`
}

// IsValidAppointmentStatus reports whether status is a known appointment state.
func IsValidAppointmentStatus(status string) bool {
	switch status {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted,
		AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// AftercareTemplate defines the follow-up email sent after a completed
// procedure. DayOffset is the number of days after completion before the
// aftercare worker sends it.
type AftercareTemplate struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	ProcedureType string `gorm:"not null;index" json:"procedure_type"`
	Subject       string `gorm:"not null" json:"subject"`
	Body          string `gorm:"type:text;not null" json:"body"` // HTML, rendered with client/appointment data
	DayOffset     int    `gorm:"default:1" json:"day_offset"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`
}
