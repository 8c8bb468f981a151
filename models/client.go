package models

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a studio customer
type Client struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name      string     `gorm:"not null" json:"name"`
	Email     string     `gorm:"index" json:"email"`
	Phone     string     `json:"phone"`
	BirthDate *time.Time `json:"birth_date,omitempty"`

	// HealthNotes is AES-encrypted at the application layer before storage
	// (allergies, medication, healing history).
	HealthNotes string `gorm:"type:text" json:"-"`

	VisitCount     int        `gorm:"default:0" json:"visit_count"`
	LastVisitAt    *time.Time `json:"last_visit_at,omitempty"`
	AftercareOptIn bool       `gorm:"default:true" json:"aftercare_opt_in"`

	// Tracks the last birthday greeting so the reminder worker sends at most
	// one per year.
	LastBirthdayGreetingAt *time.Time `json:"-"`

	// Relations
	Enrollments  []ClientLoyaltyEnrollment `gorm:"foreignKey:ClientID" json:"enrollments,omitempty"`
	Appointments []Appointment             `gorm:"foreignKey:ClientID" json:"appointments,omitempty"`
	Sales        []Sale                    `gorm:"foreignKey:ClientID" json:"sales,omitempty"`
}
