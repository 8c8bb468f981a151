package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// Team member roles
const (
	RoleEmployee     = "employee"
	RoleManager      = "manager"
	RoleReceptionist = "receptionist"
)

// PermissionSet holds the six capability flags gating application sections.
// It is stored as a JSONB column; missing fields unmarshal to false, so a
// partially specified set always denies what it does not grant.
type PermissionSet struct {
	POS          bool `json:"pos"`
	Clients      bool `json:"clients"`
	Inventory    bool `json:"inventory"`
	Reports      bool `json:"reports"`
	Settings     bool `json:"settings"`
	Appointments bool `json:"appointments"`
}

// Has reports whether the named capability is granted. Unknown keys are
// denied (fail-closed).
func (p PermissionSet) Has(key string) bool {
	switch key {
	case "pos":
		return p.POS
	case "clients":
		return p.Clients
	case "inventory":
		return p.Inventory
	case "reports":
		return p.Reports
	case "settings":
		return p.Settings
	case "appointments":
		return p.Appointments
	default:
		return false
	}
}

// OwnerPermissions returns the permission set of an account owner: every
// capability granted.
func OwnerPermissions() PermissionSet {
	return PermissionSet{
		POS:          true,
		Clients:      true,
		Inventory:    true,
		Reports:      true,
		Settings:     true,
		Appointments: true,
	}
}

// DefaultMemberPermissions returns the conservative profile applied to a
// newly invited member before explicit configuration: day-to-day front-desk
// capabilities only.
func DefaultMemberPermissions() PermissionSet {
	return PermissionSet{
		POS:          true,
		Clients:      true,
		Appointments: true,
	}
}

func (p PermissionSet) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PermissionSet) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = PermissionSet{}
		return nil
	default:
		return fmt.Errorf("unsupported type for PermissionSet: %T", value)
	}
}

// TeamMember links a staff account to the studio owner whose data it works
// on. A user can belong to at most one team.
type TeamMember struct {
	gorm.Model
	OwnerID  uint `gorm:"not null;index" json:"owner_id"`
	MemberID uint `gorm:"not null;uniqueIndex" json:"member_id"`

	Role        string        `gorm:"default:'employee'" json:"role"` // employee, manager, receptionist
	Permissions PermissionSet `gorm:"type:jsonb" json:"permissions"`
	IsActive    bool          `gorm:"default:true" json:"is_active"`
	InviteEmail string        `json:"invite_email"`

	// Relations
	Owner  User `gorm:"foreignKey:OwnerID" json:"-"`
	Member User `gorm:"foreignKey:MemberID" json:"-"`
}

// IsValidRole reports whether role is one of the known team roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleEmployee, RoleManager, RoleReceptionist:
		return true
	}
	return false
}

// ResolveEffectiveUserID maps an authenticated actor to the account whose
// data it operates on: the team owner's id for active members, the actor's
// own id otherwise. A failed lookup degrades to self-scope rather than
// failing the calling operation.
func ResolveEffectiveUserID(db *gorm.DB, actorID uint) uint {
	var membership TeamMember
	err := db.Where("member_id = ? AND is_active = ?", actorID, true).First(&membership).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("TEAM: effective user lookup failed for actor %d, falling back to self-scope: %v", actorID, err)
		}
		return actorID
	}
	return membership.OwnerID
}
