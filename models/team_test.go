package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

func TestPermissionSet_Has(t *testing.T) {
	perms := models.PermissionSet{POS: true, Clients: true, Appointments: true}

	tests := []struct {
		key  string
		want bool
	}{
		{"pos", true},
		{"clients", true},
		{"appointments", true},
		{"inventory", false},
		{"reports", false},
		{"settings", false},
		{"billing", false}, // unknown key is denied
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := perms.Has(tt.key); got != tt.want {
				t.Errorf("Has(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestDefaultPermissionProfiles(t *testing.T) {
	owner := models.OwnerPermissions()
	for _, key := range []string{"pos", "clients", "inventory", "reports", "settings", "appointments"} {
		if !owner.Has(key) {
			t.Errorf("owner must have %q", key)
		}
	}

	member := models.DefaultMemberPermissions()
	assert.True(t, member.POS)
	assert.True(t, member.Clients)
	assert.True(t, member.Appointments)
	assert.False(t, member.Inventory)
	assert.False(t, member.Reports)
	assert.False(t, member.Settings)
}

func TestPermissionSet_ScanMissingFieldsDeny(t *testing.T) {
	var perms models.PermissionSet
	require.NoError(t, perms.Scan([]byte(`{"pos":true}`)))

	assert.True(t, perms.Has("pos"))
	assert.False(t, perms.Has("settings"))
	assert.False(t, perms.Has("inventory"))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, models.IsValidRole(models.RoleEmployee))
	assert.True(t, models.IsValidRole(models.RoleManager))
	assert.True(t, models.IsValidRole(models.RoleReceptionist))
	assert.False(t, models.IsValidRole("owner"))
	assert.False(t, models.IsValidRole(""))
}

func setupTeamDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.TeamMember{}))
	return db
}

func TestResolveEffectiveUserID(t *testing.T) {
	db := setupTeamDB(t)

	membership := models.TeamMember{
		OwnerID:     1,
		MemberID:    2,
		Role:        models.RoleEmployee,
		Permissions: models.DefaultMemberPermissions(),
		IsActive:    true,
	}
	require.NoError(t, db.Create(&membership).Error)

	// Active member resolves to the owner.
	assert.Equal(t, uint(1), models.ResolveEffectiveUserID(db, 2))

	// Non-member resolves to self.
	assert.Equal(t, uint(9), models.ResolveEffectiveUserID(db, 9))

	// Inactive membership resolves to self.
	require.NoError(t, db.Model(&membership).Update("is_active", false).Error)
	assert.Equal(t, uint(2), models.ResolveEffectiveUserID(db, 2))
}

func TestResolveEffectiveUserID_LookupFailureFallsBackToSelf(t *testing.T) {
	db := setupTeamDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.TeamMember{}))

	// Broken store must degrade to self-scope, never fail.
	assert.Equal(t, uint(3), models.ResolveEffectiveUserID(db, 3))
}
