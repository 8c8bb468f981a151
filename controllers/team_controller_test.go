package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

func setupTeamTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TeamMember{},
		&models.SubscriptionPlan{},
	))
	return db
}

// newTeamTestApp wires the team handlers behind a stand-in for the auth
// middleware: the actor and the resolved tenant scope land in locals exactly
// as Protected sets them.
func newTeamTestApp(t *testing.T, db *gorm.DB, actorID uint) *fiber.App {
	t.Helper()

	discard := log.New(io.Discard, "", 0)
	tc := NewTeamController(db, discard, utils.NewMailer(discard))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		var actor models.User
		require.NoError(t, db.First(&actor, actorID).Error)
		c.Locals("user", &actor)
		c.Locals("userID", actor.ID)
		c.Locals("effectiveUserID", models.ResolveEffectiveUserID(db, actor.ID))
		return c.Next()
	})
	app.Post("/team", tc.InviteMember)
	app.Put("/team/:id", tc.UpdateMember)
	app.Post("/team/:id/toggle", tc.ToggleMemberStatus)
	app.Delete("/team/:id", tc.RemoveMember)
	return app
}

func seedStudioWithManager(t *testing.T, db *gorm.DB) (models.User, models.User) {
	t.Helper()

	studio := "Nova Piercing"
	owner := models.User{Email: "owner@studio.test", PasswordHash: "x", IsActive: true, StudioName: &studio}
	require.NoError(t, db.Create(&owner).Error)

	manager := models.User{Email: "manager@studio.test", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&manager).Error)

	perms := models.DefaultMemberPermissions()
	perms.Settings = true
	membership := models.TeamMember{
		OwnerID:     owner.ID,
		MemberID:    manager.ID,
		Role:        models.RoleManager,
		Permissions: perms,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&membership).Error)

	return owner, manager
}

func TestInviteMember_ManagerInvitesIntoOwnerStudio(t *testing.T) {
	db := setupTeamTestDB(t)
	owner, manager := seedStudioWithManager(t, db)
	app := newTeamTestApp(t, db, manager.ID)

	body, _ := json.Marshal(fiber.Map{
		"email": "piercer@studio.test",
		"role":  models.RoleEmployee,
	})
	req := httptest.NewRequest("POST", "/team", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// The new member belongs to the owner's studio, not to a parallel team
	// under the acting manager.
	var membership models.TeamMember
	require.NoError(t, db.Where("invite_email = ?", "piercer@studio.test").First(&membership).Error)
	assert.Equal(t, owner.ID, membership.OwnerID)
	assert.NotEqual(t, manager.ID, membership.OwnerID)
}

func TestInviteMember_PlanLimitReadFromOwnerAccount(t *testing.T) {
	db := setupTeamTestDB(t)
	_, manager := seedStudioWithManager(t, db)
	app := newTeamTestApp(t, db, manager.ID)

	// The owner's plan is full: the single seat is taken by the manager.
	require.NoError(t, db.Create(&models.SubscriptionPlan{
		Name:           "trial",
		MaxTeamMembers: 1,
		MaxClients:     10,
	}).Error)

	body, _ := json.Marshal(fiber.Map{
		"email": "piercer@studio.test",
		"role":  models.RoleEmployee,
	})
	req := httptest.NewRequest("POST", "/team", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestManageMembers_ScopedToOwnerStudio(t *testing.T) {
	db := setupTeamTestDB(t)
	owner, manager := seedStudioWithManager(t, db)

	employee := models.User{Email: "piercer@studio.test", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&employee).Error)
	target := models.TeamMember{
		OwnerID:     owner.ID,
		MemberID:    employee.ID,
		Role:        models.RoleEmployee,
		Permissions: models.DefaultMemberPermissions(),
		IsActive:    true,
	}
	require.NoError(t, db.Create(&target).Error)

	app := newTeamTestApp(t, db, manager.ID)
	targetPath := "/team/" + strconv.FormatUint(uint64(target.ID), 10)

	body, _ := json.Marshal(fiber.Map{"role": models.RoleReceptionist})
	req := httptest.NewRequest("PUT", targetPath, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded models.TeamMember
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.Equal(t, models.RoleReceptionist, reloaded.Role)

	resp, err = app.Test(httptest.NewRequest("POST", targetPath+"/toggle", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.False(t, reloaded.IsActive)

	resp, err = app.Test(httptest.NewRequest("DELETE", targetPath, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.ErrorIs(t, db.First(&reloaded, target.ID).Error, gorm.ErrRecordNotFound)
}
