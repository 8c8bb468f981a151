package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/config"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

func setupWSAuthDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.TeamMember{}))

	config.DB = db
	config.AppConfig.EncryptionKey = "board-ws-test-signing-key"
	return db
}

func TestWSUserID_AcceptsCurrentTokenAndResolvesScope(t *testing.T) {
	db := setupWSAuthDB(t)

	owner := models.User{Email: "owner@studio.test", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&owner).Error)
	member := models.User{Email: "desk@studio.test", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&member).Error)
	require.NoError(t, db.Create(&models.TeamMember{
		OwnerID:     owner.ID,
		MemberID:    member.ID,
		Role:        models.RoleReceptionist,
		Permissions: models.DefaultMemberPermissions(),
		IsActive:    true,
	}).Error)

	token, _, err := utils.GenerateJWTToken(&member)
	require.NoError(t, err)

	id, ok := wsUserID(token)
	assert.True(t, ok)
	assert.Equal(t, owner.ID, id)
}

func TestWSUserID_RejectsRevokedAndInactiveTokens(t *testing.T) {
	db := setupWSAuthDB(t)

	user := models.User{Email: "owner@studio.test", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	token, _, err := utils.GenerateJWTToken(&user)
	require.NoError(t, err)

	_, ok := wsUserID(token)
	require.True(t, ok)

	// Logout bumps the token version; the old socket token dies with it.
	require.NoError(t, db.Model(&user).Update("token_version", user.TokenVersion+1).Error)
	_, ok = wsUserID(token)
	assert.False(t, ok)

	// A current token for a deactivated account is rejected too.
	user.TokenVersion++
	token, _, err = utils.GenerateJWTToken(&user)
	require.NoError(t, err)
	require.NoError(t, db.Model(&user).Update("is_active", false).Error)
	_, ok = wsUserID(token)
	assert.False(t, ok)

	_, ok = wsUserID("not-a-token")
	assert.False(t, ok)
}
