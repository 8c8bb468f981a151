package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/config"
	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

type TeamController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Mailer *utils.Mailer
}

func NewTeamController(db *gorm.DB, logger *log.Logger, mailer *utils.Mailer) *TeamController {
	return &TeamController{
		DB:     db,
		Logger: logger,
		Mailer: mailer,
	}
}

type InviteMemberRequest struct {
	Email       string                `json:"email" validate:"required,email"`
	Name        string                `json:"name" validate:"omitempty,max=100"`
	Role        string                `json:"role" validate:"required,oneof=employee manager receptionist"`
	Permissions *models.PermissionSet `json:"permissions"`
}

type UpdateMemberRequest struct {
	Role        string                `json:"role" validate:"omitempty,oneof=employee manager receptionist"`
	Permissions *models.PermissionSet `json:"permissions"`
}

// InviteMember creates (or links) the member account and emails an invite.
// When no explicit permissions are supplied the conservative default profile
// applies: pos, clients and appointments only.
func (tc *TeamController) InviteMember(c *fiber.Ctx) error {
	ownerID := middleware.EffectiveUserID(c)

	// Load the studio owner, not the acting member: plan limits, the
	// self-invite check and the studio name all belong to the owner account.
	var owner models.User
	if err := tc.DB.First(&owner, ownerID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up studio account",
		})
	}

	var req InviteMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Enforce the subscription plan's team size
	var plan models.SubscriptionPlan
	if err := tc.DB.Where("name = ?", owner.PlanName).First(&plan).Error; err == nil {
		var memberCount int64
		tc.DB.Model(&models.TeamMember{}).Where("owner_id = ?", owner.ID).Count(&memberCount)
		if memberCount >= int64(plan.MaxTeamMembers) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": fmt.Sprintf("Your plan allows up to %d team members", plan.MaxTeamMembers),
			})
		}
	}

	// Find or create the member's account
	var member models.User
	err := tc.DB.Where("email = ?", req.Email).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tempPassword, genErr := utils.GenerateSecureToken()
		if genErr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create member account",
			})
		}
		hashed, genErr := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
		if genErr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create member account",
			})
		}
		member = models.User{
			Email:        req.Email,
			PasswordHash: string(hashed),
			Name:         &req.Name,
			IsActive:     true,
		}
		if err := tc.DB.Create(&member).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create member account",
			})
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up member",
		})
	}

	if member.ID == owner.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You can't invite yourself",
		})
	}

	var existing models.TeamMember
	if err := tc.DB.Where("member_id = ?", member.ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "This user already belongs to a team",
		})
	}

	permissions := models.DefaultMemberPermissions()
	if req.Permissions != nil {
		permissions = *req.Permissions
	}

	membership := models.TeamMember{
		OwnerID:     owner.ID,
		MemberID:    member.ID,
		Role:        req.Role,
		Permissions: permissions,
		IsActive:    true,
		InviteEmail: req.Email,
	}
	if err := tc.DB.Create(&membership).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team member",
		})
	}

	studioName := "your studio"
	if owner.StudioName != nil && *owner.StudioName != "" {
		studioName = *owner.StudioName
	}
	inviteLink := fmt.Sprintf("%s/team/accept?email=%s", config.AppConfig.AppURL, req.Email)
	if err := tc.Mailer.SendTeamInvite(req.Email, studioName, req.Role, inviteLink); err != nil {
		// The membership is created; the invite email failing is not fatal.
		tc.Logger.Printf("Failed to send invite email to %s: %v", req.Email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(membership))
}

func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	ownerID := middleware.EffectiveUserID(c)

	var members []models.TeamMember
	err := tc.DB.Preload("Member").Where("owner_id = ?", ownerID).
		Order("created_at ASC").Find(&members).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch team",
		})
	}

	return c.JSON(utils.SuccessResponse(members))
}

// UpdateMember changes role and/or permissions. The permission set is
// replaced wholesale; omitted fields in the payload become false.
func (tc *TeamController) UpdateMember(c *fiber.Ctx) error {
	ownerID := middleware.EffectiveUserID(c)
	memberID := utils.ParseUint(c.Params("id"))

	var req UpdateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var membership models.TeamMember
	if err := tc.DB.Where("id = ? AND owner_id = ?", memberID, ownerID).First(&membership).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team member not found",
		})
	}

	updates := map[string]interface{}{}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	if req.Permissions != nil {
		updates["permissions"] = *req.Permissions
	}
	if len(updates) == 0 {
		return c.JSON(utils.SuccessResponse(membership))
	}

	if err := tc.DB.Model(&membership).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update team member",
		})
	}

	return c.JSON(utils.SuccessResponse(membership))
}

func (tc *TeamController) ToggleMemberStatus(c *fiber.Ctx) error {
	ownerID := middleware.EffectiveUserID(c)
	memberID := utils.ParseUint(c.Params("id"))

	var membership models.TeamMember
	if err := tc.DB.Where("id = ? AND owner_id = ?", memberID, ownerID).First(&membership).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team member not found",
		})
	}

	if err := tc.DB.Model(&membership).Update("is_active", !membership.IsActive).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update team member",
		})
	}

	membership.IsActive = !membership.IsActive
	return c.JSON(utils.SuccessResponse(membership))
}

func (tc *TeamController) RemoveMember(c *fiber.Ctx) error {
	ownerID := middleware.EffectiveUserID(c)
	memberID := utils.ParseUint(c.Params("id"))

	result := tc.DB.Where("id = ? AND owner_id = ?", memberID, ownerID).
		Delete(&models.TeamMember{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove team member",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team member not found",
		})
	}

	tc.Logger.Printf("Team member %d removed from studio %d at %s", memberID, ownerID, time.Now().Format(time.RFC3339))
	return c.JSON(fiber.Map{"message": "Team member removed"})
}
