package controller

import (
	"log"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

type SupplierController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSupplierController(db *gorm.DB, logger *log.Logger) *SupplierController {
	return &SupplierController{
		DB:     db,
		Logger: logger,
	}
}

type SupplierRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	ContactName string `json:"contact_name" validate:"omitempty,max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,max=30"`
	Website     string `json:"website" validate:"omitempty,url"`
	Notes       string `json:"notes"`
}

func (sc *SupplierController) CreateSupplier(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var req SupplierRequest
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

	if req.Email != "" {
		if err := checkmail.ValidateFormat(req.Email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid email address",
			})
		}
	}

	supplier := models.Supplier{
		UserID:      userID,
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		Notes:       req.Notes,
	}

	if err := sc.DB.Create(&supplier).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create supplier",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(supplier))
}

func (sc *SupplierController) GetSuppliers(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var suppliers []models.Supplier
	err := sc.DB.Where("user_id = ?", userID).
		Order("name ASC").Find(&suppliers).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch suppliers",
		})
	}

	return c.JSON(utils.SuccessResponse(suppliers))
}

func (sc *SupplierController) GetSupplier(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	supplierID := utils.ParseUint(c.Params("id"))

	var supplier models.Supplier
	err := sc.DB.Preload("Products").
		Where("id = ? AND user_id = ?", supplierID, userID).
		First(&supplier).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Supplier not found",
		})
	}

	return c.JSON(utils.SuccessResponse(supplier))
}

func (sc *SupplierController) UpdateSupplier(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	supplierID := utils.ParseUint(c.Params("id"))

	var supplier models.Supplier
	if err := sc.DB.Where("id = ? AND user_id = ?", supplierID, userID).First(&supplier).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Supplier not found",
		})
	}

	var req SupplierRequest
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

	updates := map[string]interface{}{
		"name":         req.Name,
		"contact_name": req.ContactName,
		"email":        req.Email,
		"phone":        req.Phone,
		"website":      req.Website,
		"notes":        req.Notes,
	}

	if err := sc.DB.Model(&supplier).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update supplier",
		})
	}

	return c.JSON(utils.SuccessResponse(supplier))
}

func (sc *SupplierController) DeleteSupplier(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	supplierID := utils.ParseUint(c.Params("id"))

	// Keep products; they just lose their supplier link.
	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).
			Where("supplier_id = ? AND user_id = ?", supplierID, userID).
			Update("supplier_id", nil).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND user_id = ?", supplierID, userID).Delete(&models.Supplier{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Supplier not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete supplier",
		})
	}

	return c.JSON(fiber.Map{"message": "Supplier deleted"})
}

type ReceiveStockRequest struct {
	Items []struct {
		ProductID uint `json:"product_id" validate:"required"`
		Quantity  int  `json:"quantity" validate:"required,gt=0"`
	} `json:"items" validate:"required,min=1,dive"`
	Reference string `json:"reference" validate:"omitempty,max=120"`
}

// ReceiveStock books a delivery from the supplier as purchase movements.
func (sc *SupplierController) ReceiveStock(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	supplierID := utils.ParseUint(c.Params("id"))

	var supplier models.Supplier
	if err := sc.DB.Where("id = ? AND user_id = ?", supplierID, userID).First(&supplier).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Supplier not found",
		})
	}

	var req ReceiveStockRequest
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

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		for _, item := range req.Items {
			result := tx.Model(&models.Product{}).
				Where("id = ? AND user_id = ?", item.ProductID, userID).
				Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}

			if err := tx.Create(&models.StockMovement{
				UserID:    userID,
				ProductID: item.ProductID,
				Type:      models.MovementPurchase,
				Quantity:  item.Quantity,
				Reference: req.Reference,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "One of the products was not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to receive stock",
		})
	}

	utils.LogEvent("stock_received", map[string]interface{}{
		"supplier_id": supplierID,
		"items":       len(req.Items),
	})

	return c.JSON(fiber.Map{"message": "Stock received"})
}
