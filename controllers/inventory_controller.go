package controller

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

type InventoryController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewInventoryController(db *gorm.DB, logger *log.Logger) *InventoryController {
	return &InventoryController{
		DB:     db,
		Logger: logger,
	}
}

type ProductRequest struct {
	SupplierID        *uint   `json:"supplier_id"`
	Name              string  `json:"name" validate:"required,max=150"`
	SKU               string  `json:"sku" validate:"omitempty,max=60"`
	Category          string  `json:"category" validate:"omitempty,max=60"`
	Material          string  `json:"material" validate:"omitempty,max=60"`
	Price             float64 `json:"price" validate:"gte=0"`
	Cost              float64 `json:"cost" validate:"gte=0"`
	Quantity          *int    `json:"quantity"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
	IsActive          *bool   `json:"is_active"`
}

func (ic *InventoryController) CreateProduct(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var req ProductRequest
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

	if req.SupplierID != nil {
		var supplier models.Supplier
		if err := ic.DB.Where("id = ? AND user_id = ?", *req.SupplierID, userID).First(&supplier).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Supplier not found",
			})
		}
	}

	product := models.Product{
		UserID:            userID,
		SupplierID:        req.SupplierID,
		Name:              req.Name,
		SKU:               req.SKU,
		Category:          req.Category,
		Material:          req.Material,
		Price:             req.Price,
		Cost:              req.Cost,
		LowStockThreshold: 5,
		IsActive:          true,
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	err := ic.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		if product.Quantity != 0 {
			return tx.Create(&models.StockMovement{
				UserID:    userID,
				ProductID: product.ID,
				Type:      models.MovementAdjustment,
				Quantity:  product.Quantity,
				Reference: "initial stock",
			}).Error
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create product",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(product))
}

func (ic *InventoryController) GetProducts(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 25)

	query := ic.DB.Model(&models.Product{}).Where("user_id = ?", userID)
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if c.QueryBool("active_only", false) {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	query.Count(&total)

	var products []models.Product
	err := query.Preload("Supplier").Order("name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch products",
		})
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  products,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (ic *InventoryController) GetProduct(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	productID := utils.ParseUint(c.Params("id"))

	var product models.Product
	err := ic.DB.Preload("Supplier").
		Preload("Movements", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(50)
		}).
		Where("id = ? AND user_id = ?", productID, userID).
		First(&product).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(utils.SuccessResponse(product))
}

func (ic *InventoryController) UpdateProduct(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	productID := utils.ParseUint(c.Params("id"))

	var product models.Product
	if err := ic.DB.Where("id = ? AND user_id = ?", productID, userID).First(&product).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	var req ProductRequest
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

	// Quantity changes go through AdjustStock so the movement trail stays
	// complete; this endpoint deliberately ignores req.Quantity.
	updates := map[string]interface{}{
		"name":        req.Name,
		"sku":         req.SKU,
		"category":    req.Category,
		"material":    req.Material,
		"price":       req.Price,
		"cost":        req.Cost,
		"supplier_id": req.SupplierID,
	}
	if req.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *req.LowStockThreshold
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := ic.DB.Model(&product).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update product",
		})
	}

	return c.JSON(utils.SuccessResponse(product))
}

func (ic *InventoryController) DeleteProduct(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	productID := utils.ParseUint(c.Params("id"))

	result := ic.DB.Where("id = ? AND user_id = ?", productID, userID).Delete(&models.Product{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete product",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Product deleted"})
}

type AdjustStockRequest struct {
	Quantity  int    `json:"quantity" validate:"required"`
	Reference string `json:"reference" validate:"omitempty,max=120"`
}

// AdjustStock applies a signed quantity delta and records the movement.
// Negative deltas can't push stock below zero.
func (ic *InventoryController) AdjustStock(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	productID := utils.ParseUint(c.Params("id"))

	var req AdjustStockRequest
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

	var product models.Product
	err := ic.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", productID, userID).First(&product).Error; err != nil {
			return err
		}

		if product.Quantity+req.Quantity < 0 {
			return fmt.Errorf("adjustment would leave negative stock")
		}

		if err := tx.Model(&product).
			Update("quantity", gorm.Expr("quantity + ?", req.Quantity)).Error; err != nil {
			return err
		}

		return tx.Create(&models.StockMovement{
			UserID:    userID,
			ProductID: product.ID,
			Type:      models.MovementAdjustment,
			Quantity:  req.Quantity,
			Reference: req.Reference,
		}).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	product.Quantity += req.Quantity
	if product.LowStock() {
		utils.LogEvent("low_stock", map[string]interface{}{
			"product_id": product.ID,
			"quantity":   product.Quantity,
			"threshold":  product.LowStockThreshold,
		})
	}

	return c.JSON(utils.SuccessResponse(product))
}

// GetLowStock lists active products at or below their threshold.
func (ic *InventoryController) GetLowStock(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var products []models.Product
	err := ic.DB.Preload("Supplier").
		Where("user_id = ? AND is_active = ? AND quantity <= low_stock_threshold", userID, true).
		Order("quantity ASC").
		Find(&products).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch low stock report",
		})
	}

	return c.JSON(utils.SuccessResponse(products))
}
