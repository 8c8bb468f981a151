package controller

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/loyalty"
	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

type SaleController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Loyalty *loyalty.Service
}

func NewSaleController(db *gorm.DB, logger *log.Logger) *SaleController {
	return &SaleController{
		DB:      db,
		Logger:  logger,
		Loyalty: loyalty.NewService(db, logger),
	}
}

type SaleItemRequest struct {
	ProductID   *uint   `json:"product_id"`
	Description string  `json:"description" validate:"omitempty,max=200"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type CreateSaleRequest struct {
	ClientID      *uint             `json:"client_id"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card transfer"`
	ApplyDiscount bool              `json:"apply_discount"`
	Notes         string            `json:"notes"`
}

// CreateSale rings up a ticket. Inventory lines decrement stock and leave a
// movement record; when the client asks for their loyalty discount the best
// eligible one is applied and redeemed in the same transaction. Earned points
// (1 per currency unit of the final total) fan out afterwards.
func (sc *SaleController) CreateSale(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	staffID := c.Locals("userID").(uint)

	var req CreateSaleRequest
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

	if req.ApplyDiscount && req.ClientID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A client is required to apply a loyalty discount",
		})
	}

	if req.ClientID != nil {
		var client models.Client
		if err := sc.DB.Where("id = ? AND user_id = ?", *req.ClientID, userID).First(&client).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}
	}

	var best *loyalty.BestDiscount
	if req.ApplyDiscount {
		var err error
		best, err = sc.Loyalty.BestDiscount(userID, *req.ClientID, time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to evaluate loyalty discount",
			})
		}
		if best == nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "No eligible loyalty discount for this client",
			})
		}
	}

	sale := models.Sale{
		UserID:        userID,
		ClientID:      req.ClientID,
		StaffID:       staffID,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		var subtotal float64
		items := make([]models.SaleItem, 0, len(req.Items))

		for _, line := range req.Items {
			item := models.SaleItem{
				ProductID:   line.ProductID,
				Description: line.Description,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
			}

			if line.ProductID != nil {
				var product models.Product
				if err := tx.Where("id = ? AND user_id = ?", *line.ProductID, userID).First(&product).Error; err != nil {
					return fmt.Errorf("product %d not found", *line.ProductID)
				}
				if product.Quantity < line.Quantity {
					return fmt.Errorf("not enough stock for %s", product.Name)
				}
				if item.Description == "" {
					item.Description = product.Name
				}
				if item.UnitPrice == 0 {
					item.UnitPrice = product.Price
				}

				if err := tx.Model(&product).
					Update("quantity", gorm.Expr("quantity - ?", line.Quantity)).Error; err != nil {
					return err
				}
			} else if item.Description == "" {
				return fmt.Errorf("service lines need a description")
			}

			item.LineTotal = roundMoney(item.UnitPrice * float64(item.Quantity))
			subtotal += item.LineTotal
			items = append(items, item)
		}

		sale.Subtotal = roundMoney(subtotal)
		sale.Total = sale.Subtotal
		if best != nil {
			sale.DiscountPercent = best.Discount
			sale.DiscountPlanID = &best.PlanID
			sale.Total = roundMoney(subtotal * (1 - best.Discount/100))
		}
		sale.Items = items

		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		// Movement rows reference the sale, so they come after Create.
		for _, item := range sale.Items {
			if item.ProductID == nil {
				continue
			}
			if err := tx.Create(&models.StockMovement{
				UserID:    userID,
				ProductID: *item.ProductID,
				SaleID:    &sale.ID,
				Type:      models.MovementSale,
				Quantity:  -item.Quantity,
				Reference: fmt.Sprintf("sale #%d", sale.ID),
			}).Error; err != nil {
				return err
			}
		}

		if best != nil {
			redemption := models.LoyaltyRedemption{
				EnrollmentID: best.EnrollmentID,
				RewardType:   models.RewardDiscount,
				RewardValue:  best.Discount,
				Description:  best.Reason,
				SaleID:       &sale.ID,
			}
			if err := tx.Create(&redemption).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.ClientLoyaltyEnrollment{}).
				Where("id = ?", best.EnrollmentID).
				Updates(map[string]interface{}{
					"rewards_claimed": gorm.Expr("rewards_claimed + 1"),
					"last_reward_at":  time.Now(),
				}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		utils.LogError("sale_create", err, map[string]interface{}{
			"user_id": userID,
		})
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Earning happens outside the ticket transaction: a points hiccup must
	// not void a rung-up sale.
	if req.ClientID != nil && sale.Total > 0 {
		points := int(math.Floor(sale.Total))
		if points > 0 {
			if _, err := sc.Loyalty.AddPoints(userID, *req.ClientID, points, sale.Total); err != nil {
				sc.Logger.Printf("Failed to add loyalty points for sale %d: %v", sale.ID, err)
			}
		}
	}

	utils.LogEvent("sale_completed", map[string]interface{}{
		"sale_id":        sale.ID,
		"user_id":        userID,
		"total":          sale.Total,
		"payment_method": sale.PaymentMethod,
		"discounted":     best != nil,
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(sale))
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func (sc *SaleController) GetSales(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 25)

	query := sc.DB.Model(&models.Sale{}).Where("user_id = ?", userID)
	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			query = query.Where("created_at >= ?", parsed)
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			query = query.Where("created_at < ?", parsed)
		}
	}
	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", utils.ParseUint(clientID))
	}

	var total int64
	query.Count(&total)

	var sales []models.Sale
	err := query.Preload("Items").Preload("Client").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sales).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sales",
		})
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  sales,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (sc *SaleController) GetSale(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	saleID := utils.ParseUint(c.Params("id"))

	var sale models.Sale
	err := sc.DB.Preload("Items.Product").Preload("Client").
		Where("id = ? AND user_id = ?", saleID, userID).
		First(&sale).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sale not found",
		})
	}

	return c.JSON(utils.SuccessResponse(sale))
}

type DailySummary struct {
	Date       string             `json:"date"`
	SalesCount int64              `json:"sales_count"`
	Revenue    float64            `json:"revenue"`
	Discounts  float64            `json:"discounts"`
	ByMethod   map[string]float64 `json:"by_method"`
}

// GetDailySummary is the end-of-day register close report.
func (sc *SaleController) GetDailySummary(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date must be YYYY-MM-DD",
			})
		}
		day = parsed
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var sales []models.Sale
	err := sc.DB.Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, dayStart, dayEnd).
		Find(&sales).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build daily summary",
		})
	}

	summary := DailySummary{
		Date:     dayStart.Format("2006-01-02"),
		ByMethod: map[string]float64{},
	}
	for _, sale := range sales {
		summary.SalesCount++
		summary.Revenue += sale.Total
		summary.Discounts += sale.Subtotal - sale.Total
		summary.ByMethod[sale.PaymentMethod] += sale.Total
	}
	summary.Revenue = roundMoney(summary.Revenue)
	summary.Discounts = roundMoney(summary.Discounts)

	return c.JSON(utils.SuccessResponse(summary))
}

// VoidSale deletes the ticket and returns inventory lines to stock.
func (sc *SaleController) VoidSale(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	saleID := utils.ParseUint(c.Params("id"))

	var sale models.Sale
	err := sc.DB.Preload("Items").
		Where("id = ? AND user_id = ?", saleID, userID).
		First(&sale).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sale not found",
		})
	}

	err = sc.DB.Transaction(func(tx *gorm.DB) error {
		for _, item := range sale.Items {
			if item.ProductID == nil {
				continue
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", *item.ProductID).
				Update("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.StockMovement{
				UserID:    userID,
				ProductID: *item.ProductID,
				SaleID:    &sale.ID,
				Type:      models.MovementAdjustment,
				Quantity:  item.Quantity,
				Reference: fmt.Sprintf("void sale #%d", sale.ID),
			}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sale).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to void sale",
		})
	}

	utils.LogEvent("sale_voided", map[string]interface{}{
		"sale_id": saleID,
		"user_id": userID,
	})

	return c.JSON(fiber.Map{"message": "Sale voided"})
}
