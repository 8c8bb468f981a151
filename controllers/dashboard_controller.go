package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cristophermlima/pierce-hub-suite-sub001/loyalty"
	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

type DashboardStats struct {
	Revenue              float64 `json:"revenue"`
	SalesCount           int64   `json:"sales_count"`
	AverageTicket        float64 `json:"average_ticket"`
	AppointmentsBooked   int64   `json:"appointments_booked"`
	AppointmentsComplete int64   `json:"appointments_complete"`
	NoShowRate           float64 `json:"no_show_rate"`
	NewClients           int64   `json:"new_clients"`
	LowStockProducts     int64   `json:"low_stock_products"`
}

func timeFrameStart(timeFrame string, now time.Time) time.Time {
	switch timeFrame {
	case "day":
		return now.Add(-24 * time.Hour)
	case "week":
		return now.Add(-7 * 24 * time.Hour)
	case "month":
		return now.Add(-30 * 24 * time.Hour)
	case "year":
		return now.Add(-365 * 24 * time.Hour)
	default:
		return now.Add(-7 * 24 * time.Hour)
	}
}

// GetDashboardStats returns the summary cards for the studio dashboard.
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	timeFrame := c.Query("time_frame", "week") // day, week, month, year

	now := time.Now()
	startTime := timeFrameStart(timeFrame, now)

	var stats DashboardStats

	type revenueRow struct {
		Total float64
		Count int64
	}
	var revenue revenueRow
	err := dc.DB.Model(&models.Sale{}).
		Select("COALESCE(SUM(total), 0) AS total, COUNT(*) AS count").
		Where("user_id = ? AND created_at BETWEEN ? AND ?", userID, startTime, now).
		Scan(&revenue).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get revenue stats",
		})
	}
	stats.Revenue = revenue.Total
	stats.SalesCount = revenue.Count
	if revenue.Count > 0 {
		stats.AverageTicket = revenue.Total / float64(revenue.Count)
	}

	dc.DB.Model(&models.Appointment{}).
		Where("user_id = ? AND created_at BETWEEN ? AND ?", userID, startTime, now).
		Count(&stats.AppointmentsBooked)

	dc.DB.Model(&models.Appointment{}).
		Where("user_id = ? AND status = ? AND completed_at BETWEEN ? AND ?",
			userID, models.AppointmentCompleted, startTime, now).
		Count(&stats.AppointmentsComplete)

	var noShows int64
	dc.DB.Model(&models.Appointment{}).
		Where("user_id = ? AND status = ? AND starts_at BETWEEN ? AND ?",
			userID, models.AppointmentNoShow, startTime, now).
		Count(&noShows)
	if stats.AppointmentsBooked > 0 {
		stats.NoShowRate = float64(noShows) / float64(stats.AppointmentsBooked) * 100
	}

	dc.DB.Model(&models.Client{}).
		Where("user_id = ? AND created_at BETWEEN ? AND ?", userID, startTime, now).
		Count(&stats.NewClients)

	dc.DB.Model(&models.Product{}).
		Where("user_id = ? AND is_active = ? AND quantity <= low_stock_threshold", userID, true).
		Count(&stats.LowStockProducts)

	return c.JSON(utils.SuccessResponse(stats))
}

type revenuePoint struct {
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
	Sales   int64   `json:"sales"`
}

// GetRevenueOverTime buckets sales per day for the revenue chart.
func (dc *DashboardController) GetRevenueOverTime(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	days := c.QueryInt("days", 30)
	if days < 1 || days > 365 {
		days = 30
	}

	now := time.Now()
	start := now.AddDate(0, 0, -days).Truncate(24 * time.Hour)

	var sales []models.Sale
	err := dc.DB.Select("total, created_at").
		Where("user_id = ? AND created_at >= ?", userID, start).
		Order("created_at ASC").
		Find(&sales).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get revenue data",
		})
	}

	// Bucket in Go instead of SQL so the query stays portable across the
	// postgres production driver and the sqlite tests.
	points := make([]revenuePoint, 0, days+1)
	index := map[string]int{}
	for d := start; !d.After(now); d = d.AddDate(0, 0, 1) {
		label := d.Format("2006-01-02")
		index[label] = len(points)
		points = append(points, revenuePoint{Label: label})
	}
	for _, sale := range sales {
		label := sale.CreatedAt.Format("2006-01-02")
		if i, ok := index[label]; ok {
			points[i].Revenue += sale.Total
			points[i].Sales++
		}
	}

	return c.JSON(utils.SuccessResponse(points))
}

type loyaltyOverview struct {
	ActivePlans      int64 `json:"active_plans"`
	Enrollments      int64 `json:"enrollments"`
	RewardsClaimed   int64 `json:"rewards_claimed"`
	EligibleToRedeem int   `json:"eligible_to_redeem"`
}

// GetLoyaltyOverview summarizes the loyalty programs for the dashboard.
func (dc *DashboardController) GetLoyaltyOverview(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)

	var overview loyaltyOverview

	dc.DB.Model(&models.LoyaltyPlan{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&overview.ActivePlans)

	dc.DB.Model(&models.ClientLoyaltyEnrollment{}).
		Where("user_id = ?", userID).
		Count(&overview.Enrollments)

	dc.DB.Model(&models.LoyaltyRedemption{}).
		Joins("JOIN client_loyalty_enrollments ON client_loyalty_enrollments.id = loyalty_redemptions.enrollment_id").
		Where("client_loyalty_enrollments.user_id = ?", userID).
		Count(&overview.RewardsClaimed)

	// Eligibility needs the client counters, so it's evaluated in Go.
	var enrollments []models.ClientLoyaltyEnrollment
	err := dc.DB.Preload("Plan").Preload("Client").
		Where("user_id = ?", userID).
		Find(&enrollments).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get loyalty overview",
		})
	}

	now := time.Now()
	for _, e := range enrollments {
		if !e.Plan.IsActive {
			continue
		}
		if loyalty.CheckEligibility(e, e.Client, e.Plan, now).Eligible {
			overview.EligibleToRedeem++
		}
	}

	return c.JSON(utils.SuccessResponse(overview))
}

// GetTopProducts ranks sale line items by revenue in the window.
func (dc *DashboardController) GetTopProducts(c *fiber.Ctx) error {
	userID := middleware.EffectiveUserID(c)
	timeFrame := c.Query("time_frame", "month")
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	now := time.Now()
	startTime := timeFrameStart(timeFrame, now)

	type productRow struct {
		Description string  `json:"description"`
		Units       int64   `json:"units"`
		Revenue     float64 `json:"revenue"`
	}

	var rows []productRow
	err := dc.DB.Model(&models.SaleItem{}).
		Select("sale_items.description, SUM(sale_items.quantity) AS units, SUM(sale_items.line_total) AS revenue").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.user_id = ? AND sales.created_at BETWEEN ? AND ?", userID, startTime, now).
		Group("sale_items.description").
		Order("revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get top products",
		})
	}

	return c.JSON(utils.SuccessResponse(rows))
}
