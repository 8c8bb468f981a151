package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	controller "github.com/cristophermlima/pierce-hub-suite-sub001/controllers"
	"github.com/cristophermlima/pierce-hub-suite-sub001/middleware"
	"github.com/cristophermlima/pierce-hub-suite-sub001/utils"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize logger
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/forgot-password", controller.ForgotPassword)
	auth.Post("/reset-password", controller.ResetPassword)
	auth.Post("/refresh", controller.RefreshToken)

	// Google OAuth routes
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Post("/change-password", controller.ChangePassword)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	// OTP routes group
	otp := app.Group("/otp", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	otp.Post("/send", controller.SendOTP)
	otp.Post("/verify", controller.VerifyOTP)

	// Billing routes: the webhook must stay public, Stripe signs it itself
	billing := app.Group("/billing")
	billing.Get("/plans", controller.GetSubscriptionPlans)
	billing.Post("/webhook", controller.HandleBillingWebhook)
	protectedBilling := billing.Group("", middleware.Protected())
	protectedBilling.Post("/checkout", controller.CreateCheckoutSession)
	protectedBilling.Get("/status", controller.GetBillingStatus)

	// Log initialization
	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize controllers with their respective loggers
	mailer := utils.NewMailer(log.New(os.Stdout, "MAILER: ", log.LstdFlags))

	teamController := controller.NewTeamController(db, log.New(os.Stdout, "TEAM: ", log.LstdFlags), mailer)
	clientController := controller.NewClientController(db, log.New(os.Stdout, "CLIENT: ", log.LstdFlags))
	appointmentController := controller.NewAppointmentController(db, log.New(os.Stdout, "APPOINTMENT: ", log.LstdFlags), mailer)
	loyaltyController := controller.NewLoyaltyController(db, log.New(os.Stdout, "LOYALTY: ", log.LstdFlags))
	inventoryController := controller.NewInventoryController(db, log.New(os.Stdout, "INVENTORY: ", log.LstdFlags))
	supplierController := controller.NewSupplierController(db, log.New(os.Stdout, "SUPPLIER: ", log.LstdFlags))
	saleController := controller.NewSaleController(db, log.New(os.Stdout, "SALE: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))
	aftercareController := controller.NewAftercareController(db, log.New(os.Stdout, "AFTERCARE: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Dashboard routes
	dashboard := api.Group("/dashboard", middleware.RequirePermission("reports"))
	dashboard.Get("/stats", dashboardController.GetDashboardStats)
	dashboard.Get("/revenue", dashboardController.GetRevenueOverTime)
	dashboard.Get("/loyalty", dashboardController.GetLoyaltyOverview)
	dashboard.Get("/top-products", dashboardController.GetTopProducts)

	// Team routes (owner settings)
	team := api.Group("/team", middleware.RequirePermission("settings"))
	team.Post("/", teamController.InviteMember)
	team.Get("/", teamController.GetTeam)
	team.Put("/:id", teamController.UpdateMember)
	team.Post("/:id/toggle", teamController.ToggleMemberStatus)
	team.Delete("/:id", teamController.RemoveMember)

	// Client routes
	client := api.Group("/clients", middleware.RequirePermission("clients"))
	client.Post("/", clientController.CreateClient)
	client.Get("/", clientController.GetClients)
	client.Get("/:id", clientController.GetClient)
	client.Put("/:id", clientController.UpdateClient)
	client.Delete("/:id", clientController.DeleteClient)
	client.Post("/:id/visit", clientController.RecordVisit)
	client.Get("/:clientId/enrollments", loyaltyController.GetEnrollments)
	client.Get("/:clientId/best-discount", loyaltyController.BestDiscount)

	// Appointment routes, with rate limiting on the confirm endpoint since
	// it sends email
	appointment := api.Group("/appointments", middleware.RequirePermission("appointments"))
	appointment.Post("/", appointmentController.CreateAppointment)
	appointment.Get("/", appointmentController.GetAppointments)
	appointment.Get("/:id", appointmentController.GetAppointment)
	appointment.Put("/:id", appointmentController.UpdateAppointment)
	appointment.Post("/:id/confirm", middleware.NotificationRateLimiter(), appointmentController.ConfirmAppointment)
	appointment.Post("/:id/complete", appointmentController.CompleteAppointment)
	appointment.Post("/:id/cancel", appointmentController.CancelAppointment)

	// WebSocket route for the front-desk schedule board
	app.Get("/api/v1/appointments/board", websocket.New(func(c *websocket.Conn) {
		controller.HandleScheduleBoardWS(c)
	}))

	// Loyalty routes
	loyalty := api.Group("/loyalty", middleware.RequirePermission("clients"))
	loyalty.Post("/plans", loyaltyController.CreatePlan)
	loyalty.Get("/plans", loyaltyController.GetPlans)
	loyalty.Put("/plans/:id", loyaltyController.UpdatePlan)
	loyalty.Delete("/plans/:id", loyaltyController.DeletePlan)
	loyalty.Post("/enrollments", loyaltyController.EnrollClient)
	loyalty.Delete("/enrollments/:id", loyaltyController.UnenrollClient)
	loyalty.Get("/enrollments/:id/eligibility", loyaltyController.GetEligibility)
	loyalty.Post("/enrollments/:id/redeem", loyaltyController.RedeemReward)
	loyalty.Post("/points", loyaltyController.AddPoints)
	loyalty.Get("/redemptions", loyaltyController.GetRedemptions)

	// Inventory routes
	product := api.Group("/products", middleware.RequirePermission("inventory"))
	product.Post("/", inventoryController.CreateProduct)
	product.Get("/", inventoryController.GetProducts)
	product.Get("/low-stock", inventoryController.GetLowStock)
	product.Get("/:id", inventoryController.GetProduct)
	product.Put("/:id", inventoryController.UpdateProduct)
	product.Delete("/:id", inventoryController.DeleteProduct)
	product.Post("/:id/adjust", inventoryController.AdjustStock)

	// Supplier routes
	supplier := api.Group("/suppliers", middleware.RequirePermission("inventory"))
	supplier.Post("/", supplierController.CreateSupplier)
	supplier.Get("/", supplierController.GetSuppliers)
	supplier.Get("/:id", supplierController.GetSupplier)
	supplier.Put("/:id", supplierController.UpdateSupplier)
	supplier.Delete("/:id", supplierController.DeleteSupplier)
	supplier.Post("/:id/receive", supplierController.ReceiveStock)

	// Sales routes
	sale := api.Group("/sales", middleware.RequirePermission("pos"))
	sale.Post("/", saleController.CreateSale)
	sale.Get("/", saleController.GetSales)
	sale.Get("/daily-summary", saleController.GetDailySummary)
	sale.Get("/:id", saleController.GetSale)
	sale.Delete("/:id", saleController.VoidSale)

	// Aftercare template routes
	aftercare := api.Group("/aftercare", middleware.RequirePermission("settings"))
	aftercare.Post("/templates", aftercareController.CreateTemplate)
	aftercare.Get("/templates", aftercareController.GetTemplates)
	aftercare.Put("/templates/:id", aftercareController.UpdateTemplate)
	aftercare.Delete("/templates/:id", aftercareController.DeleteTemplate)

	// Log initialization
	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize Stripe
	controller.InitStripe()

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup auth routes
	SetupAuthRoutes(app, db)

	// Setup API routes
	SetupAPIRoutes(app, db)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
