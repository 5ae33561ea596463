package routes

import (
	"geostaff-backend/internal/adapters/http/handlers"
	"geostaff-backend/internal/adapters/http/middleware"
	"geostaff-backend/internal/adapters/persistence/repositories"
	"geostaff-backend/internal/config"
	"geostaff-backend/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, otpService *services.OTPService) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	attendanceRepo := repositories.NewAttendanceRepository(db)
	leaveRepo := repositories.NewLeaveRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, otpService, cfg)
	attendanceService := services.NewAttendanceService(attendanceRepo, userRepo, cfg.Attendance)
	leaveService := services.NewLeaveService(leaveRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	leaveHandler := handlers.NewLeaveHandler(leaveService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/health/db", healthHandler.DatabaseHealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Attendance routes (authenticated users)
	attendanceRoutes := apiV1.Group("/attendance")
	attendanceRoutes.Use(middleware.AuthMiddleware(cfg))
	setupAttendanceRoutes(attendanceRoutes, attendanceHandler)

	// Leave routes (authenticated users)
	leaveRoutes := apiV1.Group("/leave")
	leaveRoutes.Use(middleware.AuthMiddleware(cfg))
	setupLeaveRoutes(leaveRoutes, leaveHandler)
}

// setupAuthRoutes configures OTP authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited to slow down OTP spam and brute force)
	router.Post("/send-otp", middleware.AuthRateLimiter(), handler.SendOTP)
	router.Post("/resend-otp", middleware.AuthRateLimiter(), handler.ResendOTP)
	router.Post("/verify-otp", middleware.AuthRateLimiter(), handler.VerifyOTP)

	// Protected routes
	router.Post("/refresh", middleware.AuthMiddleware(cfg), handler.Refresh)
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupAttendanceRoutes configures attendance routes
func setupAttendanceRoutes(router fiber.Router, handler *handlers.AttendanceHandler) {
	router.Post("/check-in", handler.CheckIn)
	router.Post("/check-out", handler.CheckOut)
	router.Get("/today", handler.Today)
	router.Get("/history", handler.History)
	router.Get("/summary", handler.MonthlySummary)
}

// setupLeaveRoutes configures leave routes
func setupLeaveRoutes(router fiber.Router, handler *handlers.LeaveHandler) {
	router.Post("/apply", handler.Apply)
	router.Get("/balance", handler.Balance)
	router.Get("/history", handler.History)
	router.Get("/pending-count", handler.PendingCount)
	router.Post("/cancel/:id", handler.Cancel)

	// Manager/Admin routes
	approvalRoutes := router.Group("")
	approvalRoutes.Use(middleware.ManagerOrAdmin())
	approvalRoutes.Post("/approve/:id", handler.Approve)
	approvalRoutes.Post("/reject/:id", handler.Reject)
}
