// Package api contains the API routes for the Staff Portal API
package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/api/handlers"
	"github.com/nsvirk/staffportalapi/internal/api/middleware"
	"github.com/nsvirk/staffportalapi/internal/config"
	"github.com/nsvirk/staffportalapi/internal/repository"
	"github.com/nsvirk/staffportalapi/internal/service"
	"github.com/nsvirk/staffportalapi/pkg/utils/logger"
	"github.com/nsvirk/staffportalapi/pkg/utils/state"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// StreamPath serves the live punch feed and is exempt from the request timeout
const StreamPath = "/api/attendance/stream"

// Services are the service instances behind the routes. Config, Cron and
// Stream are optional, their routes are skipped when nil.
type Services struct {
	Sessions   *service.SessionService
	Users      *service.UserService
	Attendance *service.AttendanceService
	Export     *service.ExportService
	Config     *service.ConfigService
	Cron       *service.CronService
	Stream     *service.StreamService
}

// SetupRoutes builds the services on top of Postgres and Redis and
// registers the routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Services, error) {
	ttl, err := cfg.SessionTTLDuration()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	audit, err := logger.New(db)
	if err != nil {
		return nil, err
	}
	configStore, err := state.NewState(db)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate config store: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	sessionCache := repository.NewSessionCache(redisClient)

	sessionService := service.NewSessionService(userRepo, sessionRepo, sessionCache, ttl)
	attendanceService := service.NewAttendanceService(userRepo, attendanceRepo, audit, loc)

	services := &Services{
		Sessions:   sessionService,
		Users:      service.NewUserService(userRepo, audit),
		Attendance: attendanceService,
		Export:     service.NewExportService(attendanceService, userRepo),
		Config:     service.NewConfigService(configStore, audit),
		Cron:       service.NewCronService(sessionService, configStore, audit, cfg.SessionPurgeSchedule),
		Stream:     service.NewStreamService(redisClient),
	}

	RegisterRoutes(e, services, cfg.APIName, cfg.APIVersion)
	return services, nil
}

// RegisterRoutes wires the handlers, the error handler and the request
// validator onto e
func RegisterRoutes(e *echo.Echo, s *Services, appName, appVersion string) {
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.Validator = middleware.NewRequestValidator()

	// Route-level middleware keeps unknown /api paths a plain 404
	requireSession := middleware.RequireSession(s.Sessions)
	auth := []echo.MiddlewareFunc{requireSession}
	admin := []echo.MiddlewareFunc{requireSession, middleware.RequireAdmin}

	// Create a group for all API routes
	api := e.Group("/api")

	// Public routes
	healthHandler := handlers.NewHealthHandler(appName, appVersion)
	sessionHandler := handlers.NewSessionHandler(s.Sessions)
	userHandler := handlers.NewUserHandler(s.Users)
	api.GET("/health", healthHandler.Health)
	api.POST("/login", sessionHandler.Login)
	api.POST("/logout", sessionHandler.Logout)
	api.POST("/register", userHandler.Register)

	// Session routes (protected)
	api.GET("/me", sessionHandler.Me, auth...)

	// User routes (protected, admin for other users)
	api.GET("/employees", userHandler.Employees, admin...)
	api.GET("/users", userHandler.ListUsers, admin...)
	api.POST("/users", userHandler.CreateUser, admin...)
	api.GET("/users/me", userHandler.GetUser, auth...)
	api.PUT("/users/me", userHandler.UpdateUser, auth...)
	api.GET("/users/:id", userHandler.GetUser, auth...)
	api.PUT("/users/:id", userHandler.UpdateUser, auth...)

	// Attendance routes (protected)
	attendanceHandler := handlers.NewAttendanceHandler(s.Attendance, s.Export)
	api.GET("/working-staff", attendanceHandler.WorkingStaff, auth...)
	api.POST("/attendance/check-in", attendanceHandler.CheckIn, auth...)
	api.POST("/attendance/check-out", attendanceHandler.CheckOut, auth...)
	api.GET("/attendance/today", attendanceHandler.Today, auth...)
	api.GET("/attendance/month", attendanceHandler.Month, auth...)
	api.GET("/attendance/month/export", attendanceHandler.ExportMonth, auth...)
	api.PUT("/attendance/period", attendanceHandler.RenamePeriod, auth...)
	api.POST("/manual-punch", attendanceHandler.ManualPunch, admin...)

	// Stream routes (protected, admin)
	if s.Stream != nil {
		streamHandler := handlers.NewStreamHandler(s.Stream)
		e.GET(StreamPath, streamHandler.StreamPunches, admin...)
	}

	// Config routes (protected, admin for writes)
	if s.Config != nil {
		configHandler := handlers.NewConfigHandler(s.Config)
		api.GET("/config", configHandler.List, admin...)
		api.GET("/config/:key", configHandler.Get, auth...)
		api.PUT("/config/:key", configHandler.Put, admin...)
		api.DELETE("/config/:key", configHandler.Delete, admin...)
	}

	// Job routes (protected, admin)
	if s.Cron != nil {
		cronHandler := handlers.NewCronHandler(s.Cron)
		api.POST("/admin/jobs/purge-sessions", cronHandler.PurgeSessions, admin...)
	}
}
