package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-clinic/clinic-api/api/swagger"
	"github.com/campus-clinic/clinic-api/internal/handler"
	"github.com/campus-clinic/clinic-api/internal/middleware"
	"github.com/campus-clinic/clinic-api/internal/models"
	"github.com/campus-clinic/clinic-api/internal/repository"
	"github.com/campus-clinic/clinic-api/internal/service"
	"github.com/campus-clinic/clinic-api/pkg/cache"
	"github.com/campus-clinic/clinic-api/pkg/config"
	"github.com/campus-clinic/clinic-api/pkg/database"
	"github.com/campus-clinic/clinic-api/pkg/export"
	"github.com/campus-clinic/clinic-api/pkg/logger"
	corsmiddleware "github.com/campus-clinic/clinic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-clinic/clinic-api/pkg/middleware/requestid"
)

// @title Campus Clinic API
// @version 1.0.0
// @description Campus health clinic administration service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret:     cfg.JWT.Secret,
		TokenExpiry:     cfg.JWT.Expiration,
		Issuer:          cfg.JWT.Issuer,
		DefaultPassword: cfg.Clinic.DefaultPassword,
	})
	appointmentService := service.NewAppointmentService(appointmentRepo, cacheService, metricsService, validate, logr, cfg.Clinic.Timezone)
	recordService := service.NewRecordService(visitRepo, userRepo, validate, logr, cfg.Clinic.Timezone)
	profileService := service.NewProfileService(profileRepo, userRepo, validate, logr, cfg.Clinic.EmailDomain)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, validate, logr, service.EnrollmentConfig{
		DefaultPassword: cfg.Clinic.DefaultPassword,
		EmailDomain:     cfg.Clinic.EmailDomain,
		ImportMaxRows:   cfg.Clinic.ImportMaxRows,
	})
	dashboardService := service.NewDashboardService(appointmentService, recordService, logr)
	exportService := service.NewExportService(userRepo, visitRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.SeedStaff(seedCtx, cfg.Clinic.SeedAdminEmail, cfg.Clinic.SeedAdminPass, cfg.Clinic.SeedAdminName, cfg.Clinic.SeedAdminSurname); err != nil {
		logr.Sugar().Warnw("failed to seed staff account", "error", err)
	}
	cancel()

	authHandler := handler.NewAuthHandler(authService)
	appointmentHandler := handler.NewAppointmentHandler(appointmentService)
	profileHandler := handler.NewProfileHandler(profileService)
	recordHandler := handler.NewRecordHandler(recordService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	studentHandler := handler.NewStudentHandler(profileService, exportService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
	auth.GET("/me", middleware.JWT(authService), authHandler.Me)

	// Student routes climb the onboarding ladder: the profile step opens
	// once the password is changed, everything else once the profile is in.
	student := api.Group("/student", middleware.JWT(authService), middleware.RequireRoles(models.RoleStudent))
	{
		profile := student.Group("/profile", middleware.RequireStage(userRepo, models.StageProfilePending, logr))
		profile.GET("", profileHandler.Get)
		profile.PUT("", profileHandler.Complete)

		active := student.Group("", middleware.RequireStage(userRepo, models.StageActive, logr))
		active.GET("/dashboard", dashboardHandler.Student)
		active.GET("/appointments", appointmentHandler.Upcoming)
		active.POST("/appointments", appointmentHandler.Book)
		active.DELETE("/appointments/:id", appointmentHandler.Cancel)
		active.GET("/visits", recordHandler.OwnHistory)
		active.GET("/prescriptions", recordHandler.OwnPrescriptions)
	}

	staff := api.Group("/staff", middleware.JWT(authService), middleware.RequireRoles(models.RoleStaff))
	{
		staff.GET("/dashboard", dashboardHandler.Staff)
		staff.GET("/appointments", appointmentHandler.ListAll)
		staff.PUT("/appointments/:id/status", appointmentHandler.SetStatus)
		staff.GET("/students", studentHandler.List)
		staff.POST("/students", enrollmentHandler.AddStudent)
		staff.POST("/students/import", enrollmentHandler.Import)
		staff.GET("/students/export", studentHandler.ExportCSV)
		staff.GET("/students/:id", studentHandler.Detail)
		staff.GET("/students/:id/visits", recordHandler.StudentHistory)
		staff.POST("/students/:id/visits", recordHandler.RecordVisit)
		staff.GET("/students/:id/visits/export", studentHandler.ExportHistoryPDF)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
