package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/2005bahadursdr/student-attendance-api/api/swagger"
	"github.com/2005bahadursdr/student-attendance-api/internal/handler"
	internalmiddleware "github.com/2005bahadursdr/student-attendance-api/internal/middleware"
	"github.com/2005bahadursdr/student-attendance-api/internal/repository"
	"github.com/2005bahadursdr/student-attendance-api/internal/service"
	"github.com/2005bahadursdr/student-attendance-api/pkg/cache"
	"github.com/2005bahadursdr/student-attendance-api/pkg/config"
	"github.com/2005bahadursdr/student-attendance-api/pkg/database"
	"github.com/2005bahadursdr/student-attendance-api/pkg/logger"
	corsmiddleware "github.com/2005bahadursdr/student-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/2005bahadursdr/student-attendance-api/pkg/middleware/requestid"
)

// @title Student Attendance API
// @version 1.0.0
// @description Student, class and attendance management service
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

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Dashboard.CacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	studentSvc := service.NewStudentService(studentRepo, enrollmentRepo, cacheSvc, validate, logr)
	classSvc := service.NewClassService(classRepo, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, classRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, studentRepo, classRepo, cacheSvc, metricsSvc, validate, logr)
	reportSvc := service.NewReportService(attendanceRepo, attendanceSvc, classRepo, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, classRepo, attendanceRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	studentHandler := handler.NewStudentHandler(studentSvc)
	classHandler := handler.NewClassHandler(classSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		students := api.Group("/students")
		students.GET("", studentHandler.List)
		students.POST("", studentHandler.Create)
		students.GET("/:id", studentHandler.Get)
		students.PUT("/:id", studentHandler.Update)
		students.DELETE("/:id", studentHandler.Delete)
		students.GET("/:id/classes", enrollmentHandler.StudentClasses)

		classes := api.Group("/classes")
		classes.GET("", classHandler.List)
		classes.POST("", classHandler.Create)
		classes.GET("/:id", classHandler.Get)
		classes.PUT("/:id", classHandler.Update)
		classes.DELETE("/:id", classHandler.Delete)
		classes.GET("/:id/students", enrollmentHandler.ClassStudents)

		enrollments := api.Group("/enrollments")
		enrollments.POST("", enrollmentHandler.Enroll)
		enrollments.DELETE("", enrollmentHandler.Unenroll)

		attendance := api.Group("/attendance")
		attendance.GET("", attendanceHandler.List)
		attendance.POST("", attendanceHandler.Mark)
		attendance.POST("/bulk", attendanceHandler.MarkBulk)
		attendance.GET("/class/:classId/:date", attendanceHandler.Roster)
		if cfg.Reports.Enabled {
			attendance.GET("/reports/summary", reportHandler.Summary)
			attendance.GET("/reports/export", reportHandler.Export)
		}

		if cfg.Dashboard.Enabled {
			api.GET("/dashboard/stats", dashboardHandler.Stats)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
