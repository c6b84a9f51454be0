package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bildungsinstitut/kursverwaltung/api/swagger"
	"github.com/bildungsinstitut/kursverwaltung/internal/handler"
	"github.com/bildungsinstitut/kursverwaltung/internal/middleware"
	"github.com/bildungsinstitut/kursverwaltung/internal/repository"
	"github.com/bildungsinstitut/kursverwaltung/internal/service"
	"github.com/bildungsinstitut/kursverwaltung/pkg/cache"
	"github.com/bildungsinstitut/kursverwaltung/pkg/config"
	"github.com/bildungsinstitut/kursverwaltung/pkg/database"
	"github.com/bildungsinstitut/kursverwaltung/pkg/logger"
	corsmiddleware "github.com/bildungsinstitut/kursverwaltung/pkg/middleware/cors"
	reqidmiddleware "github.com/bildungsinstitut/kursverwaltung/pkg/middleware/requestid"
)

// @title Kursverwaltung API
// @version 1.0.0
// @description Course administration for a language training institute
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Courses.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Courses.CacheTTL, logr, true)
		}
	}

	departmentRepo := repository.NewDepartmentRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	courseTypeRepo := repository.NewCourseTypeRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	userRepo := repository.NewUserRepository(db)

	directoryService := service.NewDirectoryService(departmentRepo, roomRepo, courseTypeRepo, validate, logr)
	trainerService := service.NewTrainerService(trainerRepo, departmentRepo, validate, logr)
	studentService := service.NewStudentService(studentRepo, validate, logr)
	courseService := service.NewCourseService(courseRepo, courseTypeRepo, roomRepo, trainerRepo, cacheService, validate, logr, cfg.Courses.DefaultMaxCap, cfg.Courses.CacheTTL)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, courseService, metrics, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, enrollmentRepo, studentRepo, courseRepo, validate, logr, cfg.Exports.MaxRows)
	scheduleService := service.NewScheduleService(scheduleRepo, courseRepo, validate, logr)
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:            cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		RefreshExpiry:     cfg.JWT.RefreshExpiration,
		Issuer:            cfg.JWT.Issuer,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Directory:  handler.NewDirectoryHandler(directoryService),
		Trainers:   handler.NewTrainerHandler(trainerService),
		Students:   handler.NewStudentHandler(studentService, enrollmentService),
		Courses:    handler.NewCourseHandler(courseService, enrollmentService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
		Schedule:   handler.NewScheduleHandler(scheduleService),
	}, authService)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
