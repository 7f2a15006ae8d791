package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/twilio/twilio-go"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/app"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/authz"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/controllers"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/metrics"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils/avito"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-seeding"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
	tokenCleanupSpec  = "5 3 * * *"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	metrics.Register()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	userRepo := repositories.NewUserRepository(application.DB)
	roomRepo := repositories.NewRoomRepository(application.DB)
	bookingRepo := repositories.NewBookingRepository(application.DB)
	commentRepo := repositories.NewCommentRepository(application.DB)
	credRepo := repositories.NewAvitoCredentialRepository(application.DB)
	tokenRepo := repositories.NewTokenRepository(application.DB)
	auditRepo := repositories.NewAuditLogRepository(application.DB)

	if cfg.Flag_SeedDbWithTestData {
		seedRepos := seeding.Repos{Users: userRepo, Rooms: roomRepo, Bookings: bookingRepo}
		if err := seeding.SeedAll(ctx, seedRepos, time.Now().In(constants.AvitoLocation())); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed database")
		}
	}

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	avitoClient, err := avito.NewClient(cfg.AvitoAPIBaseURL)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid AVITO_API_BASE_URL")
	}
	if !cfg.AvitoEnabled() {
		utils.Logger.Warn("Avito client credentials not set; Avito endpoints will answer 503")
	}

	var twilioClient *twilio.RestClient
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		twilioClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}

	var (
		presenceStore  services.PresenceStore
		rateLimitStore services.RateLimitStore
	)
	if application.Redis != nil {
		presenceStore = services.NewRedisPresenceStore(application.Redis)
		rateLimitStore = services.NewRedisRateLimitStore(application.Redis)
	} else {
		presenceStore = services.NewMemoryPresenceStore()
		rateLimitStore = services.NewMemoryRateLimitStore()
	}

	jwtService := services.NewJWTService(cfg, tokenRepo, userRepo)
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(cfg, userRepo, tokenRepo, jwtService, emailService)
	userService := services.NewUserService(userRepo, auditRepo)
	roomService := services.NewRoomService(roomRepo)
	avitoTokenService := services.NewAvitoTokenService(cfg, avitoClient, credRepo, jwtService)
	avitoSyncService := services.NewAvitoSyncService(cfg, avitoClient, avitoTokenService, roomRepo, bookingRepo, credRepo)
	bookingService := services.NewBookingService(cfg, bookingRepo, roomRepo, twilioClient, avitoSyncService)
	commentService := services.NewCommentService(commentRepo, roomRepo)
	timelineService := services.NewTimelineService(cfg, roomRepo, bookingRepo)
	exportService := services.NewExportService(roomRepo, bookingRepo)
	presenceService := services.NewPresenceService(presenceStore)
	rateLimiter := services.NewRateLimiterService(rateLimitStore, cfg)

	//----------------------------------------------------------------------
	// Controllers & router
	//----------------------------------------------------------------------
	var redisPinger controllers.Pinger
	if application.Redis != nil {
		redisPinger = controllers.RedisPinger{Client: application.Redis}
	}

	router := app.NewRouter(cfg, app.Controllers{
		Health:   controllers.NewHealthController(application.DB, redisPinger),
		Auth:     controllers.NewAuthController(authService, rateLimiter, cfg),
		Users:    controllers.NewUserController(userService),
		Rooms:    controllers.NewRoomController(roomService, bookingService),
		Bookings: controllers.NewBookingController(bookingService, exportService),
		Comments: controllers.NewCommentController(commentService),
		Avito:    controllers.NewAvitoController(avitoTokenService, avitoSyncService, cfg),
		Timeline: controllers.NewTimelineController(timelineService),
		Presence: controllers.NewPresenceController(presenceService, cfg),
	}, authz.NewMiddleware(authz.DefaultPolicy(), userRepo))

	//----------------------------------------------------------------------
	// Background jobs
	//----------------------------------------------------------------------
	go func() {
		if err := presenceService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			utils.Logger.WithError(err).Error("Presence relay stopped")
		}
	}()

	c := cron.New(cron.WithLocation(constants.AvitoLocation()))
	if _, err := c.AddFunc(tokenCleanupSpec, func() {
		if e := authService.CleanupExpiredTokens(ctx); e != nil {
			utils.Logger.WithError(e).Error("Scheduled token cleanup failed")
		}
		if e := rateLimitStore.CleanupExpired(ctx); e != nil {
			utils.Logger.WithError(e).Error("Scheduled rate limit cleanup failed")
		}
	}); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule token cleanup job")
	}
	if cfg.AvitoSyncCron != "" && cfg.AvitoEnabled() {
		if _, err := c.AddFunc(cfg.AvitoSyncCron, func() {
			if e := avitoSyncService.SyncAll(ctx); e != nil {
				utils.Logger.WithError(e).Error("Scheduled Avito sync failed")
			}
		}); err != nil {
			utils.Logger.WithError(err).Fatal("Invalid AVITO_SYNC_CRON")
		}
		utils.Logger.Infof("Avito sync scheduled: %s", cfg.AvitoSyncCron)
	}
	c.Start()

	//----------------------------------------------------------------------
	// HTTP server
	//----------------------------------------------------------------------
	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.Flag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}
	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	err = app.Serve(ctx, srv, shutdownTimeout)
	<-c.Stop().Done()
	if err != nil {
		// os.Exit skips deferred calls.
		application.Close()
		os.Exit(1)
	}
}
