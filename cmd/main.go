package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rahmounirabii/bda-portal-sub005/config"
	"github.com/rahmounirabii/bda-portal-sub005/database"
	_ "github.com/rahmounirabii/bda-portal-sub005/docs" // Swagger docs - auto-generated
	adminctrl "github.com/rahmounirabii/bda-portal-sub005/internal/controller/admin"
	userctrl "github.com/rahmounirabii/bda-portal-sub005/internal/controller/user"
	"github.com/rahmounirabii/bda-portal-sub005/internal/logger"
	"github.com/rahmounirabii/bda-portal-sub005/internal/messaging"
	"github.com/rahmounirabii/bda-portal-sub005/internal/mirror"
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/rahmounirabii/bda-portal-sub005/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title BDA Assessment Attempt API
// @version 1.0
// @description API for timed certification assessments: attempt lifecycle, autosaved answers, deterministic scoring and certificate issuance.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewGinEngine,         // Provides *gin.Engine
			NewMirrorStore,
			NewEventPublisher,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewAssessmentRepository,
			repository.NewAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewCertificateRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewAssessmentService,
			service.NewScoringService,
			service.NewCertificateService,
			service.NewAttemptService,
			func(attempts repository.AttemptRepository, attemptSvc service.AttemptService, cfg *config.Config) *service.ExpirySweeper {
				return service.NewExpirySweeper(attempts, attemptSvc, cfg.Engine.ExpirySweepEvery)
			},
		),

		// API Controllers Layer
		fx.Provide(
			adminctrl.NewAdminAssessmentController,
			userctrl.NewAttemptController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(RunExpirySweeper),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// NewMirrorStore connects to Redis for answer snapshots. When Redis is not
// reachable the service still runs: it degrades to an in-process store, which
// loses the mirror on restart but keeps the durable autosave path intact.
func NewMirrorStore(cfg *config.Config) mirror.Store {
	// Snapshots must outlive the longest assessment plus the configured grace
	// window so a resumed attempt can still find them.
	ttl := 4*time.Hour + cfg.Engine.MirrorGrace

	store, err := mirror.NewRedisStore(cfg, ttl)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory mirror store")
		return mirror.NewMemoryStore()
	}
	return store
}

// NewEventPublisher connects to RabbitMQ for certificate.issued events,
// degrading to a no-op publisher when the broker is unreachable. Issuance
// events are best-effort; certificates themselves live in the database.
func NewEventPublisher(cfg *config.Config) messaging.Publisher {
	publisher, err := messaging.NewRabbitMQPublisher(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, certificate events disabled")
		return messaging.NewNopPublisher()
	}
	return publisher
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminCtrl *adminctrl.AdminAssessmentController,
	userCtrl *userctrl.AttemptController,
	attemptSvc service.AttemptService,
	publisher messaging.Publisher,
) {
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		assessmentsAdminGroup := adminAPIGroup.Group("/assessments")
		assessmentsAdminGroup.POST("", adminCtrl.CreateAssessment)
		assessmentsAdminGroup.GET("/:assessment_id", adminCtrl.GetAssessment)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/assessments", userCtrl.ListAssessments)
		userAPIGroup.GET("/assessments/:assessment_id", userCtrl.GetAssessment)
		userAPIGroup.POST("/assessments/:assessment_id/attempts", userCtrl.StartAttempt)
		userAPIGroup.GET("/assessments/:assessment_id/my-attempts", userCtrl.ListMyAttempts)

		userAPIGroup.PUT("/attempts/:attempt_id/answers/:question_id", userCtrl.RecordAnswer)
		userAPIGroup.POST("/attempts/:attempt_id/submit", userCtrl.SubmitAttempt)
		userAPIGroup.GET("/attempts/:attempt_id", userCtrl.GetAttempt)
		userAPIGroup.GET("/attempts/:attempt_id/clock", userCtrl.AttemptClock)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Assessment API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			// Stop autosave schedulers after the server no longer accepts writes.
			attemptSvc.Shutdown()
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close event publisher")
			}
			return nil
		},
	})
}

// RunExpirySweeper ties the server-side expiry sweep to the fx lifecycle.
func RunExpirySweeper(lc fx.Lifecycle, sweeper *service.ExpirySweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sweeper.Stop()
			return nil
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Assessment{},
		&model.Question{},
		&model.QuestionOption{},
		&model.AssessmentAttempt{},
		&model.AnswerRecord{},
		&model.Certificate{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
