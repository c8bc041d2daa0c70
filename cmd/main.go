package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/vivavoce/config"
	"github.com/lshigami/vivavoce/database"
	_ "github.com/lshigami/vivavoce/docs" // Swagger docs
	"github.com/lshigami/vivavoce/internal/controller"
	sessionctrl "github.com/lshigami/vivavoce/internal/controller/session"
	"github.com/lshigami/vivavoce/internal/logger"
	"github.com/lshigami/vivavoce/internal/objectstore"
	"github.com/lshigami/vivavoce/internal/repository"
	"github.com/lshigami/vivavoce/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Viva Voce Exam API
// @version 1.0
// @description Spoken oral exams over uploaded study material: questions are read aloud, answers are recorded, transcribed and scored, and a results report closes the session.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			objectstore.NewStore,
			NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewSessionRepository,
			repository.NewQuestionRepository,
			repository.NewResponseRepository,
			repository.NewMaterialRepository,
		),

		// Services
		fx.Provide(
			service.NewScoreBandService,
			service.NewGeminiLLMService,
			service.NewQuestionBankService,
			service.NewPlayback,
			service.NewTranscriber,
			service.NewEvaluator,
			service.NewMachineRuntime,
			service.NewInterviewService,
			service.NewMaterialService,
			service.NewReportService,
		),

		// Controllers
		fx.Provide(
			controller.NewHealthController,
			sessionctrl.NewUploadController,
			sessionctrl.NewInterviewController,
			sessionctrl.NewReportController,
		),

		fx.Invoke(ConfigureLogger),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(StartSessionReaper),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop application cleanly")
	}
}

func ConfigureLogger(cfg *config.Config) {
	logger.Configure(cfg.Log.Level, cfg.Log.Pretty)
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Log.Pretty {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxFileBytes

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
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func AutoMigrateDB(db *gorm.DB) error {
	return database.AutoMigrate(db)
}

// StartSessionReaper closes idle interview sessions in the background and
// all live ones on shutdown.
func StartSessionReaper(lc fx.Lifecycle, cfg *config.Config, interviews service.InterviewService) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go interviews.RunReaper(ctx, cfg.Interview.SessionIdleTTL/2)
			log.Info().Dur("idleTTL", cfg.Interview.SessionIdleTTL).Msg("Session reaper started")
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			interviews.Shutdown()
			return nil
		},
	})
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	health *controller.HealthController,
	uploadCtrl *sessionctrl.UploadController,
	interviewCtrl *sessionctrl.InterviewController,
	reportCtrl *sessionctrl.ReportController,
) {
	api := router.Group("/api/v1")
	api.GET("/health", health.Health)
	sessionctrl.RegisterRoutes(api, uploadCtrl, interviewCtrl, reportCtrl)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Viva voce API server starting on port %s", cfg.Server.Port)
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
			return server.Shutdown(shutdownCtx)
		},
	})
}
