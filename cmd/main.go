package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ptdat2/examcore/config"
	"github.com/ptdat2/examcore/database"
	_ "github.com/ptdat2/examcore/docs" // Swagger docs - auto-generated
	adminctrl "github.com/ptdat2/examcore/internal/controller/admin"
	studentctrl "github.com/ptdat2/examcore/internal/controller/student"
	teacherctrl "github.com/ptdat2/examcore/internal/controller/teacher"
	"github.com/ptdat2/examcore/internal/logger"
	"github.com/ptdat2/examcore/internal/model"
	"github.com/ptdat2/examcore/internal/repository"
	"github.com/ptdat2/examcore/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title School Exam Platform API
// @version 1.0
// @description Exam lifecycle, timed attempts, autosave and scoring for a multi-tenant school platform.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewUserRepository,
			repository.NewExamRepository,
			repository.NewQuestionRepository,
			repository.NewAttemptRepository,
			repository.NewAnswerRepository,
		),

		fx.Provide(
			service.NewTeacherExamService,
			service.NewAdminExamService,
			service.NewAttemptService,
			service.NewEssayFeedbackService,
			service.NewSubmissionService,
			service.NewGradingService,
		),

		fx.Provide(
			teacherctrl.NewTeacherExamController,
			adminctrl.NewAdminExamController,
			studentctrl.NewStudentExamController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
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
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer wires the API routes and owns the HTTP server
// lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	teacherCtrl *teacherctrl.TeacherExamController,
	adminCtrl *adminctrl.AdminExamController,
	studentCtrl *studentctrl.StudentExamController,
) {
	api := router.Group("/api/v1")
	{
		teacherGroup := api.Group("/teacher")
		{
			teacherGroup.POST("/exams", teacherCtrl.CreateExam)
			teacherGroup.GET("/exams", teacherCtrl.GetOwnExams)
			teacherGroup.GET("/exams/:exam_id", teacherCtrl.GetExam)
			teacherGroup.PUT("/exams/:exam_id", teacherCtrl.UpdateExam)
			teacherGroup.DELETE("/exams/:exam_id", teacherCtrl.DeleteExam)
			teacherGroup.POST("/exams/:exam_id/submit", teacherCtrl.SubmitForApproval)
			teacherGroup.GET("/exams/:exam_id/attempts", teacherCtrl.GetExamAttempts)
			teacherGroup.POST("/attempts/:attempt_id/questions/:question_id/grade", teacherCtrl.GradeAnswer)
		}

		adminGroup := api.Group("/admin")
		{
			adminGroup.POST("/exams/:exam_id/approve", adminCtrl.ApproveExam)
			adminGroup.POST("/exams/:exam_id/reject", adminCtrl.RejectExam)
			adminGroup.POST("/exams/:exam_id/cancel", adminCtrl.CancelExam)
		}

		api.GET("/exams", studentCtrl.ListExams)
		api.POST("/exams/:exam_id/start", studentCtrl.StartAttempt)
		api.POST("/exams/:exam_id/answer", studentCtrl.SaveAnswer)
		api.POST("/exams/:exam_id/submit", studentCtrl.SubmitAttempt)
		api.GET("/my-attempts/:attempt_id", studentCtrl.GetAttemptDetail)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Exam platform API server starting on port %s", cfg.Server.Port)
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

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Exam{},
		&model.Question{},
		&model.Attempt{},
		&model.Answer{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
