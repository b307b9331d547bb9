package routes

import (
	"dentalclinic-backend/config"
	"dentalclinic-backend/controllers"
	"dentalclinic-backend/services"
	"dentalclinic-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, logger *zap.Logger) (*gin.Engine, error) {
	if err := controllers.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(config.Recovery(logger))
	r.Use(config.RequestLogger(logger, cfg.HTTP.SlowRequest))

	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	patientService := services.NewPatientService(db, logger)
	visitService := services.NewVisitService(db, logger)
	visitTypeService := services.NewVisitTypeService(db, logger)
	paymentService := services.NewPaymentService(db, logger)

	authController := controllers.NewAuthController(db, cfg.JWT, cfg.Cookie, logger)
	profileController := controllers.NewProfileController(db)
	patientController := controllers.NewPatientController(patientService, paymentService)
	visitTypeController := controllers.NewVisitTypeController(visitTypeService)
	visitController := controllers.NewVisitController(visitService, paymentService)
	paymentController := controllers.NewPaymentController(paymentService)
	summaryController := controllers.NewSummaryController(services.NewSummaryService(db))
	reportController := controllers.NewReportController(services.NewReportService(db))

	requireSession := utils.AuthMiddleware(cfg.JWT.Secret)

	r.GET("/health", controllers.HealthCheck(db))

	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)

		auth.GET("/me", requireSession, authController.Me)

		profile := auth.Group("/profile", requireSession)
		{
			profile.GET("", profileController.GetProfile)
			profile.PUT("", profileController.UpdateProfile)
		}
	}

	api := r.Group("/api")
	api.Use(requireSession)
	{
		patients := api.Group("/patients")
		{
			patients.POST("", patientController.CreatePatient)
			patients.GET("", patientController.GetPatients)
			patients.GET("/search", patientController.SearchPatients)
			patients.GET("/overview", patientController.GetPatientOverview)
			patients.GET("/:id", patientController.GetPatient)
			patients.PUT("/:id", patientController.UpdatePatient)
			patients.DELETE("/:id", patientController.DeletePatient)
			patients.GET("/:id/visits", patientController.GetPatientVisits)
			patients.GET("/:id/payments", patientController.GetPatientPayments)
		}

		visitTypes := api.Group("/visit-types")
		{
			visitTypes.POST("", visitTypeController.CreateVisitType)
			visitTypes.GET("", visitTypeController.GetVisitTypes)
			visitTypes.GET("/:id", visitTypeController.GetVisitType)
			visitTypes.PUT("/:id", visitTypeController.UpdateVisitType)
			visitTypes.DELETE("/:id", visitTypeController.DeleteVisitType)
		}

		visits := api.Group("/visits")
		{
			visits.POST("", visitController.CreateVisit)
			visits.GET("", visitController.GetVisits)
			visits.GET("/:id", visitController.GetVisit)
			visits.PUT("/:id", visitController.UpdateVisit)
			visits.DELETE("/:id", visitController.DeleteVisit)
			visits.POST("/:id/restore", visitController.RestoreVisit)
			visits.GET("/:id/payments", visitController.GetVisitPayments)
			visits.GET("/:id/balance", visitController.GetVisitBalance)
		}

		payments := api.Group("/payments")
		{
			payments.POST("", paymentController.CreatePayment)
			payments.GET("", paymentController.GetPayments)
			payments.GET("/:id", paymentController.GetPayment)
		}

		api.GET("/daily-summary", summaryController.GetDailySummary)
		api.GET("/reports", reportController.GetReportAnalytics)
	}

	return r, nil
}
