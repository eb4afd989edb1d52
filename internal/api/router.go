package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tutorkhata/khata_server/config"
	"github.com/tutorkhata/khata_server/internal/api/handler"
	"github.com/tutorkhata/khata_server/internal/api/middleware"
	"github.com/tutorkhata/khata_server/internal/pkg/validate"
)

type Router struct {
	authHandler         *handler.AuthHandler
	planHandler         *handler.PlanHandler
	subscriptionHandler *handler.SubscriptionHandler
	usageHandler        *handler.UsageHandler
	teacherHandler      *handler.TeacherHandler
	websocketHandler    *handler.WebSocketHandler
	healthHandler       *handler.HealthHandler
	teachers            middleware.TeacherResolver
	evaluator           middleware.FeatureEvaluator
	cfg                 *config.Config
	log                 *zap.Logger
}

func NewRouter(
	authHandler *handler.AuthHandler,
	planHandler *handler.PlanHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	usageHandler *handler.UsageHandler,
	teacherHandler *handler.TeacherHandler,
	websocketHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	teachers middleware.TeacherResolver,
	evaluator middleware.FeatureEvaluator,
	cfg *config.Config,
	log *zap.Logger,
) *Router {
	return &Router{
		authHandler:         authHandler,
		planHandler:         planHandler,
		subscriptionHandler: subscriptionHandler,
		usageHandler:        usageHandler,
		teacherHandler:      teacherHandler,
		websocketHandler:    websocketHandler,
		healthHandler:       healthHandler,
		teachers:            teachers,
		evaluator:           evaluator,
		cfg:                 cfg,
		log:                 log,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	validate.Setup()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.log))
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api")
	{
		api.GET("/health/", r.healthHandler.Health)

		// authenticates through the query token itself
		api.GET("/ws", r.websocketHandler.Handle)

		auth := api.Group("/auth")
		{
			auth.POST("/register/", r.authHandler.Register)
			auth.POST("/login/", r.authHandler.Login)
		}

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.ResolveTeacher(r.teachers))
		{
			authenticated.GET("/plans/", r.planHandler.List)
			authenticated.GET("/plans/:id/", r.planHandler.Get)
			authenticated.GET("/features/", r.planHandler.ListFeatures)

			subs := authenticated.Group("/subscriptions")
			{
				subs.POST("/", r.subscriptionHandler.Create)
				subs.GET("/me/", r.subscriptionHandler.Me)
				subs.PATCH("/me/update/", r.subscriptionHandler.Update)
				subs.GET("/me/history/", r.subscriptionHandler.History)
				subs.POST("/cancel/", r.subscriptionHandler.Cancel)
				subs.POST("/renew/", r.subscriptionHandler.Renew)
			}

			usage := authenticated.Group("/usage")
			{
				usage.GET("/", r.usageHandler.List)
				usage.POST("/check/", r.usageHandler.Check)
				usage.GET("/:feature_code/", r.usageHandler.Detail)
				usage.POST("/:feature_code/consume/", middleware.RequireFeature(r.evaluator), r.usageHandler.Consume)
			}

			teachers := authenticated.Group("/teachers")
			{
				teachers.GET("/", r.teacherHandler.List)
				teachers.GET("/available_fee_days/", r.teacherHandler.AvailableFeeDays)
				teachers.GET("/me/", r.teacherHandler.Me)
				teachers.PATCH("/me/", r.teacherHandler.UpdateMe)
				teachers.GET("/:id/", r.teacherHandler.Get)
			}
		}
	}

	return engine
}
