package app

import (
	"learnhub_backend/docs"
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/certificates/verify/:number", c.certificate.Verify)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(s.identity))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(s.identity), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/certificates", c.certificate.Issue)
		admin.GET("/certificates", c.certificate.List)
		admin.GET("/certificates/:id", c.certificate.Get)
		admin.DELETE("/certificates/:id", c.certificate.Revoke)
	}
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	evaluations := group.Group("/evaluations/:id/attempts")
	{
		evaluations.POST("", c.evaluation.StartAttempt)
		evaluations.GET("", c.evaluation.ListAttempts)
		evaluations.GET("/:attemptId/questions", c.evaluation.GetQuestions)
		evaluations.POST("/:attemptId/submit", c.evaluation.SubmitAttempt)
		evaluations.GET("/:attemptId/result", c.evaluation.GetResult)
	}

	group.POST("/progress", c.progress.RecordProgress)
	group.POST("/modules/:id/complete", c.progress.CompleteModule)
	group.GET("/courses/:id/completion", c.progress.GetCompletion)
	group.POST("/courses/:id/complete", c.progress.CompleteCourse)

	group.GET("/certificates", c.certificate.ListMine)
}
