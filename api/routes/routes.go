package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/internal/config"
	"github.com/ArowuTest/daily-lottery-backend/internal/handlers"
	"github.com/ArowuTest/daily-lottery-backend/internal/metrics"
	"github.com/ArowuTest/daily-lottery-backend/internal/middleware"
	"github.com/ArowuTest/daily-lottery-backend/internal/services"
	"github.com/ArowuTest/daily-lottery-backend/pkg/jwt"
)

// Dependencies are the services the router exposes
type Dependencies struct {
	AuthService   services.AuthService
	UserService   *services.UserService
	BallotService services.BallotService
	Tokens        *jwt.TokenService
	RateLimiter   *middleware.RateLimiter // nil disables rate limiting
	Logger        logrus.FieldLogger
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(metrics.Middleware())

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Logger)
	userHandler := handlers.NewUserHandler(deps.UserService, deps.Logger)
	ballotHandler := handlers.NewBallotHandler(deps.BallotService, deps.Logger)

	// Public routes
	public := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		public.Use(deps.RateLimiter.Handler())
	}
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
		public.GET("/metrics", gin.WrapH(metrics.Handler()))

		public.POST("/user/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Tokens, deps.Logger))
	if deps.RateLimiter != nil {
		protected.Use(deps.RateLimiter.Handler())
	}
	{
		protected.GET("/user/me", userHandler.GetMe)

		ballots := protected.Group("/ballot")
		{
			ballots.POST("/submit", ballotHandler.Submit)
			ballots.GET("/list", ballotHandler.List)
			ballots.GET("/winner", ballotHandler.Winner)
			ballots.GET("/state", ballotHandler.State)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminOnly(cfg.Admin.Usernames))
		{
			admin.POST("/draw", ballotHandler.Draw)
		}
	}

	return router
}
