package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schoolhub/onboard/internal/config"
	"schoolhub/onboard/internal/handler/middleware"
	jwtpkg "schoolhub/onboard/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	codeHandler *CodeHandler,
	redeemHandler *RedeemHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes: redemption and read-only preview. Redeemers may not
	// have an account yet, so neither requires a bearer token.
	public := r.Group("/api/v1")
	{
		public.POST("/redeem", redeemHandler.Redeem)
		public.GET("/codes/:code", codeHandler.Preview)
	}

	// Issuer routes (JWT)
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.POST("/codes", codeHandler.Issue)
		protected.GET("/codes", codeHandler.List)
		protected.POST("/codes/:id/cancel", codeHandler.Cancel)
		protected.POST("/codes/:id/disable", codeHandler.Disable)
		protected.POST("/codes/:id/enable", codeHandler.Enable)
	}

	// Admin routes (JWT + admin check)
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth(jwtManager))
	admin.Use(middleware.AdminAuth(cfg.Admin.UserIDs))
	{
		admin.GET("/codes", adminHandler.ListCodes)
		admin.DELETE("/codes/:id", adminHandler.DeleteCode)
	}

	return r
}
