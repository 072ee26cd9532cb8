package devserver

import (
	"refactortrack/internal/auth"
	"refactortrack/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API under rg. Reads need viewer, writes recruiter,
// deletes manager, analytics analyst and the analytics refresh admin.
func (s *Server) RegisterRoutes(rg *gin.RouterGroup) {
	jwtAuth := middleware.JWTAuthWithConfig(s.opts.JWTSecret, s.Tokens.IsRevoked)

	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", s.Login)                                 // POST /api/v1/auth/login
		authGroup.POST("/mfa/verify", s.VerifyMFA)                        // POST /api/v1/auth/mfa/verify
		authGroup.POST("/refresh", s.Refresh)                             // POST /api/v1/auth/refresh
		authGroup.POST("/password-reset", s.RequestPasswordReset)         // POST /api/v1/auth/password-reset
		authGroup.POST("/password-reset/confirm", s.ConfirmPasswordReset) // POST /api/v1/auth/password-reset/confirm
		authGroup.POST("/logout", jwtAuth, s.Logout)                      // POST /api/v1/auth/logout
		authGroup.GET("/me", jwtAuth, s.Me)                               // GET /api/v1/auth/me
	}

	read := middleware.RequireRole(auth.RoleViewer)
	write := middleware.RequireRole(auth.RoleRecruiter)
	remove := middleware.RequireRole(auth.RoleManager)

	clientsGroup := rg.Group("/clients", jwtAuth)
	{
		clientsGroup.GET("", read, s.GetClients)
		clientsGroup.GET("/:id", read, s.GetClient)
		clientsGroup.POST("", write, s.CreateClient)
		clientsGroup.PUT("/:id", write, s.UpdateClient)
		clientsGroup.DELETE("/:id", remove, s.DeleteClient)
	}

	candidatesGroup := rg.Group("/candidates", jwtAuth)
	{
		candidatesGroup.GET("", read, s.GetCandidates)
		candidatesGroup.GET("/:id", read, s.GetCandidate)
		candidatesGroup.POST("", write, s.CreateCandidate)
		candidatesGroup.PUT("/:id", write, s.UpdateCandidate)
		candidatesGroup.DELETE("/:id", remove, s.DeleteCandidate)
	}

	requisitionsGroup := rg.Group("/requisitions", jwtAuth)
	{
		requisitionsGroup.GET("", read, s.GetRequisitions)
		requisitionsGroup.GET("/:id", read, s.GetRequisition)
		requisitionsGroup.POST("", write, s.CreateRequisition)
		requisitionsGroup.PUT("/:id", write, s.UpdateRequisition)
		requisitionsGroup.POST("/:id/close", write, s.CloseRequisition)
		requisitionsGroup.DELETE("/:id", remove, s.DeleteRequisition)
	}

	analyticsGroup := rg.Group("/analytics", jwtAuth, middleware.RequireRole(auth.RoleAnalyst))
	{
		analyticsGroup.GET("/metrics", s.GetMetrics)
		analyticsGroup.GET("/hiring-performance", s.GetHiringPerformance)
		analyticsGroup.GET("/skill-trends", s.GetSkillTrends)
		analyticsGroup.GET("/reports/performance", s.GetPerformanceReport)
		analyticsGroup.POST("/refresh", middleware.RequireAdmin(), s.RefreshAnalytics)
	}
}
