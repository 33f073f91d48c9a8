package router

import (
	"net/http"

	"github.com/TinyActive/Feature-Voting-Tool/internal/config"
	"github.com/TinyActive/Feature-Voting-Tool/internal/email"
	"github.com/TinyActive/Feature-Voting-Tool/internal/handler"
	"github.com/TinyActive/Feature-Voting-Tool/internal/middleware"
	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/notify"
	"github.com/TinyActive/Feature-Voting-Tool/internal/ratelimit"
	"github.com/TinyActive/Feature-Voting-Tool/internal/recaptcha"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps bundles the shared services handlers need.
type Deps struct {
	DB       *gorm.DB
	Limiter  *ratelimit.Limiter
	Notifier notify.Notifier
	Mailer   email.Mailer
	Captcha  recaptcha.Verifier
}

// SetupRouter configures the Gin engine and mounts all routes.
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret

	// public routes, identified by fingerprint only
	featureHandler := handler.NewFeatureHandler(deps.DB, deps.Limiter, deps.Notifier)
	api.GET("/features", featureHandler.List)
	api.POST("/features/:id/vote", featureHandler.Vote)

	commentHandler := handler.NewCommentHandler(deps.DB)
	api.GET("/features/:id/comments", commentHandler.List)

	authHandler := handler.NewAuthHandler(deps.DB, deps.Mailer, deps.Captcha,
		jwtSecret, cfg.JWT.Issuer, cfg.JWT.SessionTTLHours, cfg.Auth.LoginTokenTTLMinutes, cfg.App.URL)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/verify", authHandler.Verify)
	api.POST("/auth/logout", authHandler.Logout)

	// routes requiring a valid session
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtSecret, deps.DB))

	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/me", handler.UpdateProfile(deps.DB))

	protected.POST("/features/:id/comments", commentHandler.Create)
	protected.PUT("/comments/:id", commentHandler.Update)
	protected.DELETE("/comments/:id", commentHandler.Delete)

	suggestionHandler := handler.NewSuggestionHandler(deps.DB, deps.Mailer, deps.Captcha, deps.Notifier)
	protected.POST("/suggestions", suggestionHandler.Create)
	protected.GET("/suggestions", suggestionHandler.ListMine)

	// moderator and above
	mod := protected.Group("/admin")
	mod.Use(middleware.RequireRole(models.RoleModerator))

	moderationHandler := handler.NewModerationHandler(deps.DB, cfg.App.PageSize)
	mod.GET("/comments", moderationHandler.List)
	mod.GET("/comments/stats", moderationHandler.Stats)
	mod.PUT("/comments/:id/status", moderationHandler.UpdateStatus)
	mod.POST("/comments/:id/hide", moderationHandler.Hide)
	mod.POST("/comments/:id/show", moderationHandler.Show)
	mod.DELETE("/comments/:id", moderationHandler.Delete)

	// admin only
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	adminHandler := handler.NewAdminHandler(deps.DB, deps.Captcha, deps.Notifier)
	admin.POST("/features", adminHandler.CreateFeature)
	admin.PUT("/features/:id", adminHandler.UpdateFeature)
	admin.DELETE("/features/:id", adminHandler.DeleteFeature)
	admin.GET("/stats", adminHandler.Stats)

	userHandler := handler.NewUserHandler(deps.DB, cfg.App.PageSize)
	admin.GET("/users", userHandler.List)
	admin.POST("/users/:id/role", userHandler.SetRole)
	admin.POST("/users/:id/ban", userHandler.Ban)
	admin.POST("/users/:id/unban", userHandler.Unban)
	admin.GET("/admin-emails", userHandler.ListAdminEmails)
	admin.POST("/admin-emails", userHandler.AddAdminEmail)
	admin.DELETE("/admin-emails/:email", userHandler.RemoveAdminEmail)

	admin.GET("/suggestions", suggestionHandler.ListAll)
	admin.POST("/suggestions/:id/approve", suggestionHandler.Approve)
	admin.POST("/suggestions/:id/reject", suggestionHandler.Reject)

	exportHandler := handler.NewExportHandler(deps.DB)
	admin.GET("/export/csv", exportHandler.ExportCSV)
	admin.GET("/export/xlsx", exportHandler.ExportXLSX)

	auditHandler := handler.NewAuditHandler(deps.DB)
	admin.GET("/audit", auditHandler.List)

	return r
}
