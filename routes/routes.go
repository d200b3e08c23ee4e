package routes

import (
	"net/http"
	"strings"
	"time"

	"jobboard/handlers"
	"jobboard/middleware"
	"jobboard/models"
	"jobboard/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	CORSOrigins []string
	Sessions    *session.Manager
	RateLimiter *middleware.IPRateLimiter
	// WebSocket serves /ws when set.
	WebSocket http.Handler
}

func SetupRouter(h *handlers.Handler, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.CORSOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})
	if opts.WebSocket != nil {
		router.GET("/ws", gin.WrapH(opts.WebSocket))
	}

	api := router.Group("/api")
	if opts.RateLimiter != nil {
		api.Use(middleware.RateLimit(opts.RateLimiter))
	}

	// public
	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
	api.GET("/google/auth-url", h.GetGoogleAuthURL)
	api.GET("/google/callback", h.GoogleOAuthCallback)
	api.POST("/google-auth", h.GoogleAuthWithCredential)
	api.GET("/vapid-public-key", h.GetVapidPublicKey)
	api.GET("/jobs", h.ListJobs)
	api.GET("/jobs/:jobId", h.GetJob)
	api.GET("/companies/:companyId", h.GetCompany)

	protected := api.Group("")
	protected.Use(middleware.Auth(opts.Sessions))

	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.GetMyProfile)
	protected.PUT("/me", h.UpdateMyProfile)
	protected.POST("/subscribe", h.SubscribePush)

	employer := protected.Group("")
	employer.Use(middleware.RequireRole(models.RoleEmployer, models.RoleAdmin))
	employer.POST("/jobs", middleware.RequireRole(models.RoleEmployer), h.CreateJob)
	employer.PUT("/jobs/:jobId", h.EditJob)
	employer.GET("/employer/jobs", middleware.RequireRole(models.RoleEmployer), h.ListEmployerJobs)
	employer.GET("/jobs/:jobId/applications", h.JobApplications)

	student := protected.Group("")
	student.Use(middleware.RequireRole(models.RoleStudent))
	student.POST("/applications", h.SubmitApplication)
	student.GET("/my/applications", h.MyApplications)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.GET("/users", h.AdminListUsers)
	admin.GET("/jobs", h.AdminListJobs)
	admin.POST("/jobs/:jobId/approve", h.ApproveJob)
	admin.POST("/jobs/:jobId/unapprove", h.UnapproveJob)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Status(http.StatusNotFound)
	})

	return router
}
