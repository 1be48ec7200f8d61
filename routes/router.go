package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arkapradana/arenahub/config"
	"github.com/arkapradana/arenahub/controllers"
	"github.com/arkapradana/arenahub/middleware"
	"github.com/arkapradana/arenahub/utils"
)

// SetupRouter wires routes, middlewares, and controllers. The returned
// reward controller owns background state (watch sessions) the caller must
// start a janitor for.
func SetupRouter(db *gorm.DB) (*gin.Engine, *controllers.RewardController) {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Country allow/deny filter (deny has priority)
	r.Use(middleware.CountryFilter())
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.Static("/static", "./static")

	r.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	roomController := controllers.NewRoomController(db)
	registrationController := controllers.NewRegistrationController(db)
	leaderboardController := controllers.NewLeaderboardController(db)
	rewardController := controllers.NewRewardController(db)
	statsController := controllers.NewStatsController(db)
	configController := controllers.NewConfigController()

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/send-email-code", authController.SendEmailCode)
	authGroup.GET("/captcha", authController.Captcha)
	authGroup.POST("/captcha/verify", authController.CaptchaVerify)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public browsing
	api.GET("/rooms", roomController.ListRooms)
	api.GET("/rooms/:id", roomController.GetRoom)
	api.GET("/rooms/:id/leaderboard", leaderboardController.Table)
	api.GET("/rooms/:id/stats", statsController.GetRoomStats)
	api.GET("/stats", statsController.GetStats)
	api.GET("/config/notice", configController.GetNotice)
	api.GET("/config/community", configController.GetCommunity)
	api.GET("/config/reward", configController.GetRewardConfig)
	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/user/by-username/:username", authController.GetUserPublicByUsername)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.GET("/rooms/:id/credentials", roomController.GetRoomCredentials)
	protected.POST("/registrations", registrationController.Create)
	protected.GET("/registrations/mine", registrationController.ListMine)
	protected.GET("/rewards/status", rewardController.Status)
	protected.GET("/rewards/history", rewardController.History)
	protected.POST("/rewards/watch", rewardController.StartWatch)
	protected.POST("/rewards/watch/:id/close", rewardController.CloseWatch)
	protected.POST("/rewards/watch/:id/blocked", rewardController.ReportBlocked)
	protected.POST("/rewards/watch/:id/cancel", rewardController.CancelWatch)
	protected.GET("/rewards/watch/:id", rewardController.WatchResult)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/users", authController.ListUsers)
	admin.POST("/rooms", roomController.CreateRoom)
	admin.PUT("/rooms/:id", roomController.UpdateRoom)
	admin.DELETE("/rooms/:id", roomController.DeleteRoom)
	admin.GET("/registrations", registrationController.List)
	admin.POST("/registrations/:id/review", registrationController.Review)
	admin.GET("/rooms/:id/entries", leaderboardController.ListEntries)
	admin.POST("/entries", leaderboardController.CreateEntry)
	admin.PUT("/entries/:id", leaderboardController.UpdateEntry)
	admin.DELETE("/entries/:id", leaderboardController.DeleteEntry)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		if strings.HasPrefix(path, "/static/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "static asset not found"})
			return
		}
		// Everything else falls back to the SPA entry.
		ctx.Status(http.StatusOK)
		ctx.File("./static/index.html")
	})

	return r, rewardController
}
