package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/msgboard/config"
	"github.com/cppla/msgboard/controllers"
	"github.com/cppla/msgboard/middleware"
	"github.com/cppla/msgboard/services"
	"github.com/cppla/msgboard/session"
	"github.com/cppla/msgboard/utils"
)

// Dependencies are the long-lived collaborators the HTTP layer needs.
type Dependencies struct {
	DB       *gorm.DB
	Mail     services.MailQueue
	Sessions session.Store
	// Locate overrides IP geolocation, mainly for tests.
	Locate services.Locator
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Dependencies) (*gin.Engine, error) {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	ban, err := utils.NewRegexFilter(cfg.BanRegex)
	if err != nil {
		return nil, fmt.Errorf("ban rule: %w", err)
	}
	mod, err := utils.NewRegexFilter(cfg.ModRegex)
	if err != nil {
		return nil, fmt.Errorf("moderation rule: %w", err)
	}
	locate := deps.Locate
	if locate == nil {
		locate = utils.LocateOrUnknown
	}

	messages := services.NewLeaveMessageService(deps.DB)
	inbox := services.NewInboxService(deps.DB)
	notifier := services.NewNotifier(deps.Mail, utils.NewNotifyTemplate(cfg.NotifyTemplatePath), cfg.SiteTitle, cfg.SiteURL)
	board := services.NewMsgBoard(services.MsgBoardDeps{
		Messages:   messages,
		Inbox:      inbox,
		Notifier:   notifier,
		Ban:        ban,
		Moderation: mod,
		OwnerEmail: cfg.OwnerEmail,
		Locate:     locate,
		OnChange:   controllers.InvalidateListCache,
	})
	owner := services.Owner{NickName: cfg.OwnerNickName, Email: cfg.OwnerEmail, QQorWechat: cfg.OwnerQQorWechat}

	r := gin.New()
	// Access log goes to its own rolling file when configured
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg, cfg.GinPath); err == nil {
			accessLog = gl
		} else {
			utils.Sugar.Warnf("gin log %s unavailable, using app logger: %v", cfg.GinPath, err)
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.AntiForgeryHeader, "X-Captcha-Id", "X-Captcha-Answer"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	msgController := controllers.NewMsgController(board, owner, time.Duration(cfg.ListCacheSeconds)*time.Second)
	inboxController := controllers.NewInboxController(inbox)
	authController := controllers.NewAuthController()
	statsController := controllers.NewStatsController(messages, inbox)

	api := r.Group("/api/v1")
	api.Use(middleware.Sessions(deps.Sessions, time.Duration(cfg.SessionTTLHours)*time.Hour))
	api.Use(middleware.AuthOptional())
	api.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api.GET("/antiforgery", msgController.AntiForgery)
	api.POST("/session/timezone", msgController.SetTimeZone)
	api.DELETE("/session", msgController.ClearSession)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", middleware.RateLimitMiddleware(cfg.RateLimitPerMinute), authController.Login)
	authGroup.GET("/captcha", authController.Captcha)
	authGroup.POST("/logout", middleware.OwnerRequired(), authController.Logout)
	authGroup.GET("/me", middleware.OwnerRequired(), authController.Me)

	msg := api.Group("/msg")
	msg.GET("", msgController.List)
	msg.GET("/stats", statsController.GetStats)
	msg.POST("",
		middleware.ValidateAntiForgery(),
		middleware.RateLimitMiddleware(cfg.RateLimitPerMinute),
		middleware.CountryFilter(cfg.AllowedCountry, cfg.DenyCountry),
		middleware.CaptchaRequired(cfg.MsgCaptchaEnabled),
		msgController.Submit,
	)

	ownerMsg := msg.Group("")
	ownerMsg.Use(middleware.OwnerRequired())
	ownerMsg.GET("/pending", msgController.Pending)
	ownerMsg.POST("/:id/pass", msgController.Pass)
	ownerMsg.POST("/:id/delete", msgController.Delete)

	inboxGroup := api.Group("/inbox")
	inboxGroup.Use(middleware.OwnerRequired())
	inboxGroup.GET("", inboxController.List)
	inboxGroup.GET("/unread", inboxController.Unreads)
	inboxGroup.POST("/clear", inboxController.Clear)
	inboxGroup.POST("/mark-read/:id", inboxController.MarkReadUpTo)
	inboxGroup.GET("/:id", inboxController.Get)
	inboxGroup.POST("/:id/read", inboxController.Read)
	inboxGroup.POST("/:id/unread", inboxController.Unread)
	inboxGroup.POST("/:id/delete", inboxController.Delete)

	r.Static("/static", "./static")

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r, nil
}
