package router

import (
	"time"

	"groov/config"
	"groov/internal/handler"
	"groov/internal/middleware"
	"groov/internal/repository"
	"groov/internal/service"
	"groov/internal/ws"
	"groov/pkg/cloudinary"
	"groov/pkg/kakaopay"
	"groov/pkg/media"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, store *media.Store, cloud cloudinary.Client, gateway kakaopay.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	songRepo := repository.NewSongRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	entitlementRepo := repository.NewEntitlementRepository(db)

	eventHub := ws.NewEventHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	songSvc := service.NewSongService(songRepo, entitlementRepo, store, cloud, eventHub)
	paymentSvc := service.NewPaymentService(db, paymentRepo, songRepo, entitlementRepo, gateway, eventHub)

	// Handlers
	authHandler := handler.NewAuthHandler(cfg, authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	profileHandler := handler.NewProfileHandler(userRepo, songRepo, entitlementRepo)
	songHandler := handler.NewSongHandler(songSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)

	authMw := middleware.AuthRequired(&cfg.JWT, userRepo)

	r.POST("/user", authHandler.GoogleLogin)
	r.POST("/auth/refresh", authHandler.Refresh)
	r.GET("/auth/google", googleOAuthHandler.Redirect)
	r.GET("/auth/google/callback", googleOAuthHandler.Callback)

	r.GET("/songs", songHandler.List)
	r.GET("/song", songHandler.Search)

	r.GET("/profile", authMw, profileHandler.GetProfile)
	r.DELETE("/delete", authMw, profileHandler.DeleteAccount)
	r.GET("/downloads/:user_id", authMw, profileHandler.ListDownloads)

	r.POST("/upload", authMw, songHandler.Upload)
	r.PUT("/song/:song_id", authMw, songHandler.Edit)
	r.DELETE("/song/:song_id", authMw, songHandler.Delete)
	r.GET("/downloading/:song_id", authMw, songHandler.Download)

	r.POST("/payment/ready", authMw, paymentHandler.Ready)
	r.POST("/payment/approve", authMw, paymentHandler.Approve)
	r.GET("/payment/status", authMw, paymentHandler.Status)

	r.GET("/ws/events", ws.UpgradeEventsWS(&cfg.JWT, eventHub))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "ws_clients": eventHub.ClientCount()})
	})

	r.Static("/media", store.Root())

	return r
}
