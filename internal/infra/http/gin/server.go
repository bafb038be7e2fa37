package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"renta/internal/infra/config"
	"renta/internal/infra/obs"
)

type CatalogHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	ListOwn(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Publish(c *gin.Context)
	Suspend(c *gin.Context)
	UploadImage(c *gin.Context)
	SetPrimaryImage(c *gin.Context)
	RemoveImage(c *gin.Context)
	SetPrice(c *gin.Context)
	DeactivatePrice(c *gin.Context)
}

type BookingHTTP interface {
	Quote(c *gin.Context)
	Create(c *gin.Context)
	ListOwn(c *gin.Context)
	ListForSpace(c *gin.Context)
	Confirm(c *gin.Context)
	Complete(c *gin.Context)
	Cancel(c *gin.Context)
}

type PaymentHTTP interface {
	StartCheckout(c *gin.Context)
	ListTransactions(c *gin.Context)
	Webhook(c *gin.Context)
}

type ReviewHTTP interface {
	Submit(c *gin.Context)
	ListForSpace(c *gin.Context)
	ListPending(c *gin.Context)
	Moderate(c *gin.Context)
}

type FavoriteHTTP interface {
	Toggle(c *gin.Context)
	List(c *gin.Context)
}

type AdminHTTP interface {
	Overview(c *gin.Context)
	AuditLog(c *gin.Context)
	ListUsers(c *gin.Context)
	SetUserBlocked(c *gin.Context)
	AssignRoles(c *gin.Context)
	RunBackup(c *gin.Context)
}

type Handlers struct {
	Catalog        CatalogHTTP
	Booking        BookingHTTP
	Payment        PaymentHTTP
	Review         ReviewHTTP
	Favorite       FavoriteHTTP
	Admin          AdminHTTP
	Auth           AuthHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(obsMW.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Content-Disposition",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	router.GET("/metrics", obs.MetricsHandler())

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Catalog != nil {
		api.GET("/spaces", h.Catalog.Search)
		api.GET("/spaces/:id", h.Catalog.Get)

		owner := api.Group("/own/spaces")
		owner.GET("", h.Catalog.ListOwn)
		owner.POST("", h.Catalog.Create)
		owner.PUT("/:id", h.Catalog.Update)
		owner.POST("/:id/publish", h.Catalog.Publish)
		owner.POST("/:id/images", h.Catalog.UploadImage)
		owner.POST("/:id/images/:imageID/primary", h.Catalog.SetPrimaryImage)
		owner.DELETE("/:id/images/:imageID", h.Catalog.RemoveImage)
		owner.PUT("/:id/prices", h.Catalog.SetPrice)
		owner.DELETE("/:id/prices/:period", h.Catalog.DeactivatePrice)

		api.POST("/moderation/spaces/:id/suspend", h.Catalog.Suspend)
	}
	if h.Booking != nil {
		api.GET("/bookings/quote", h.Booking.Quote)
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings", h.Booking.ListOwn)
		api.GET("/spaces/:id/bookings", h.Booking.ListForSpace)
		api.POST("/bookings/:id/confirm", h.Booking.Confirm)
		api.POST("/bookings/:id/complete", h.Booking.Complete)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Payment != nil {
		api.POST("/bookings/:id/checkout", h.Payment.StartCheckout)
		api.GET("/bookings/:id/transactions", h.Payment.ListTransactions)
		api.POST("/payments/webhook", h.Payment.Webhook)
	}
	if h.Review != nil {
		api.POST("/spaces/:id/reviews", h.Review.Submit)
		api.GET("/spaces/:id/reviews", h.Review.ListForSpace)
		api.GET("/moderation/reviews", h.Review.ListPending)
		api.POST("/moderation/reviews/:reviewID", h.Review.Moderate)
	}
	if h.Favorite != nil {
		api.POST("/spaces/:id/favorite", h.Favorite.Toggle)
		api.GET("/favorites", h.Favorite.List)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.GET("/overview", h.Admin.Overview)
		adminGroup.GET("/audit", h.Admin.AuditLog)
		adminGroup.GET("/users", h.Admin.ListUsers)
		adminGroup.POST("/users/:id/blocked", h.Admin.SetUserBlocked)
		adminGroup.PUT("/users/:id/roles", h.Admin.AssignRoles)
		adminGroup.POST("/backup", h.Admin.RunBackup)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
