package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sumire/lostfound/internal/service"
)

// Services are the application services the HTTP API exposes.
// Uploads is nil when object storage is not configured.
type Services struct {
	Auth          *service.AuthService
	Reports       *service.ReportService
	Claims        *service.ClaimService
	Notifications *service.NotificationService
	Uploads       *service.UploadService
}

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	FrontendURL    string
	DevAuthBypass  bool
	MaxUploadBytes int64
}

// NewRouter builds the echo instance with every route registered.
func NewRouter(svc Services, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = NewAppValidator()

	e.Use(middleware.RequestID())
	e.Use(RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType, devUserHeader},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/health", func(c echo.Context) error {
		return JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := NewAuthHandler(svc.Auth)
	reportHandler := NewReportHandler(svc.Reports, svc.Claims)
	claimHandler := NewClaimHandler(svc.Claims)
	notificationHandler := NewNotificationHandler(svc.Notifications)

	v1 := e.Group("/api/v1")

	// Auth routes (public)
	v1.POST("/auth/refresh", authHandler.Refresh)
	v1.GET("/auth/:provider", authHandler.Redirect)
	v1.GET("/auth/:provider/callback", authHandler.Callback)

	// Protected routes
	api := v1.Group("", JWTAuth(svc.Auth, cfg.DevAuthBypass))

	api.GET("/auth/me", authHandler.Me)

	api.POST("/reports", reportHandler.Create)
	api.GET("/reports", reportHandler.List)
	api.GET("/reports/:id", reportHandler.Get)
	api.GET("/reports/:id/matches", reportHandler.Matches)
	api.POST("/reports/:id/archive", reportHandler.Archive)
	api.POST("/reports/:id/resolve", reportHandler.Resolve)
	api.GET("/reports/:id/claims", reportHandler.Claims)

	api.POST("/claims", claimHandler.Create)
	api.GET("/claims/received", claimHandler.Received)

	api.GET("/notifications", notificationHandler.List)
	api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	api.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
	api.DELETE("/notifications/:id", notificationHandler.Delete)

	if svc.Uploads != nil {
		uploadHandler := NewUploadHandler(svc.Uploads, cfg.MaxUploadBytes)
		api.POST("/uploads", uploadHandler.Upload)
	}

	return e
}
