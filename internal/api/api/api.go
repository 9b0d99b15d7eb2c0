package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"srisai/cmd/middleware"
	"srisai/internal/admin"
	"srisai/internal/repo"
	"srisai/internal/service"
)

type Routers struct {
	Service      service.Service
	Sessions     *admin.Sessions
	Repo         repo.Repository
	Limiter      *middleware.RateLimiter
	Log          *zerolog.Logger
	CookieSecure bool
	GinMode      string
	Now          func() time.Time
}

func NewRouters(r *Routers) *ginext.Engine {
	mode := r.GinMode
	if mode == "" {
		mode = "release"
	}
	app := ginext.New(mode)

	h := newHandlers(r)

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	apiGroup := app.Group("/v1")
	apiGroup.GET("/site", h.Site)
	apiGroup.POST("/bookings", h.SubmitBooking)

	adminGroup := apiGroup.Group("/admin")
	login := []gin.HandlerFunc{}
	if r.Limiter != nil {
		login = append(login, r.Limiter.Middleware())
	}
	adminGroup.POST("/login", append(login, h.Login)...)
	adminGroup.POST("/logout", h.Logout)

	protected := adminGroup.Group("")
	protected.Use(h.RequireAdmin)
	protected.GET("/bookings", h.Bookings)
	protected.GET("/export.csv", h.ExportCSV)
	protected.GET("/export.xlsx", h.ExportXLSX)
	protected.POST("/clear", h.Clear)

	app.GET("/metrics", gin.WrapH(promhttp.Handler()))
	app.GET("/healthz", h.Health)

	return app
}
