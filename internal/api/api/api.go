package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"github.com/sticonf/registration/cmd/middleware"
	"github.com/sticonf/registration/internal/service"
)

type Routers struct {
	Service    service.Service
	AuthSecret string
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	// Public: the quote endpoint backs the fee calculator on the
	// registration forms before sign-in.
	apiGroup.POST("/pricing/quote", r.Service.Quote)

	authed := apiGroup.Group("")
	authed.Use(middleware.Auth(r.AuthSecret))
	authed.POST("/registrations", r.Service.CreateRegistration)
	authed.GET("/registrations", r.Service.GetRegistrations)
	authed.GET("/registrations/:id", r.Service.GetRegistration)

	authed.GET("/payments/public-key", r.Service.GetPublicKey)
	authed.POST("/payments/initialize", r.Service.InitializePayment)
	authed.POST("/payments/verify", r.Service.VerifyPayment)
	authed.POST("/payments/:reference/cancel", r.Service.CancelPayment)

	authed.GET("/dashboard", r.Service.Dashboard)
	authed.PUT("/profile", r.Service.UpsertProfile)

	// Static marketing pages.
	app.GET("/", func(c *ginext.Context) {
		c.File("./frontend/index.html")
	})
	app.GET("/dashboard", func(c *ginext.Context) {
		c.File("./frontend/dashboard.html")
	})
	app.Static("/frontend", "./frontend")

	return app
}
