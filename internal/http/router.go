package api

import (
	stdhttp "net/http"

	intconfig "estatehub/internal/config"
	"estatehub/internal/domain"
	h "estatehub/internal/http/handlers"
	"estatehub/internal/http/middleware"
	"estatehub/internal/listing"
	"estatehub/internal/utils"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	h.Configure(env)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.LogEvent("", "http", "init", "failed to set trusted proxies: "+err.Error())
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	requireAuth := middleware.RequireAuth(h.ParseAccessToken)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.POST("/register", h.Register)
		auth.GET("/me", requireAuth, h.Me)

		// Catalogues
		mountCatalogue(api.Group("/properties"), listing.KindProperty)
		mountCatalogue(api.Group("/hotels"), listing.KindHotel)

		// Dashboard
		dashboard := api.Group("/dashboard", requireAuth,
			middleware.RequireRoles(domain.RoleAdmin, domain.RoleAgent, domain.RoleHotelManager))
		dashboard.GET("/summary", h.DashboardSummary)
	}

	h.SetRouter(r)
	return r
}

func mountCatalogue(g *gin.RouterGroup, kind listing.Kind) {
	g.GET("", h.ListListings(kind))
	g.GET("/:id", h.GetListing(kind))
	g.GET("/:id/brochure", h.GetBrochure(kind))
}
