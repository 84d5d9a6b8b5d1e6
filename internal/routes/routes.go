package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/orders"
)

// Deps are the services the HTTP surface is built from. Metrics may be nil.
type Deps struct {
	Catalog *catalog.Service
	Orders  *orders.Pipeline
	Admin   *auth.Admin
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

// NewRouter builds an engine with the request middleware chain and all routes.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(handlers.RequestID(), handlers.Recovery(deps.Log), handlers.Logger(deps.Log))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	RegisterRoutes(router, deps)
	return router
}

func RegisterRoutes(router *gin.Engine, deps Deps) {
	products := handlers.NewProductHandler(deps.Catalog, deps.Log)
	orderH := handlers.NewOrderHandler(deps.Orders, deps.Log)
	health := handlers.NewHealthHandler(deps.Catalog, deps.Log)
	admin := deps.Admin.Middleware()

	api := router.Group("/api")
	{
		api.GET("/products", products.ListProducts)
		api.GET("/products/:id", products.GetProduct)
		api.POST("/products", admin, products.CreateProduct)
		api.PUT("/products/:id", admin, products.UpdateProduct)
		api.DELETE("/products/:id", admin, products.DeleteProduct)
		api.GET("/sections", products.ListSections)

		api.POST("/orders", orderH.CreateOrder)
		api.GET("/orders", admin, orderH.ListOrders)

		api.GET("/health", health.Health)
	}
}
