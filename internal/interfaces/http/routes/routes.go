// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/domain/session"
	"github.com/govinda610/chacha-website/internal/interfaces/http/handlers"
	"github.com/govinda610/chacha-website/internal/interfaces/http/middleware"
	"github.com/govinda610/chacha-website/internal/remote"
)

// SetupRoutes wires all API routes. Every route runs optional auth so the
// session manager can observe login and logout transitions.
func SetupRoutes(rg *gin.RouterGroup, sessions *session.Manager, client *remote.Client, cfg *config.Config) {
	rg.Use(middleware.OptionalAuthMiddleware(cfg))

	SetupCartRoutes(rg, sessions, cfg)
	SetupCheckoutRoutes(rg, sessions, cfg)
	SetupOrderRoutes(rg, client, cfg)
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, sessions *session.Manager, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(sessions, cfg)

	cart := rg.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.POST("/refresh", cartHandler.RefreshCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:id", cartHandler.RemoveCartItem)
	}
}

// SetupCheckoutRoutes sets up checkout related routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, sessions *session.Manager, cfg *config.Config) {
	checkoutHandler := handlers.NewCheckoutHandler(sessions, cfg)

	checkout := rg.Group("/checkout")
	{
		checkout.GET("", checkoutHandler.GetCheckout)
		checkout.GET("/quote", checkoutHandler.GetQuote)
		checkout.POST("/info", checkoutHandler.SubmitInfo)
		checkout.POST("/info/edit", checkoutHandler.EditInfo)
		checkout.POST("/place", checkoutHandler.PlaceOrder)
		checkout.POST("/gateway-result", checkoutHandler.GatewayResult)
		checkout.POST("/retry", checkoutHandler.RetryPayment)
		checkout.POST("/abandon", checkoutHandler.AbandonCheckout)
	}
}

// SetupOrderRoutes sets up order history routes
func SetupOrderRoutes(rg *gin.RouterGroup, client *remote.Client, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(client, cfg)

	orders := rg.Group("/orders")
	{
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
	}
}
