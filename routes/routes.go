package routes

import (
	"verlo/cart"
	"verlo/middleware"
	"verlo/orders"
	"verlo/payevents"
	"verlo/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddCartRoutes(router *httprouter.Router, h *cart.Handlers, auth *middleware.Auth, rl *ratelim.RateLimiter) {
	router.GET("/api/cart", auth.Authenticate(h.GetCart))
	router.POST("/api/cart/items", rl.Limit(auth.Authenticate(h.AddToCart)))
	router.PUT("/api/cart/items", rl.Limit(auth.Authenticate(h.UpdateCartItem)))
	router.DELETE("/api/cart/items", rl.Limit(auth.Authenticate(h.RemoveCartItem)))
	router.POST("/api/cart/sync", rl.Limit(auth.Authenticate(h.SyncCart)))
}

func AddOrderRoutes(router *httprouter.Router, h *orders.Handlers, auth *middleware.Auth, rl *ratelim.RateLimiter) {
	router.POST("/api/orders", rl.Limit(auth.Authenticate(h.CreateOrder)))
	router.GET("/api/orders", auth.Authenticate(h.ListOrders))
	router.GET("/api/orders/:id", auth.Authenticate(h.GetOrder))
	// httprouter cannot mix a static segment with :id at the same position,
	// so the number lookup lives under the singular form.
	router.GET("/api/order/number/:orderNumber", auth.Authenticate(h.GetOrderByNumber))
	router.PUT("/api/orders/:id/status", rl.Limit(auth.Authenticate(h.UpdateStatus)))
	router.POST("/api/orders/:id/cancel", rl.Limit(auth.Authenticate(h.CancelOrder)))
	router.GET("/api/orders/:id/invoice", auth.Authenticate(h.PrintInvoice))

	// Fulfilment actions, operator only.
	router.POST("/api/orders/:id/ship", auth.Authenticate(auth.RequireRoles("operator", "admin")(h.ShipOrder)))
	router.POST("/api/orders/:id/deliver", auth.Authenticate(auth.RequireRoles("operator", "admin")(h.DeliverOrder)))
}

// AddWebhookRoutes registers the payment processor callback. No auth
// middleware here: the signature on the payload is the authentication.
func AddWebhookRoutes(router *httprouter.Router, p *payevents.Processor) {
	router.POST("/api/webhooks/stripe", p.HandleWebhook)
}
