package routes

import (
	"lookshq/auth"
	"lookshq/booking"
	"lookshq/cart"
	"lookshq/middleware"
	"lookshq/models"
	"lookshq/pay"
	"lookshq/products"
	"lookshq/profile"
	"lookshq/ratelim"
	"lookshq/reviews"
	"lookshq/settings"
	"lookshq/shops"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/token/refresh", rl.Limit(middleware.Authenticate(auth.RefreshToken)))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.LogoutUser))
}

func AddProfileRoutes(router *httprouter.Router) {
	router.GET("/api/profile", middleware.Authenticate(profile.GetProfile))
	router.PUT("/api/profile", middleware.Authenticate(profile.UpdateProfile))
	router.PUT("/api/profile/password", middleware.Authenticate(profile.ChangePassword))
}

func AddSettingsRoutes(router *httprouter.Router) {
	router.GET("/api/settings", middleware.Authenticate(settings.GetUserSettings))
	router.PUT("/api/settings/:type", middleware.Authenticate(settings.UpdateUserSetting))
	router.DELETE("/api/settings", middleware.Authenticate(settings.ResetUserSettings))
}

func AddShopRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	ownerOnly := middleware.Chain(
		middleware.Authenticate,
		middleware.RequireRoles(models.RoleShopOwner, models.RoleAdmin),
	)

	router.GET("/api/shops", rl.Limit(shops.GetShops))
	router.GET("/api/my/shops", ownerOnly(shops.GetMyShops))
	router.GET("/api/shops/:shopId", rl.Limit(shops.GetShopByID))
	router.POST("/api/shops", ownerOnly(shops.CreateShop))
	router.PUT("/api/shops/:shopId", ownerOnly(shops.EditShop))
	router.DELETE("/api/shops/:shopId", ownerOnly(shops.DeleteShop))
}

func AddProductRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	ownerOnly := middleware.Chain(
		middleware.Authenticate,
		middleware.RequireRoles(models.RoleShopOwner, models.RoleAdmin),
	)

	router.GET("/api/products", rl.Limit(products.GetProducts))
	router.GET("/api/products/:productId", rl.Limit(products.GetProductByID))
	router.POST("/api/products", ownerOnly(products.CreateProduct))
	router.PUT("/api/products/:productId", ownerOnly(products.EditProduct))
	router.DELETE("/api/products/:productId", ownerOnly(products.DeleteProduct))
}

func AddReviewRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	customerOnly := middleware.Chain(
		middleware.Authenticate,
		middleware.RequireRoles(models.RoleCustomer, models.RoleAdmin),
	)

	router.GET("/api/shops/:shopId/reviews", rl.Limit(reviews.GetReviews))
	router.POST("/api/shops/:shopId/reviews", customerOnly(reviews.AddReview))
	router.PUT("/api/reviews/:reviewId", middleware.Authenticate(reviews.EditReview))
	router.DELETE("/api/reviews/:reviewId", middleware.Authenticate(reviews.DeleteReview))
}

func AddCartRoutes(router *httprouter.Router) {
	customerOnly := middleware.Chain(
		middleware.Authenticate,
		middleware.RequireRoles(models.RoleCustomer),
	)

	router.GET("/api/cart", customerOnly(cart.GetCart))
	router.POST("/api/cart", customerOnly(cart.AddToCart))
	router.DELETE("/api/cart/items/:itemId", customerOnly(cart.RemoveFromCart))
	router.DELETE("/api/cart", customerOnly(cart.ClearCart))
}

func AddBookingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, hub *booking.Hub) {
	customerOnly := middleware.Chain(
		middleware.Authenticate,
		middleware.RequireRoles(models.RoleCustomer),
	)

	router.POST("/api/bookings", rl.Limit(customerOnly(booking.CreateBooking)))
	router.POST("/api/bookings/checkout", rl.Limit(customerOnly(booking.CheckoutCart)))
	router.GET("/api/bookings", middleware.Authenticate(booking.GetBookings))
	router.GET("/api/bookings/:bookingId", middleware.Authenticate(booking.GetBookingByID))
	router.PUT("/api/bookings/:bookingId/status", middleware.Authenticate(booking.UpdateBooking))
	router.DELETE("/api/bookings/:bookingId", middleware.Authenticate(booking.DeleteBooking))

	// The hub validates ?token= itself; browsers cannot set headers on
	// websocket dials.
	router.GET("/ws/bookings", hub.HandleUpdates)
}

func AddPaymentRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, svc *pay.PaymentService) {
	adminOnly := middleware.Chain(
		middleware.Authenticate,
		middleware.RequireRoles(models.RoleAdmin),
	)

	router.POST("/api/payments", rl.Limit(middleware.Authenticate(svc.CreatePayment)))
	router.GET("/api/payments", middleware.Authenticate(pay.GetPayments))
	router.GET("/api/payments/:paymentId", middleware.Authenticate(pay.GetPaymentByID))
	router.GET("/api/payments/:paymentId/receipt", middleware.Authenticate(pay.DownloadReceipt))
	router.PUT("/api/payments/:paymentId", adminOnly(pay.UpdatePayment))
	router.DELETE("/api/payments/:paymentId", adminOnly(pay.DeletePayment))

	// Gateway webhook, necessarily unauthenticated.
	router.POST("/api/payments/mpesa/callback", rl.Limit(svc.MpesaCallback))
}

// RoutesWrapper mounts every route group on the router.
func RoutesWrapper(router *httprouter.Router, rl *ratelim.RateLimiter, hub *booking.Hub, paySvc *pay.PaymentService) {
	AddAuthRoutes(router, rl)
	AddProfileRoutes(router)
	AddSettingsRoutes(router)
	AddShopRoutes(router, rl)
	AddProductRoutes(router, rl)
	AddReviewRoutes(router, rl)
	AddCartRoutes(router)
	AddBookingRoutes(router, rl, hub)
	AddPaymentRoutes(router, rl, paySvc)
}
