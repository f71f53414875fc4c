package routes

import (
	"github.com/gin-gonic/gin"

	"rumor_backend/internal/handlers/admin"
	"rumor_backend/internal/handlers/order"
	"rumor_backend/internal/handlers/payment"
	"rumor_backend/internal/handlers/product"
	"rumor_backend/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Catalogue (public)
	api.GET("/products", product.GetAllProducts)
	api.GET("/products/:id", product.GetProductByID)
	api.GET("/products/search", middleware.SearchRateLimit(), product.SearchProducts)

	// Commandes (checkout invité)
	api.POST("/orders", middleware.OrderRateLimit(), order.CreateOrder)
	api.GET("/orders/:id", order.GetOrderByID)

	// Paiement WebPay
	api.POST("/payment", payment.CreatePayment)
	api.GET("/payment/:id/qr", payment.PaymentQR)
	// Webhook passerelle — non authentifié, protégé par signature
	api.POST("/payment/webhook", payment.WebPayWebhook)

	// Auth admin
	api.POST("/admin/bootstrap", admin.CreateAdmin)
	api.POST("/admin/login", admin.Login)

	// Console admin
	adm := api.Group("/admin")
	adm.Use(middleware.AuthRequired(), middleware.RequireAdmin())
	{
		adm.GET("/orders", order.ListOrders)
		adm.PATCH("/orders/:id/status", order.UpdateOrderStatus)
		adm.POST("/products", product.CreateProduct)
		adm.PUT("/products/:id", product.UpdateProduct)
		adm.DELETE("/products/:id", product.DeleteProduct)
		adm.POST("/products/:id/image", product.UploadProductImage)
	}
}
