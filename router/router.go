package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/self-order-app/controllers"
	"github.com/yeremiapane/self-order-app/events"
	"github.com/yeremiapane/self-order-app/kds"
	"github.com/yeremiapane/self-order-app/middlewares"
	"github.com/yeremiapane/self-order-app/models"
	"github.com/yeremiapane/self-order-app/services"
)

// SetupRouter merakit service, controller, dan route table. hub boleh nil
// (mis. di test) -> event dibuang.
func SetupRouter(db *gorm.DB, hub *kds.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares())

	var publisher events.Publisher = events.NopPublisher{}
	if hub != nil {
		publisher = hub
	}

	orderService := services.NewOrderService(db, publisher)
	paymentService := services.NewPaymentService(db, publisher)
	reportService := services.NewReportService(db)

	userCtrl := controllers.NewUserController(db)
	categoryCtrl := controllers.NewMenuCategoryController(db)
	menuCtrl := controllers.NewMenuController(db)
	orderCtrl := controllers.NewOrderController(orderService)
	paymentCtrl := controllers.NewPaymentController(paymentService)
	reportCtrl := controllers.NewReportController(reportService)

	api := r.Group("/api")

	// Endpoint publik: customer browse menu, pesan, dan lacak pesanan.
	api.POST("/login", userCtrl.Login)
	api.GET("/categories", categoryCtrl.GetAllCategories)
	api.GET("/menus", menuCtrl.GetAllMenus)
	api.GET("/menus/:menu_id", menuCtrl.GetMenuByID)
	api.POST("/orders", orderCtrl.CreateOrder)
	api.GET("/orders/track/:order_number", orderCtrl.TrackOrder)

	auth := api.Group("")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.Profile)

	// Staf: kelola order dan pembayaran.
	staff := auth.Group("")
	staff.Use(middlewares.RequireRoles(models.RoleStaff, models.RoleKitchen))
	staff.GET("/orders", orderCtrl.GetAllOrders)
	staff.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	staff.PUT("/orders/:order_id", orderCtrl.UpdateOrder)
	staff.PATCH("/orders/:order_id/status", orderCtrl.UpdateStatus)
	staff.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)

	staff.POST("/orders/:order_id/payments", paymentCtrl.CreatePayment)
	staff.GET("/orders/:order_id/payments", paymentCtrl.GetPaymentsByOrder)
	staff.GET("/payments/:payment_id", paymentCtrl.GetPaymentByID)
	staff.PATCH("/payments/:payment_id", paymentCtrl.UpdatePayment)
	staff.POST("/payments/:payment_id/confirm", paymentCtrl.ConfirmPayment)
	staff.POST("/payments/:payment_id/refund", paymentCtrl.RefundPayment)

	// Admin: kelola katalog, user, dan laporan.
	admin := auth.Group("")
	admin.Use(middlewares.RequireRoles(models.RoleAdmin))
	admin.POST("/register", userCtrl.Register)
	admin.POST("/categories", categoryCtrl.CreateCategory)
	admin.PUT("/categories/:category_id", categoryCtrl.UpdateCategory)
	admin.DELETE("/categories/:category_id", categoryCtrl.DeleteCategory)
	admin.POST("/menus", menuCtrl.CreateMenu)
	admin.PUT("/menus/:menu_id", menuCtrl.UpdateMenu)
	admin.DELETE("/menus/:menu_id", menuCtrl.DeleteMenu)
	admin.GET("/reports/orders", reportCtrl.GetOrderReport)
	admin.GET("/reports/payments", reportCtrl.GetPaymentReport)

	// Feed realtime untuk kitchen display dan kasir.
	if hub != nil {
		wsCtrl := controllers.NewWSController(hub)
		auth.GET("/ws", wsCtrl.Stream)
	}

	return r
}
