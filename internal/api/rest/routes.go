package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moa-platform/checkout-service/internal/api/rest/handlers"
	"github.com/moa-platform/checkout-service/internal/api/rest/middleware"
	"github.com/moa-platform/checkout-service/internal/checkout"
	"github.com/moa-platform/checkout-service/internal/integration/moaapi"
	"github.com/moa-platform/checkout-service/internal/metrics"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(
	service *checkout.Service,
	api *moaapi.Client,
	m metrics.CheckoutMetrics,
	registry *prometheus.Registry,
	log *logger.Logger,
) *gin.Engine {
	r := gin.New()

	// Подключение middleware
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Инициализация обработчиков
	checkoutHandler := handlers.NewCheckoutHandler(service, m, log)
	paymentHandler := handlers.NewPaymentHandler(service, m, log)
	productHandler := handlers.NewProductHandler(api, log)

	v1 := r.Group("/api/v1")
	{
		// Каталог OTT сервисов
		v1.GET("/products", productHandler.List)

		// Оформление вечеринки
		checkouts := v1.Group("/checkouts")
		{
			checkouts.POST("", checkoutHandler.Start)
			checkouts.POST("/resume", checkoutHandler.Resume)
			checkouts.GET("/:id", checkoutHandler.Get)
			checkouts.POST("/:id/product", checkoutHandler.SelectProduct)
			checkouts.POST("/:id/configure", checkoutHandler.Configure)
			checkouts.POST("/:id/back", checkoutHandler.Back)
			checkouts.POST("/:id/pay", checkoutHandler.Pay)
			checkouts.POST("/:id/credentials", checkoutHandler.SubmitCredentials)
		}

		// Присоединение и повторные депозиты
		parties := v1.Group("/parties")
		{
			parties.POST("/:id/join", paymentHandler.JoinParty)
			parties.POST("/:id/retry-deposit", paymentHandler.RetryDeposit)
		}

		// Колбэки платежного шлюза
		payments := v1.Group("/payments")
		{
			payments.POST("/success", paymentHandler.PaymentSuccess)
			payments.POST("/fail", paymentHandler.PaymentFail)
			payments.POST("/billing-auth", paymentHandler.BillingAuth)
			payments.POST("/billing-success", paymentHandler.BillingSuccess)
		}
	}

	return r
}
