package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	accessusecases "amica/internal/application/access/usecases"
	"amica/internal/application/billing"
	"amica/internal/application/billing/paymentgateway"
	billingusecases "amica/internal/application/billing/usecases"
	"amica/internal/infrastructure/auth"
	"amica/internal/infrastructure/config"
	"amica/internal/infrastructure/email"
	"amica/internal/infrastructure/ratelimit"
	"amica/internal/infrastructure/repository"
	"amica/internal/interfaces/http/handlers"
	"amica/internal/interfaces/http/middleware"
	"amica/internal/shared/logger"
)

// NewRouter wires the persistence, gateway and use-case layers into the
// HTTP surface.
func NewRouter(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *gin.Engine {
	log := logger.NewLogger()

	// Repositories
	grantRepo := repository.NewGrantRepository(db, cfg.Entitlement.TrialQuestions)
	orderRepo := repository.NewOrderRepository(db)
	profileRepo := repository.NewProfileMirrorRepository(db)

	// Payment gateway
	gateway := paymentgateway.NewWayForPayGateway(paymentgateway.WayForPayConfig{
		MerchantAccount: cfg.Billing.MerchantAccount,
		MerchantDomain:  cfg.Billing.MerchantDomain,
		MerchantSecret:  cfg.Billing.MerchantSecret,
		APIURL:          cfg.Billing.APIURL,
		RequestTimeout:  time.Duration(cfg.Billing.RequestTimeout) * time.Second,
	}, log.Named("gateway"))

	// Receipts are optional; a nil notifier disables them.
	var notifier billing.ReceiptNotifier
	if cfg.Email.Enabled {
		notifier = email.NewReceiptSender(cfg.Email, profileRepo, log.Named("email"))
	}

	// Access use cases
	mergeUC := accessusecases.NewMergeGrantsUseCase(grantRepo, profileRepo, cfg.Entitlement.TrialQuestions, log.Named("merge"))
	summaryUC := accessusecases.NewGetAccessSummaryUseCase(mergeUC, cfg.Entitlement.TrialQuestions, log.Named("summary"))
	consumeUC := accessusecases.NewConsumeTrialUseCase(mergeUC, grantRepo, log.Named("consume"))

	// Billing use cases
	fulfillment := billingusecases.NewFulfillmentService(orderRepo, mergeUC, grantRepo, profileRepo, notifier, cfg.Billing.Plans, log.Named("fulfillment"))
	checkoutUC := billingusecases.NewCreateCheckoutUseCase(orderRepo, gateway, cfg.Billing.Plans, log.Named("checkout"))
	callbackUC := billingusecases.NewHandleCallbackUseCase(orderRepo, fulfillment, log.Named("callback"))
	pollUC := billingusecases.NewPollOrderStatusUseCase(orderRepo, gateway, fulfillment, log.Named("poll"))

	// Handlers
	accessHandler := handlers.NewAccessHandler(summaryUC, consumeUC, log.Named("http.access"))
	billingHandler := handlers.NewBillingHandler(checkoutUC, callbackUC, pollUC, gateway, log.Named("http.billing"))

	// Identity resolution
	verifier := auth.NewSessionVerifier(cfg.Auth.Session.JWTSecret)
	identity := middleware.NewIdentityMiddleware(verifier, cfg.Auth.Cookie, log.Named("identity"))

	// Rate limiting guards the routes that fan out to the gateway.
	var limiter ratelimit.RateLimiter
	if redisClient != nil {
		limiter = ratelimit.NewRedisRateLimiter(redisClient)
	} else {
		limiter = ratelimit.NewNoopRateLimiter()
	}
	pollLimit := middleware.RateLimit(limiter, ratelimit.RateLimitConfig{
		RequestsPerMinute: 30,
		RequestsPerHour:   300,
	}, log.Named("ratelimit"))

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger(log.Named("http")))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		access := api.Group("/access", identity.Resolve())
		{
			access.GET("/summary", accessHandler.GetSummary)
			access.POST("/consume", accessHandler.ConsumeTrial)
		}

		billingGroup := api.Group("/billing")
		{
			billingGroup.POST("/checkout", identity.Resolve(), pollLimit, billingHandler.CreateCheckout)
			// The callback carries no device cookie; the gateway is the caller.
			billingGroup.POST("/callback", billingHandler.HandleCallback)
			billingGroup.GET("/orders/:reference/status", identity.Resolve(), pollLimit, billingHandler.PollStatus)
		}
	}

	return router
}

func ginMode(mode string) string {
	switch mode {
	case "release", "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
