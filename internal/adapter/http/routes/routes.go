package routes

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "payment_gateway/docs" // registers the swagger spec
	"payment_gateway/internal/infrastructure/config"
	"payment_gateway/internal/infrastructure/logging"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

var router = gin.New()

// Run will start the server
func Run() {
	log := logging.NewLogger()
	defer func() { _ = log.Sync() }()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build the application", zap.Error(err))
	}
	go app.worker.RunForever(ctx, app.router)

	setMiddlewares(router, log)
	getRoutes(router, app)

	log.Info("payment gateway listening", zap.Int("port", cfg.Port), zap.Strings("providers", app.router.Providers()), zap.String("storage", cfg.StorageDriver))
	if err := router.Run(":" + strconv.Itoa(cfg.Port)); err != nil {
		log.Fatal("failed to startup the application", zap.Error(err))
	}
}

func getRoutes(r *gin.Engine, app *application) {
	r.GET("/metrics", gin.WrapH(app.metricsHandler))

	// Swagger documentation endpoint
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Rotas publicas
	v1 := r.Group("/v1")
	addPingRoutes(v1, app.router.Providers())
	addOrderRoutes(v1, app.orderHandler)
	addPaymentRoutes(v1, app.paymentHandler)
	addWebhookRoutes(v1, app.webhookHandler)
}

func setMiddlewares(r *gin.Engine, log *zap.Logger) {
	r.Use(requestLogger(log.Named("http")))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("recovered from panic", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
}
