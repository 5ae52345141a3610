package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lsf-services/warehouse-system/pkg/api"
	"github.com/lsf-services/warehouse-system/pkg/cloudevents"
	apperrors "github.com/lsf-services/warehouse-system/pkg/errors"
	"github.com/lsf-services/warehouse-system/pkg/idempotency"
	"github.com/lsf-services/warehouse-system/pkg/kafka"
	"github.com/lsf-services/warehouse-system/pkg/logging"
	"github.com/lsf-services/warehouse-system/pkg/metrics"
	"github.com/lsf-services/warehouse-system/pkg/middleware"
	"github.com/lsf-services/warehouse-system/pkg/mongodb"
	"github.com/lsf-services/warehouse-system/pkg/outbox"
	"github.com/lsf-services/warehouse-system/pkg/resilience"
	"github.com/lsf-services/warehouse-system/pkg/tracing"

	"github.com/lsf-services/warehouse-system/internal/application"
	"github.com/lsf-services/warehouse-system/internal/domain"
	mongoRepo "github.com/lsf-services/warehouse-system/internal/infrastructure/mongodb"
)

const serviceName = "stock-api"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting stock-api")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing - don't exit
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	stockMetrics := middleware.NewStockMetrics(m)
	logger.Info("Metrics initialized")

	// Initialize MongoDB with instrumentation and circuit breaker
	mongoClient, err := mongodb.NewProductionClient(ctx, config.MongoDB, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize idempotency indexes
	indexRetry := resilience.DefaultRetryConfig()
	indexRetry.RetryableErrors = func(err error) bool { return true }
	if err := resilience.Retry(ctx, indexRetry, func() error {
		return idempotency.InitializeIndexes(ctx, mongoClient.Database())
	}); err != nil {
		logger.WithError(err).Warn("Failed to initialize idempotency indexes")
	} else {
		logger.Info("Idempotency indexes initialized")
	}

	// Initialize Kafka producer with instrumentation and circuit breaker
	kafkaProducer := kafka.NewProductionProducer(config.Kafka, m, logger)
	defer kafkaProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceStockAPI)

	// Initialize repositories with the breaker-protected client
	stockRepo, err := mongoRepo.NewStockRecordRepository(mongoClient, eventFactory)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize stock repository")
		os.Exit(1)
	}
	movementRepo := mongoRepo.NewMovementRepository(mongoClient)
	itemRepo, err := mongoRepo.NewItemRepository(mongoClient, eventFactory)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize item repository")
		os.Exit(1)
	}
	warehouseRepo, err := mongoRepo.NewWarehouseRepository(mongoClient, eventFactory)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize warehouse repository")
		os.Exit(1)
	}

	// Initialize idempotency repository
	idempotencyKeyRepo := idempotency.NewMongoKeyRepository(mongoClient.Database())
	logger.Info("Idempotency repositories initialized")

	// Initialize and start outbox publisher
	outboxPublisher := outbox.NewPublisher(
		stockRepo.GetOutboxRepository(),
		kafkaProducer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	// Initialize application services
	stockService := application.NewStockApplicationService(stockRepo, itemRepo, warehouseRepo, logger)
	queryService := application.NewStockQueryService(stockRepo, movementRepo, logger)
	replenishmentService := application.NewReplenishmentService(stockRepo, nil, logger)
	catalogService := application.NewCatalogApplicationService(itemRepo, warehouseRepo, logger)

	// Setup Gin router with middleware
	router := gin.New()

	// Apply standard middleware (includes recovery, request ID, correlation, logging, error handling)
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)

	// Initialize idempotency metrics
	idempotencyMetrics := idempotency.NewMetrics(nil)

	// Configure idempotency middleware
	middlewareConfig.IdempotencyConfig = &idempotency.Config{
		ServiceName:     serviceName,
		Repository:      idempotencyKeyRepo,
		RequireKey:      false,
		OnlyMutating:    true,
		MaxKeyLength:    255,
		LockTimeout:     5 * time.Minute,
		RetentionPeriod: 24 * time.Hour,
		MaxResponseSize: 1024 * 1024,
		Metrics:         idempotencyMetrics,
		Logger:          logger.Logger,
	}

	middleware.Setup(router, middlewareConfig)

	// Add metrics middleware
	router.Use(middleware.MetricsMiddleware(m))

	// Add tracing middleware
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		if err := mongoClient.HealthCheck(ctx); err != nil {
			return err
		}
		if kafkaProducer.IsOpen() {
			return errors.New("kafka circuit breaker open")
		}
		return nil
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		stock := v1.Group("/stock")
		{
			// Static routes first (must come before wildcard routes)
			stock.GET("", listStockHandler(queryService, logger))
			stock.GET("/low-stock", scanLowStockHandler(replenishmentService, logger))
			stock.POST("/transfer", transferStockHandler(stockService, stockMetrics, logger))

			// Wildcard key routes (must come after static routes)
			stock.GET("/:warehouseCode/:itemCode", getStockHandler(queryService, logger))
			stock.POST("/:warehouseCode/:itemCode/receive", receiveStockHandler(stockService, stockMetrics, logger))
			stock.POST("/:warehouseCode/:itemCode/reserve", reserveStockHandler(stockService, stockMetrics, logger))
			stock.POST("/:warehouseCode/:itemCode/release", releaseStockHandler(stockService, stockMetrics, logger))
			stock.POST("/:warehouseCode/:itemCode/issue", issueStockHandler(stockService, stockMetrics, logger))
			stock.POST("/:warehouseCode/:itemCode/adjust", adjustStockHandler(stockService, stockMetrics, logger))
			stock.PUT("/:warehouseCode/:itemCode/levels", setStockLevelsHandler(stockService, stockMetrics, logger))
			stock.POST("/:warehouseCode/:itemCode/deactivate", deactivateStockHandler(stockService, stockMetrics, logger))
			stock.GET("/:warehouseCode/:itemCode/movements", listMovementsHandler(queryService, logger))
			stock.GET("/:warehouseCode/:itemCode/replay", replayMovementsHandler(queryService, logger))
		}

		items := v1.Group("/items")
		{
			items.POST("", createItemHandler(catalogService, logger))
			items.GET("", listItemsHandler(catalogService, logger))
			items.GET("/:itemCode", getItemHandler(catalogService, logger))
			items.PUT("/:itemCode", updateItemHandler(catalogService, logger))
			items.POST("/:itemCode/deactivate", deactivateItemHandler(catalogService, logger))
		}

		warehouses := v1.Group("/warehouses")
		{
			warehouses.POST("", createWarehouseHandler(catalogService, logger))
			warehouses.GET("", listWarehousesHandler(catalogService, logger))
			warehouses.GET("/:warehouseCode", getWarehouseHandler(catalogService, logger))
			warehouses.PUT("/:warehouseCode", updateWarehouseHandler(catalogService, logger))
			warehouses.POST("/:warehouseCode/deactivate", deactivateWarehouseHandler(catalogService, logger))
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "warehouse_stock"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// respondStockError maps a domain error to an API error, attaching the
// balances the failed operation saw so clients can act without a second
// read.
func respondStockError(responder *middleware.ErrorResponder, sm *middleware.StockMetrics, operation string, err error) {
	if errors.Is(err, domain.ErrConcurrentModification) {
		sm.RecordVersionConflict(operation)
	}

	var insufficient *domain.InsufficientAvailableError
	if errors.As(err, &insufficient) {
		appErr := apperrors.ErrInsufficientStock(insufficient.Error()).WithDetails(map[string]string{
			"itemCode":          insufficient.ItemCode,
			"warehouseCode":     insufficient.WarehouseCode,
			"requested":         insufficient.Requested.String(),
			"quantityAvailable": insufficient.Available.String(),
			"quantityOnHand":    insufficient.OnHand.String(),
			"quantityReserved":  insufficient.Reserved.String(),
		})
		responder.RespondWithAppError(appErr)
		return
	}

	var overRelease *domain.OverReleaseError
	if errors.As(err, &overRelease) {
		appErr := apperrors.ErrOverRelease(overRelease.Error()).WithDetails(map[string]string{
			"itemCode":         overRelease.ItemCode,
			"warehouseCode":    overRelease.WarehouseCode,
			"requested":        overRelease.Requested.String(),
			"quantityReserved": overRelease.Reserved.String(),
		})
		responder.RespondWithAppError(appErr)
		return
	}

	var mismatch *domain.ReservationMismatchError
	if errors.As(err, &mismatch) {
		appErr := apperrors.ErrReservationMismatch(mismatch.Error()).WithDetails(map[string]string{
			"itemCode":         mismatch.ItemCode,
			"warehouseCode":    mismatch.WarehouseCode,
			"requested":        mismatch.Requested.String(),
			"quantityReserved": mismatch.Reserved.String(),
		})
		responder.RespondWithAppError(appErr)
		return
	}

	var invariant *domain.InvariantViolationError
	if errors.As(err, &invariant) {
		appErr := apperrors.ErrInvariantViolation(invariant.Error()).WithDetails(map[string]string{
			"itemCode":         invariant.ItemCode,
			"warehouseCode":    invariant.WarehouseCode,
			"quantityOnHand":   invariant.OnHand.String(),
			"quantityReserved": invariant.Reserved.String(),
		})
		responder.RespondWithAppError(appErr)
		return
	}

	responder.RespondWithError(err)
}

func listStockHandler(service *application.StockQueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		page := api.ParsePagination(c)
		query := application.ListStockQuery{
			ItemCode:        c.Query("itemCode"),
			WarehouseCode:   c.Query("warehouseCode"),
			LowStockOnly:    c.Query("lowStock") == "true",
			IncludeInactive: c.Query("includeInactive") == "true",
			Limit:           int(page.GetLimit()),
			Offset:          int(page.GetOffset()),
		}

		records, total, err := service.ListStock(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(records, page.Page, page.PageSize, total))
	}
}

func getStockHandler(service *application.StockQueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.GetStockQuery{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
		}

		record, err := service.GetStock(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func receiveStockHandler(service *application.StockApplicationService, sm *middleware.StockMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Quantity  domain.Quantity `json:"quantity" binding:"required"`
			UnitCost  domain.Money    `json:"unitCost" binding:"required"`
			Actor     string          `json:"actor" binding:"required,actor"`
			Reference string          `json:"reference" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.ReceiveStockCommand{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
			Quantity:      req.Quantity,
			UnitCost:      req.UnitCost,
			Actor:         req.Actor,
			Reference:     req.Reference,
		}

		result, err := service.ReceiveStock(c.Request.Context(), cmd)
		if err != nil {
			respondStockError(responder, sm, "receive", err)
			return
		}

		sm.RecordMovement(cmd.WarehouseCode, string(domain.MovementReceipt))
		c.JSON(http.StatusOK, result)
	}
}

func reserveStockHandler(service *application.StockApplicationService, sm *middleware.StockMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Quantity  domain.Quantity `json:"quantity" binding:"required"`
			Actor     string          `json:"actor" binding:"required,actor"`
			Reference string          `json:"reference" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.ReserveStockCommand{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
			Quantity:      req.Quantity,
			Actor:         req.Actor,
			Reference:     req.Reference,
		}

		result, err := service.ReserveStock(c.Request.Context(), cmd)
		if err != nil {
			respondStockError(responder, sm, "reserve", err)
			return
		}

		sm.RecordMovement(cmd.WarehouseCode, string(domain.MovementReserve))
		c.JSON(http.StatusOK, result)
	}
}

func releaseStockHandler(service *application.StockApplicationService, sm *middleware.StockMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Quantity  domain.Quantity `json:"quantity" binding:"required"`
			Actor     string          `json:"actor" binding:"required,actor"`
			Reference string          `json:"reference" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.ReleaseReservationCommand{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
			Quantity:      req.Quantity,
			Actor:         req.Actor,
			Reference:     req.Reference,
		}

		result, err := service.ReleaseReservation(c.Request.Context(), cmd)
		if err != nil {
			respondStockError(responder, sm, "release", err)
			return
		}

		sm.RecordMovement(cmd.WarehouseCode, string(domain.MovementRelease))
		c.JSON(http.StatusOK, result)
	}
}

func issueStockHandler(service *application.StockApplicationService, sm *middleware.StockMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Quantity  domain.Quantity `json:"quantity" binding:"required"`
			Actor     string          `json:"actor" binding:"required,actor"`
			Reference string          `json:"reference" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.CommitIssueCommand{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
			Quantity:      req.Quantity,
			Actor:         req.Actor,
			Reference:     req.Reference,
		}

		result, err := service.CommitIssue(c.Request.Context(), cmd)
		if err != nil {
			respondStockError(responder, sm, "issue", err)
			return
		}

		sm.RecordMovement(cmd.WarehouseCode, string(domain.MovementIssue))
		c.JSON(http.StatusOK, result)
	}
}

func adjustStockHandler(service *application.StockApplicationService, sm *middleware.StockMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			NewOnHand domain.Quantity `json:"newOnHand" binding:"required"`
			Reason    string          `json:"reason" binding:"required,safe_string"`
			Actor     string          `json:"actor" binding:"required,actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.AdjustStockCommand{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
			NewOnHand:     req.NewOnHand,
			Reason:        req.Reason,
			Actor:         req.Actor,
		}

		result, err := service.AdjustStock(c.Request.Context(), cmd)
		if err != nil {
			respondStockError(responder, sm, "adjust", err)
			return
		}

		sm.RecordMovement(cmd.WarehouseCode, string(domain.MovementAdjustment))
		c.JSON(http.StatusOK, result)
	}
}

func transferStockHandler(service *application.StockApplicationService, sm *middleware.StockMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ItemCode      string          `json:"itemCode" binding:"required,item_code"`
			FromWarehouse string          `json:"fromWarehouse" binding:"required,warehouse_code"`
			ToWarehouse   string          `json:"toWarehouse" binding:"required,warehouse_code"`
			Quantity      domain.Quantity `json:"quantity" binding:"required"`
			Actor         string          `json:"actor" binding:"required,actor"`
			Reference     string          `json:"reference" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.TransferStockCommand{
			ItemCode:      req.ItemCode,
			FromWarehouse: req.FromWarehouse,
			ToWarehouse:   req.ToWarehouse,
			Quantity:      req.Quantity,
			Actor:         req.Actor,
			Reference:     req.Reference,
		}

		result, err := service.TransferStock(c.Request.Context(), cmd)
		if err != nil {
			respondStockError(responder, sm, "transfer", err)
			return
		}

		sm.RecordMovement(cmd.FromWarehouse, string(domain.MovementIssue))
		sm.RecordMovement(cmd.ToWarehouse, string(domain.MovementReceipt))
		c.JSON(http.StatusOK, result)
	}
}

func setStockLevelsHandler(service *application.StockApplicationService, sm *middleware.StockMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			MinLevel     domain.Quantity `json:"minLevel"`
			MaxLevel     domain.Quantity `json:"maxLevel"`
			ReorderPoint domain.Quantity `json:"reorderPoint"`
			Actor        string          `json:"actor" binding:"required,actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.SetStockLevelsCommand{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
			MinLevel:      req.MinLevel,
			MaxLevel:      req.MaxLevel,
			ReorderPoint:  req.ReorderPoint,
			Actor:         req.Actor,
		}

		record, err := service.SetStockLevels(c.Request.Context(), cmd)
		if err != nil {
			respondStockError(responder, sm, "set_levels", err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func deactivateStockHandler(service *application.StockApplicationService, sm *middleware.StockMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Actor string `json:"actor" binding:"required,actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.DeactivateStockCommand{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
			Actor:         req.Actor,
		}

		record, err := service.DeactivateStock(c.Request.Context(), cmd)
		if err != nil {
			respondStockError(responder, sm, "deactivate", err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func listMovementsHandler(service *application.StockQueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var params struct {
			Type string `form:"type" binding:"omitempty,movement_type"`
		}
		if appErr := middleware.BindQueryAndValidate(c, &params); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		page := api.ParsePagination(c)
		query := application.MovementHistoryQuery{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
			MovementType:  params.Type,
			Limit:         int(page.GetLimit()),
			Offset:        int(page.GetOffset()),
		}

		movements, total, err := service.GetMovementHistory(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(movements, page.Page, page.PageSize, total))
	}
}

func replayMovementsHandler(service *application.StockQueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.ReplayQuery{
			ItemCode:      c.Param("itemCode"),
			WarehouseCode: c.Param("warehouseCode"),
		}

		result, err := service.ReplayMovements(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func scanLowStockHandler(service *application.ReplenishmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		query := application.LowStockScanQuery{
			WarehouseCode: c.Query("warehouseCode"),
			Cursor:        c.Query("cursor"),
			Limit:         limit,
		}

		scan, err := service.ScanLowStock(c.Request.Context(), query)
		if err != nil {
			if errors.Is(err, application.ErrInvalidCursor) {
				responder.RespondBadRequest(err.Error())
				return
			}
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, scan)
	}
}

func createItemHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ItemCode            string       `json:"itemCode" binding:"required,item_code"`
			ItemName            string       `json:"itemName" binding:"required"`
			ItemType            string       `json:"itemType" binding:"required,item_type"`
			Description         string       `json:"description"`
			UsageType           string       `json:"usageType"`
			Category            string       `json:"category"`
			Brand               string       `json:"brand"`
			Model               string       `json:"model"`
			Unit                string       `json:"unit"`
			IsLoanable          bool         `json:"isLoanable"`
			RequiresReturn      bool         `json:"requiresReturn"`
			MaxLoanDurationDays int          `json:"maxLoanDurationDays"`
			StandardCost        domain.Money `json:"standardCost"`
			Actor               string       `json:"actor" binding:"required,actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.CreateItemCommand{
			Code:                req.ItemCode,
			Name:                req.ItemName,
			Type:                req.ItemType,
			Description:         req.Description,
			UsageType:           req.UsageType,
			Category:            req.Category,
			Brand:               req.Brand,
			Model:               req.Model,
			Unit:                req.Unit,
			IsLoanable:          req.IsLoanable,
			RequiresReturn:      req.RequiresReturn,
			MaxLoanDurationDays: req.MaxLoanDurationDays,
			StandardCost:        req.StandardCost,
			Actor:               req.Actor,
		}

		item, err := service.CreateItem(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, item)
	}
}

func listItemsHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		page := api.ParsePagination(c)
		query := application.ListItemsQuery{
			IncludeInactive: c.Query("includeInactive") == "true",
			Limit:           int(page.GetLimit()),
			Offset:          int(page.GetOffset()),
		}

		items, total, err := service.ListItems(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(items, page.Page, page.PageSize, total))
	}
}

func getItemHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		item, err := service.GetItem(c.Request.Context(), application.GetItemQuery{Code: c.Param("itemCode")})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

func updateItemHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ItemName            string       `json:"itemName" binding:"required"`
			Description         string       `json:"description"`
			UsageType           string       `json:"usageType"`
			Category            string       `json:"category"`
			Brand               string       `json:"brand"`
			Model               string       `json:"model"`
			Unit                string       `json:"unit"`
			IsLoanable          bool         `json:"isLoanable"`
			RequiresReturn      bool         `json:"requiresReturn"`
			MaxLoanDurationDays int          `json:"maxLoanDurationDays"`
			StandardCost        domain.Money `json:"standardCost"`
			Actor               string       `json:"actor" binding:"required,actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.UpdateItemCommand{
			Code:                c.Param("itemCode"),
			Name:                req.ItemName,
			Description:         req.Description,
			UsageType:           req.UsageType,
			Category:            req.Category,
			Brand:               req.Brand,
			Model:               req.Model,
			Unit:                req.Unit,
			IsLoanable:          req.IsLoanable,
			RequiresReturn:      req.RequiresReturn,
			MaxLoanDurationDays: req.MaxLoanDurationDays,
			StandardCost:        req.StandardCost,
			Actor:               req.Actor,
		}

		item, err := service.UpdateItem(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

func deactivateItemHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Actor string `json:"actor" binding:"required,actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.DeactivateItemCommand{
			Code:  c.Param("itemCode"),
			Actor: req.Actor,
		}

		item, err := service.DeactivateItem(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

func createWarehouseHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			WarehouseCode string `json:"warehouseCode" binding:"required,warehouse_code"`
			WarehouseName string `json:"warehouseName" binding:"required"`
			Description   string `json:"description"`
			Address       string `json:"address"`
			Actor         string `json:"actor" binding:"required,actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.CreateWarehouseCommand{
			Code:        req.WarehouseCode,
			Name:        req.WarehouseName,
			Description: req.Description,
			Address:     req.Address,
			Actor:       req.Actor,
		}

		warehouse, err := service.CreateWarehouse(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, warehouse)
	}
}

func listWarehousesHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		page := api.ParsePagination(c)
		query := application.ListWarehousesQuery{
			IncludeInactive: c.Query("includeInactive") == "true",
			Limit:           int(page.GetLimit()),
			Offset:          int(page.GetOffset()),
		}

		warehouses, total, err := service.ListWarehouses(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(warehouses, page.Page, page.PageSize, total))
	}
}

func getWarehouseHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		warehouse, err := service.GetWarehouse(c.Request.Context(), application.GetWarehouseQuery{Code: c.Param("warehouseCode")})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, warehouse)
	}
}

func updateWarehouseHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			WarehouseName string `json:"warehouseName" binding:"required"`
			Description   string `json:"description"`
			Address       string `json:"address"`
			Actor         string `json:"actor" binding:"required,actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.UpdateWarehouseCommand{
			Code:        c.Param("warehouseCode"),
			Name:        req.WarehouseName,
			Description: req.Description,
			Address:     req.Address,
			Actor:       req.Actor,
		}

		warehouse, err := service.UpdateWarehouse(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, warehouse)
	}
}

func deactivateWarehouseHandler(service *application.CatalogApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Actor string `json:"actor" binding:"required,actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.DeactivateWarehouseCommand{
			Code:  c.Param("warehouseCode"),
			Actor: req.Actor,
		}

		warehouse, err := service.DeactivateWarehouse(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, warehouse)
	}
}
