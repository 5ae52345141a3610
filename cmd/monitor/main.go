package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lsf-services/warehouse-system/internal/application"
	"github.com/lsf-services/warehouse-system/internal/domain"
	"github.com/lsf-services/warehouse-system/internal/infrastructure/messaging"
	mongoRepo "github.com/lsf-services/warehouse-system/internal/infrastructure/mongodb"
	"github.com/lsf-services/warehouse-system/pkg/cloudevents"
	"github.com/lsf-services/warehouse-system/pkg/kafka"
	"github.com/lsf-services/warehouse-system/pkg/logging"
	"github.com/lsf-services/warehouse-system/pkg/mongodb"
)

// Low stock monitoring tool for the stock ledger.
// Scans for records whose available quantity sits at or below their reorder
// point and optionally publishes a low stock alert event per row.

var (
	mongoURI  = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName    = flag.String("db", "warehouse_stock", "Database name")
	brokers   = flag.String("kafka-brokers", "localhost:9092", "Comma-separated Kafka broker list")
	warehouse = flag.String("warehouse", "", "Restrict the scan to one warehouse code")
	interval  = flag.Duration("interval", 0, "Rescan interval; 0 runs a single scan and exits")
	publish   = flag.Bool("publish", false, "Publish a low stock alert event per row")
	limit     = flag.Int("limit", 50, "Maximum number of rows to display")
)

func main() {
	flag.Parse()

	log.Printf("Starting low stock monitoring...")
	log.Printf("MongoDB URI: %s", *mongoURI)
	log.Printf("Database: %s", *dbName)
	if *warehouse != "" {
		log.Printf("Warehouse: %s", *warehouse)
	}
	if *publish {
		log.Printf("Kafka brokers: %s", *brokers)
	}

	logger := logging.New(logging.DefaultConfig("stock-monitor"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongodb.NewProductionClient(ctx, &mongodb.Config{
		URI:            *mongoURI,
		Database:       *dbName,
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    10,
		MinPoolSize:    1,
	}, nil, logger)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Close(context.Background())

	if err := client.HealthCheck(ctx); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB successfully")

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceStockMonitor)
	stockRepo, err := mongoRepo.NewStockRecordRepository(client, eventFactory)
	if err != nil {
		log.Fatalf("Failed to initialize stock repository: %v", err)
	}

	var publisher domain.EventPublisher
	var producer *kafka.Producer
	if *publish {
		producer = kafka.NewProducer(&kafka.Config{
			Brokers:      strings.Split(*brokers, ","),
			ClientID:     "stock-monitor",
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		})
		defer producer.Close()
		publisher = messaging.NewKafkaEventPublisher(producer, eventFactory)
	}

	service := application.NewReplenishmentService(stockRepo, publisher, logger)

	if *interval <= 0 {
		if err := runScan(context.Background(), service); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		return
	}

	// Periodic mode: scan immediately, then on every tick until interrupted.
	if err := runScan(context.Background(), service); err != nil {
		log.Printf("WARNING: Scan failed: %v", err)
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := runScan(context.Background(), service); err != nil {
				log.Printf("WARNING: Scan failed: %v", err)
			}
		case <-quit:
			log.Println("Shutting down monitor")
			return
		}
	}
}

func runScan(ctx context.Context, service *application.ReplenishmentService) error {
	page, err := service.ScanLowStock(ctx, application.LowStockScanQuery{
		WarehouseCode: *warehouse,
		Limit:         *limit,
	})
	if err != nil {
		return err
	}

	scope := "all warehouses"
	if *warehouse != "" {
		scope = *warehouse
	}
	fmt.Printf("\n=== Low stock scan: %s ===\n", scope)

	if len(page.Alerts) == 0 {
		fmt.Println("✅ No records at or below their reorder point")
		return nil
	}

	fmt.Printf("⚠️  Found %d records at or below their reorder point:\n\n", len(page.Alerts))
	fmt.Println("Warehouse   Item                  Available     Reorder Pt      Deficit  Status")
	fmt.Println("----------  --------------------  ------------  ------------  ---------  ----------")

	for _, alert := range page.Alerts {
		fmt.Printf("%-10s  %-20s  %12s  %12s  %9s  %s\n",
			alert.WarehouseCode,
			alert.ItemCode,
			alert.QuantityAvailable,
			alert.ReorderPoint,
			alert.Deficit,
			alertStatus(alert),
		)
	}
	if page.HasMore {
		fmt.Printf("\n(more rows follow; rerun with -limit above %d or page with the API)\n", *limit)
	}

	if *publish {
		count, err := service.PublishAlerts(ctx, *warehouse)
		if err != nil {
			return fmt.Errorf("failed to publish alerts: %w", err)
		}
		fmt.Printf("\nPublished %d low stock alert events\n", count)
	}

	return nil
}

// alertStatus grades a row by how far available has fallen: nothing left to
// promise is urgent, at or under half the reorder point is a warning.
func alertStatus(alert application.StockAlertDTO) string {
	if !alert.QuantityAvailable.IsPositive() {
		return "🔴 OUT"
	}
	half := alert.ReorderPoint.Decimal().Div(decimal.NewFromInt(2))
	if alert.QuantityAvailable.Decimal().LessThanOrEqual(half) {
		return "🟠 URGENT"
	}
	return "🟡 LOW"
}
