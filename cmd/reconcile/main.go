package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lsf-services/warehouse-system/internal/domain"
	mongoRepo "github.com/lsf-services/warehouse-system/internal/infrastructure/mongodb"
	"github.com/lsf-services/warehouse-system/pkg/mongodb"
)

// Reconciliation tool for the stock ledger.
// Replays the movement history of every stock record and compares the
// reconstructed balances with the live document. Drifted records point at
// writes that bypassed the ledger; with -dry-run=false they are reset to
// the replayed balances.

var (
	mongoURI  = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName    = flag.String("db", "warehouse_stock", "Database name")
	warehouse = flag.String("warehouse", "", "Restrict reconciliation to one warehouse code")
	dryRun    = flag.Bool("dry-run", true, "Dry run mode (no actual writes)")
	batchSize = flag.Int("batch-size", 100, "Batch size for processing")
)

func main() {
	flag.Parse()

	log.Printf("Starting stock reconciliation...")
	log.Printf("MongoDB URI: %s", *mongoURI)
	log.Printf("Database: %s", *dbName)
	if *warehouse != "" {
		log.Printf("Warehouse: %s", *warehouse)
	}
	log.Printf("Dry Run: %v", *dryRun)
	log.Printf("Batch Size: %d", *batchSize)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongodb.NewProductionClient(ctx, &mongodb.Config{
		URI:            *mongoURI,
		Database:       *dbName,
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    10,
		MinPoolSize:    1,
	}, nil, nil)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Close(context.Background())

	if err := client.HealthCheck(ctx); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB successfully")

	if err := reconcileStock(context.Background(), client); err != nil {
		log.Fatalf("Reconciliation failed: %v", err)
	}
}

func reconcileStock(ctx context.Context, client *mongodb.CircuitBreakerClient) error {
	records := client.Collection("stock_records")
	movementRepo := mongoRepo.NewMovementRepository(client)

	var (
		totalRecords    int64
		inSyncRecords   int64
		driftedRecords  int64
		repairedRecords int64
		skippedRecords  int64
	)

	filter := bson.M{}
	if *warehouse != "" {
		filter["warehouse_code"] = *warehouse
	}

	count, err := records.CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to count stock records: %w", err)
	}
	log.Printf("Found %d stock records to reconcile", count)

	opts := options.Find().SetBatchSize(int32(*batchSize))
	cursor, err := records.Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("failed to query stock records: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var record domain.StockRecord
		if err := cursor.Decode(&record); err != nil {
			log.Printf("WARNING: Failed to decode stock record: %v", err)
			continue
		}

		totalRecords++

		entries, err := movementRepo.FindAllByKey(ctx, record.ItemCode, record.WarehouseCode)
		if err != nil {
			log.Printf("WARNING: Failed to load movements for %s/%s: %v",
				record.WarehouseCode, record.ItemCode, err)
			continue
		}

		replayed := domain.ReplayMovements(record.ItemCode, record.WarehouseCode, entries)
		inSync := replayed.OnHand.Equal(record.QuantityOnHand) &&
			replayed.Reserved.Equal(record.QuantityReserved) &&
			replayed.AverageCost.Equal(record.AverageCost)

		if inSync {
			inSyncRecords++
		} else {
			driftedRecords++
			fmt.Printf("DRIFT %s/%s (%d movements)\n", record.WarehouseCode, record.ItemCode, replayed.EntryCount)
			fmt.Printf("  on hand:      live=%-12s replayed=%s\n", record.QuantityOnHand, replayed.OnHand)
			fmt.Printf("  reserved:     live=%-12s replayed=%s\n", record.QuantityReserved, replayed.Reserved)
			fmt.Printf("  average cost: live=%-12s replayed=%s\n", record.AverageCost, replayed.AverageCost)

			if !*dryRun {
				repaired, err := repairRecord(ctx, records, &record, &replayed)
				if err != nil {
					log.Printf("WARNING: Failed to repair %s/%s: %v",
						record.WarehouseCode, record.ItemCode, err)
				} else if repaired {
					repairedRecords++
				} else {
					// The record changed under us; the next run will see
					// the new version.
					skippedRecords++
					log.Printf("WARNING: Skipped %s/%s: concurrent update",
						record.WarehouseCode, record.ItemCode)
				}
			}
		}

		if totalRecords%100 == 0 {
			log.Printf("Processed %d/%d records...", totalRecords, count)
		}
	}

	if err := cursor.Err(); err != nil {
		return fmt.Errorf("cursor error: %w", err)
	}

	fmt.Println("\n=== Reconciliation Summary ===")
	fmt.Printf("Total Records Processed: %d\n", totalRecords)
	fmt.Printf("  In sync:  %d\n", inSyncRecords)
	fmt.Printf("  Drifted:  %d\n", driftedRecords)
	if !*dryRun {
		fmt.Printf("  Repaired: %d\n", repairedRecords)
		fmt.Printf("  Skipped:  %d\n", skippedRecords)
	}

	if *dryRun {
		if driftedRecords > 0 {
			fmt.Println("\n⚠️  DRY RUN MODE - No actual changes were made")
			fmt.Println("Run with -dry-run=false to reset drifted records to their replayed balances")
		} else {
			fmt.Println("\n✅ Ledger and live records agree")
		}
	} else {
		fmt.Println("\n✅ Reconciliation completed successfully!")
	}

	return nil
}

// repairRecord resets the live balances to the replayed ones. The version
// filter keeps the reset from clobbering a write that landed after this
// record was read; in that case nothing is written and the caller retries
// on the next run.
func repairRecord(ctx context.Context, records *mongodb.CircuitBreakerCollection, record *domain.StockRecord, replayed *domain.ReplayResult) (bool, error) {
	filter := bson.M{
		"item_code":      record.ItemCode,
		"warehouse_code": record.WarehouseCode,
		"version":        record.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"quantity_on_hand":  replayed.OnHand,
			"quantity_reserved": replayed.Reserved,
			"average_cost":      replayed.AverageCost,
			"updated_at":        time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := records.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}
