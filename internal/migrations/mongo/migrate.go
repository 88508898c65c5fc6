package mongo

import (
	"context"
	"fmt"

	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spadesk/internal/migrations/mongo/validators"
)

var (
	CustomersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	ServicesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "order", Value: 1}, {Key: "code", Value: 1}}},
	}

	VisitsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "visit_date", Value: -1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "visit_date", Value: -1}}},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_date", Value: 1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "booking_date", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "booking_date", Value: 1}}},
	}

	DepositsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "receipt_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	UsageIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "visit_id", Value: 1}, {Key: "reversed", Value: 1}}},
	}

	VIPPurchasesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections maps every collection the back office owns to its schema and
// indexes.
var Collections = map[string]collectionDef{
	mongotx.CustomersCollection:    {Indexes: CustomersIndexes, Validator: validators.CustomerValidator},
	mongotx.ServicesCollection:     {Indexes: ServicesIndexes, Validator: validators.ServiceValidator},
	mongotx.VisitsCollection:       {Indexes: VisitsIndexes, Validator: validators.VisitValidator},
	mongotx.BookingsCollection:     {Indexes: BookingsIndexes, Validator: validators.BookingValidator},
	mongotx.DepositsCollection:     {Indexes: DepositsIndexes, Validator: validators.DepositValidator},
	mongotx.UsageCollection:        {Indexes: UsageIndexes, Validator: validators.UsageValidator},
	mongotx.VIPPurchasesCollection: {Indexes: VIPPurchasesIndexes, Validator: validators.VIPPurchaseValidator},
}

// RunMigration creates missing collections, refreshes their validators and
// ensures indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("running mongo migrations", "database", dbName, "collections", len(Collections))

	for name, def := range Collections {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("all migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	created, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("ensured indexes", "collection", name, "indexes", len(created))
	return nil
}
