package repository

import (
	"context"
	"errors"
	"fmt"
	ledgererrors "spadesk/internal/ledger/errors"
	"spadesk/pkg/config"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Totals are the ledger sums a customer's balance must agree with.
type Totals struct {
	Credits   int64
	Debits    int64
	VIPDebits int64
}

type LedgerRepository interface {
	Deposit(ctx context.Context, customerID string, amount int64) (before, after int64, err error)
	Credit(ctx context.Context, customerID string, amount int64) (before, after int64, err error)
	Debit(ctx context.Context, customerID string, amount int64) (before, after int64, err error)
	Balance(ctx context.Context, customerID string) (int64, error)

	InsertDeposit(ctx context.Context, record *model.DepositRecord) error
	FindDepositByID(ctx context.Context, id string) (*model.DepositRecord, error)
	VerifyDeposit(ctx context.Context, id string, operator string, at time.Time) error
	ListDeposits(ctx context.Context, customerID string) ([]*model.DepositRecord, error)

	InsertUsage(ctx context.Context, record *model.BalanceUsageRecord) error
	ReverseUsage(ctx context.Context, customerID, visitID string, at time.Time) (int64, error)
	ListUsage(ctx context.Context, customerID string) ([]*model.BalanceUsageRecord, error)

	InsertVIPPurchase(ctx context.Context, purchase *model.VIPPurchase) error
	ListVIPPurchases(ctx context.Context, customerID string) ([]*model.VIPPurchase, error)

	Totals(ctx context.Context, customerID string) (*Totals, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoLedgerRepository struct {
	cfg       *config.Config
	customers *mongo.Collection
	deposits  *mongo.Collection
	usage     *mongo.Collection
	vip       *mongo.Collection
	txManager mongotx.TransactionManager
}

func NewMongoLedgerRepository(cfg *config.Config) LedgerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLedgerRepository{
		cfg:       cfg,
		customers: db.Collection(mongotx.CustomersCollection),
		deposits:  db.Collection(mongotx.DepositsCollection),
		usage:     db.Collection(mongotx.UsageCollection),
		vip:       db.Collection(mongotx.VIPPurchasesCollection),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

type balanceDoc struct {
	Balance int64 `bson:"balance"`
}

func (r *mongoLedgerRepository) Deposit(ctx context.Context, customerID string, amount int64) (int64, int64, error) {
	return r.incBalance(ctx, customerID, nil, bson.M{
		"balance":       amount,
		"total_deposit": amount,
		"deposit_count": 1,
	}, amount)
}

func (r *mongoLedgerRepository) Credit(ctx context.Context, customerID string, amount int64) (int64, int64, error) {
	return r.incBalance(ctx, customerID, nil, bson.M{"balance": amount}, amount)
}

// Debit decrements the balance only if it covers amount. The check and the
// write are one document update, so concurrent debits cannot overdraw.
func (r *mongoLedgerRepository) Debit(ctx context.Context, customerID string, amount int64) (int64, int64, error) {
	before, after, err := r.incBalance(ctx, customerID, bson.M{"$gte": amount}, bson.M{"balance": -amount}, -amount)
	if errors.Is(err, ledgererrors.ErrInsufficientBalance) {
		current, balErr := r.Balance(ctx, customerID)
		if balErr != nil {
			return 0, 0, balErr
		}
		return 0, 0, &ledgererrors.InsufficientBalanceError{Current: current, Required: amount}
	}
	return before, after, err
}

func (r *mongoLedgerRepository) incBalance(ctx context.Context, customerID string, balanceCond bson.M, inc bson.M, delta int64) (int64, int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", ledgererrors.ErrInvalidID, customerID)
	}

	filter := bson.M{"_id": objectID}
	if balanceCond != nil {
		filter["balance"] = balanceCond
	}
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"balance": 1})

	var doc balanceDoc
	err = r.customers.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if balanceCond == nil {
				return 0, 0, ledgererrors.ErrCustomerNotFound
			}
			if _, findErr := r.Balance(ctx, customerID); findErr != nil {
				return 0, 0, findErr
			}
			return 0, 0, ledgererrors.ErrInsufficientBalance
		}
		return 0, 0, fmt.Errorf("failed to update balance: %w", err)
	}

	return doc.Balance - delta, doc.Balance, nil
}

func (r *mongoLedgerRepository) Balance(ctx context.Context, customerID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ledgererrors.ErrInvalidID, customerID)
	}

	var doc balanceDoc
	opts := options.FindOne().SetProjection(bson.M{"balance": 1})
	if err := r.customers.FindOne(ctx, bson.M{"_id": objectID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ledgererrors.ErrCustomerNotFound
		}
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return doc.Balance, nil
}

func (r *mongoLedgerRepository) InsertDeposit(ctx context.Context, record *model.DepositRecord) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	record.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.deposits.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert deposit record: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLedgerRepository) FindDepositByID(ctx context.Context, id string) (*model.DepositRecord, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ledgererrors.ErrInvalidID, id)
	}

	var record model.DepositRecord
	if err := r.deposits.FindOne(ctx, bson.M{"_id": objectID}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledgererrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find deposit record: %w", err)
	}
	return &record, nil
}

// VerifyDeposit is the only mutation a deposit record accepts after insert.
func (r *mongoLedgerRepository) VerifyDeposit(ctx context.Context, id string, operator string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ledgererrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "signature_verified": false}
	update := bson.M{"$set": bson.M{
		"signature_verified":    true,
		"signature_verified_at": at,
		"signature_verified_by": operator,
	}}

	result, err := r.deposits.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to verify deposit record: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.FindDepositByID(ctx, id); err != nil {
			return err
		}
		return ledgererrors.ErrAlreadyVerified
	}
	return nil
}

func (r *mongoLedgerRepository) ListDeposits(ctx context.Context, customerID string) ([]*model.DepositRecord, error) {
	var records []*model.DepositRecord
	if err := r.listByCustomer(ctx, r.deposits, customerID, &records); err != nil {
		return nil, fmt.Errorf("failed to list deposit records: %w", err)
	}
	return records, nil
}

func (r *mongoLedgerRepository) InsertUsage(ctx context.Context, record *model.BalanceUsageRecord) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	record.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.usage.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLedgerRepository) ReverseUsage(ctx context.Context, customerID, visitID string, at time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"customer_id": customerID, "visit_id": visitID, "reversed": false}
	update := bson.M{"$set": bson.M{"reversed": true, "reversed_at": at}}

	result, err := r.usage.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to reverse usage records: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoLedgerRepository) ListUsage(ctx context.Context, customerID string) ([]*model.BalanceUsageRecord, error) {
	var records []*model.BalanceUsageRecord
	if err := r.listByCustomer(ctx, r.usage, customerID, &records); err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	return records, nil
}

func (r *mongoLedgerRepository) InsertVIPPurchase(ctx context.Context, purchase *model.VIPPurchase) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	purchase.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.vip.InsertOne(ctx, purchase)
	if err != nil {
		return fmt.Errorf("failed to insert vip purchase: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		purchase.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLedgerRepository) ListVIPPurchases(ctx context.Context, customerID string) ([]*model.VIPPurchase, error) {
	var purchases []*model.VIPPurchase
	if err := r.listByCustomer(ctx, r.vip, customerID, &purchases); err != nil {
		return nil, fmt.Errorf("failed to list vip purchases: %w", err)
	}
	return purchases, nil
}

func (r *mongoLedgerRepository) listByCustomer(ctx context.Context, coll *mongo.Collection, customerID string, out any) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := coll.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}

func (r *mongoLedgerRepository) Totals(ctx context.Context, customerID string) (*Totals, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	credits, err := r.sum(ctx, r.deposits, bson.M{"customer_id": customerID}, "$total_amount")
	if err != nil {
		return nil, fmt.Errorf("failed to sum deposits: %w", err)
	}
	debits, err := r.sum(ctx, r.usage, bson.M{"customer_id": customerID, "reversed": false}, "$amount")
	if err != nil {
		return nil, fmt.Errorf("failed to sum usage: %w", err)
	}
	vipDebits, err := r.sum(ctx, r.vip, bson.M{"customer_id": customerID, "payment_method": model.PaymentDeposit}, "$amount")
	if err != nil {
		return nil, fmt.Errorf("failed to sum vip purchases: %w", err)
	}

	return &Totals{Credits: credits, Debits: debits, VIPDebits: vipDebits}, nil
}

func (r *mongoLedgerRepository) sum(ctx context.Context, coll *mongo.Collection, match bson.M, field string) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": field}}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *mongoLedgerRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
