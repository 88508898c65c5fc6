package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	visitserrors "spadesk/internal/visits/errors"
	"spadesk/pkg/config"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Filter narrows a visit search. Zero fields are ignored.
type Filter struct {
	Start *time.Time
	End   *time.Time
	Term  string
	Limit int
}

type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	FindByID(ctx context.Context, id string) (*model.Visit, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Visit, error)
	FindByCustomer(ctx context.Context, customerID string) ([]*model.Visit, error)
	Search(ctx context.Context, filter Filter) ([]*model.Visit, error)
	Count(ctx context.Context) (int64, error)
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
	Summarize(ctx context.Context, start, end *time.Time) ([]model.PaymentSummary, error)
	Update(ctx context.Context, visit *model.Visit) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoVisitRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoVisitRepository(cfg *config.Config) VisitRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVisitRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.VisitsCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoVisitRepository) Create(ctx context.Context, visit *model.Visit) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	visit.CreatedAt = now
	visit.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, visit)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		visit.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVisitRepository) FindByID(ctx context.Context, id string) (*model.Visit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}

	var visit model.Visit
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&visit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, visitserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find visit: %w", err)
	}
	return &visit, nil
}

func (r *mongoVisitRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Visit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "visit_date", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoVisitRepository) FindByCustomer(ctx context.Context, customerID string) ([]*model.Visit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "visit_date", Value: -1}})
	return r.find(ctx, bson.M{"customer_id": customerID}, opts)
}

// Search matches visits in the date range whose customer name, service name
// or notes contain the term, newest first.
func (r *mongoVisitRepository) Search(ctx context.Context, filter Filter) ([]*model.Visit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := dateRange(filter.Start, filter.End)
	if filter.Term != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Term), Options: "i"}
		query["$or"] = []bson.M{
			{"customer_name": pattern},
			{"service_name": pattern},
			{"notes": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "visit_date", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return r.find(ctx, query, opts)
}

func (r *mongoVisitRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Visit, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find visits: %w", err)
	}
	defer cursor.Close(ctx)

	var visits []*model.Visit
	if err := cursor.All(ctx, &visits); err != nil {
		return nil, fmt.Errorf("failed to decode visits: %w", err)
	}
	return visits, nil
}

func (r *mongoVisitRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

func (r *mongoVisitRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count customer visits: %w", err)
	}
	return count, nil
}

// Summarize groups the visits of the range by payment method. Revenue is the
// charge of each visit, add-on included.
func (r *mongoVisitRepository) Summarize(ctx context.Context, start, end *time.Time) ([]model.PaymentSummary, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: dateRange(start, end)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$payment_method"},
			{Key: "visits", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$add", Value: bson.A{"$final_price", bson.D{{Key: "$ifNull", Value: bson.A{"$additional_service_price", 0}}}}},
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize visits: %w", err)
	}
	defer cursor.Close(ctx)

	var summaries []model.PaymentSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode visit summary: %w", err)
	}
	return summaries, nil
}

// Update rewrites the editable fields and the price of a visit.
func (r *mongoVisitRepository) Update(ctx context.Context, visit *model.Visit) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(visit.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, visit.ID)
	}

	visit.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{"$set": bson.M{
		"visit_date":     visit.VisitDate,
		"duration":       visit.Duration,
		"final_price":    visit.FinalPrice,
		"discount":       visit.Discount,
		"payment_method": visit.PaymentMethod,
		"payment_status": visit.PaymentStatus,
		"notes":          visit.Notes,
		"operator":       visit.Operator,
		"updated_at":     visit.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	if result.MatchedCount == 0 {
		return visitserrors.ErrNotFound
	}
	return nil
}

func (r *mongoVisitRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	if result.DeletedCount == 0 {
		return visitserrors.ErrNotFound
	}
	return nil
}

func (r *mongoVisitRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func dateRange(start, end *time.Time) bson.M {
	filter := bson.M{}
	bounds := bson.M{}
	if start != nil {
		bounds["$gte"] = *start
	}
	if end != nil {
		bounds["$lte"] = *end
	}
	if len(bounds) > 0 {
		filter["visit_date"] = bounds
	}
	return filter
}
