package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	customerserrors "spadesk/internal/customers/errors"
	"spadesk/pkg/config"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*model.Customer, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Customer, error)
	Search(ctx context.Context, term string, limit int) ([]*model.Customer, error)
	ListIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	UpdateProfile(ctx context.Context, id string, customer *model.Customer) error
	SaveStats(ctx context.Context, customer *model.Customer) error
	SaveAppointments(ctx context.Context, customer *model.Customer) error
	SetVIP(ctx context.Context, id string, grant model.VIPGrant) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoCustomerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoCustomerRepository(cfg *config.Config) CustomerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCustomerRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.CustomersCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoCustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	customer.CreatedAt = now
	customer.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, customer)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return customerserrors.ErrDuplicatePhone
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		customer.ID = oid.Hex()
	}
	return nil
}

func (r *mongoCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoCustomerRepository) FindByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *mongoCustomerRepository) findOne(ctx context.Context, filter bson.M) (*model.Customer, error) {
	var customer model.Customer
	err := r.collection.FindOne(ctx, filter).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return &customer, nil
}

func (r *mongoCustomerRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Customer, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, bson.M{}, opts)
}

// Search matches the term case-insensitively against name, phone and email.
func (r *mongoCustomerRepository) Search(ctx context.Context, term string, limit int) ([]*model.Customer, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	filter := bson.M{
		"$or": []bson.M{
			{"name": pattern},
			{"phone": pattern},
			{"email": pattern},
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit))

	return r.find(ctx, filter, opts)
}

func (r *mongoCustomerRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Customer, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find customers: %w", err)
	}
	defer cursor.Close(ctx)

	var customers []*model.Customer
	if err = cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("failed to decode customers: %w", err)
	}
	return customers, nil
}

func (r *mongoCustomerRepository) ListIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer ids: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode customer id: %w", err)
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cursor.Err()
}

func (r *mongoCustomerRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

func (r *mongoCustomerRepository) UpdateProfile(ctx context.Context, id string, customer *model.Customer) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"name":       customer.Name,
			"phone":      customer.Phone,
			"email":      customer.Email,
			"notes":      customer.Notes,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	})
}

// SaveStats writes the visit statistics of customer. Balance fields are
// owned by the ledger and never written here.
func (r *mongoCustomerRepository) SaveStats(ctx context.Context, customer *model.Customer) error {
	return r.updateByID(ctx, customer.ID, bson.M{
		"$set": bson.M{
			"total_visits":       customer.TotalVisits,
			"total_spent":        customer.TotalSpent,
			"last_visit_at":      customer.LastVisitAt,
			"current_year_stats": customer.CurrentYearStats,
			"recent_visits":      customer.RecentVisits,
			"vip_eligible":       customer.VIPEligible,
			"vip_eligible_at":    customer.VIPEligibleAt,
			"updated_at":         time.Now().UTC().Truncate(time.Millisecond),
		},
	})
}

// SaveAppointments replaces the recent appointment history of customer.
func (r *mongoCustomerRepository) SaveAppointments(ctx context.Context, customer *model.Customer) error {
	return r.updateByID(ctx, customer.ID, bson.M{
		"$set": bson.M{
			"recent_appointments": customer.RecentAppointments,
			"updated_at":          time.Now().UTC().Truncate(time.Millisecond),
		},
	})
}

func (r *mongoCustomerRepository) SetVIP(ctx context.Context, id string, grant model.VIPGrant) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"membership_level": model.MembershipVIP,
			"vip_approved":     true,
			"vip_approved_at":  now,
			"vip_approved_by":  grant.ApprovedBy,
			"vip_start_date":   grant.StartDate,
			"vip_end_date":     grant.EndDate,
			"updated_at":       now,
		},
	})
}

func (r *mongoCustomerRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return customerserrors.ErrDuplicatePhone
		}
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if result.MatchedCount == 0 {
		return customerserrors.ErrNotFound
	}
	return nil
}

func (r *mongoCustomerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if result.DeletedCount == 0 {
		return customerserrors.ErrNotFound
	}
	return nil
}

func (r *mongoCustomerRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
