package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "spadesk/internal/bookings/errors"
	"spadesk/pkg/config"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	FindByDateRange(ctx context.Context, start, end time.Time) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	UpdateUnpaid(ctx context.Context, id string, booking *model.Booking) error
	UpdateStatus(ctx context.Context, id string, from, to string) error
	MarkPaid(ctx context.Context, id string, method string, at time.Time) error
	AttachVisit(ctx context.Context, id string, visitID string) error
	DeleteUnpaid(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.BookingsCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "booking_date", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, bson.M{}, opts)
}

// FindByDateRange returns bookings whose date falls in [start, end], earliest
// first.
func (r *mongoBookingRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"booking_date": bson.M{"$gte": start, "$lte": end}}
	opts := options.Find().SetSort(bson.D{{Key: "booking_date", Value: 1}})

	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// UpdateUnpaid rewrites the editable fields and the price snapshot of an
// unpaid booking.
func (r *mongoBookingRepository) UpdateUnpaid(ctx context.Context, id string, booking *model.Booking) error {
	update := bson.M{"$set": bson.M{
		"service_id":               booking.ServiceID,
		"service_name":             booking.ServiceName,
		"booking_date":             booking.BookingDate,
		"duration":                 booking.Duration,
		"membership_type":          booking.MembershipType,
		"use_self_oil":             booking.UseSelfOil,
		"extra_oil_fee":            booking.ExtraOilFee,
		"original_price":           booking.OriginalPrice,
		"price":                    booking.Price,
		"additional_service_id":    booking.AdditionalServiceID,
		"additional_service":       booking.AdditionalService,
		"additional_service_price": booking.AdditionalServicePrice,
		"total_price":              booking.TotalPrice,
		"notes":                    booking.Notes,
		"updated_at":               time.Now().UTC().Truncate(time.Millisecond),
	}}
	return r.conditionalUpdate(ctx, id, bson.M{"payment_status": model.PaymentStatusUnpaid}, update, bookingserrors.ErrPaid)
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from, to string) error {
	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}
	return r.conditionalUpdate(ctx, id, bson.M{"status": from}, update, bookingserrors.ErrStatusChanged)
}

func (r *mongoBookingRepository) MarkPaid(ctx context.Context, id string, method string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"payment_status": model.PaymentStatusPaid,
		"payment_method": method,
		"paid_at":        at,
		"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
	}}
	return r.conditionalUpdate(ctx, id, bson.M{"payment_status": model.PaymentStatusUnpaid}, update, bookingserrors.ErrPaid)
}

// AttachVisit links the visit spawned from a paid booking. A booking spawns
// at most one visit.
func (r *mongoBookingRepository) AttachVisit(ctx context.Context, id string, visitID string) error {
	cond := bson.M{
		"payment_status": model.PaymentStatusPaid,
		"$or": []bson.M{
			{"visit_id": bson.M{"$exists": false}},
			{"visit_id": ""},
		},
	}
	update := bson.M{"$set": bson.M{
		"visit_id":   visitID,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}
	return r.conditionalUpdate(ctx, id, cond, update, bookingserrors.ErrVisitAlreadySpawned)
}

// conditionalUpdate applies update when the booking matches cond. A booking
// that exists but fails cond yields condErr.
func (r *mongoBookingRepository) conditionalUpdate(ctx context.Context, id string, cond bson.M, update bson.M, condErr error) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	for k, v := range cond {
		filter[k] = v
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, objectID, condErr)
	}
	return nil
}

func (r *mongoBookingRepository) missOrConflict(ctx context.Context, objectID primitive.ObjectID, condErr error) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to check booking: %w", err)
	}
	if count == 0 {
		return bookingserrors.ErrNotFound
	}
	return condErr
}

func (r *mongoBookingRepository) DeleteUnpaid(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "payment_status": model.PaymentStatusUnpaid})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return r.missOrConflict(ctx, objectID, bookingserrors.ErrPaid)
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
