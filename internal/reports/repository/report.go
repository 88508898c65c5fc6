package repository

import (
	"context"
	"fmt"
	"time"

	"spadesk/pkg/config"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepository reads the collections reports are computed from. It never
// writes.
type ReportRepository interface {
	VisitsBetween(ctx context.Context, start, end time.Time) ([]*model.Visit, error)
	BookingsBetween(ctx context.Context, start, end time.Time) ([]*model.Booking, error)
	Customers(ctx context.Context) ([]*model.Customer, error)
}

type mongoReportRepository struct {
	cfg       *config.Config
	visits    *mongo.Collection
	bookings  *mongo.Collection
	customers *mongo.Collection
}

func NewMongoReportRepository(cfg *config.Config) ReportRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReportRepository{
		cfg:       cfg,
		visits:    db.Collection(mongotx.VisitsCollection),
		bookings:  db.Collection(mongotx.BookingsCollection),
		customers: db.Collection(mongotx.CustomersCollection),
	}
}

func (r *mongoReportRepository) VisitsBetween(ctx context.Context, start, end time.Time) ([]*model.Visit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"visit_date": bson.M{"$gte": start.UTC(), "$lte": end.UTC()}}
	opts := options.Find().
		SetSort(bson.D{{Key: "visit_date", Value: 1}}).
		SetProjection(bson.M{
			"customer_id": 1, "customer_name": 1, "service_name": 1, "visit_date": 1,
			"final_price": 1, "additional_service_price": 1, "payment_method": 1,
		})

	var visits []*model.Visit
	if err := findAll(ctx, r.visits, filter, opts, &visits); err != nil {
		return nil, fmt.Errorf("failed to load visits for report: %w", err)
	}
	return visits, nil
}

func (r *mongoReportRepository) BookingsBetween(ctx context.Context, start, end time.Time) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"booking_date": bson.M{"$gte": start.UTC(), "$lte": end.UTC()}}
	opts := options.Find().SetProjection(bson.M{"service_name": 1, "booking_date": 1})

	var bookings []*model.Booking
	if err := findAll(ctx, r.bookings, filter, opts, &bookings); err != nil {
		return nil, fmt.Errorf("failed to load bookings for report: %w", err)
	}
	return bookings, nil
}

func (r *mongoReportRepository) Customers(ctx context.Context) ([]*model.Customer, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{
		"name": 1, "phone": 1, "email": 1, "membership_level": 1, "balance": 1,
		"vip_eligible": 1, "vip_approved": 1, "vip_end_date": 1,
	})

	var customers []*model.Customer
	if err := findAll(ctx, r.customers, bson.M{}, opts, &customers); err != nil {
		return nil, fmt.Errorf("failed to load customers for report: %w", err)
	}
	return customers, nil
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions, out any) error {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
