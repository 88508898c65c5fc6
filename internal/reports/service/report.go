package service

import (
	"context"
	"fmt"
	"time"

	"spadesk/internal/reports/repository"
	"spadesk/pkg/config"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/locale"
	"spadesk/pkg/model"

	"golang.org/x/sync/errgroup"
)

const maxRankingLimit = 100

type ReportService interface {
	Revenue(ctx context.Context, start, end time.Time) (*model.RevenueReport, error)
	Ranking(ctx context.Context, start, end time.Time, limit int) ([]model.CustomerRank, error)
	Services(ctx context.Context, start, end time.Time) ([]model.ServicePopularity, error)
	Membership(ctx context.Context) (*model.MembershipDistribution, error)
	Full(ctx context.Context, start, end time.Time, limit int) (*model.FullReport, error)
	Export(ctx context.Context, reportType string, start, end time.Time) (*Export, error)
}

// Export is a rendered CSV report.
type Export struct {
	Filename string
	Data     []byte
}

type reportService struct {
	repo repository.ReportRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewReportService(repo repository.ReportRepository, cfg *config.Config) ReportService {
	return &reportService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *reportService) Revenue(ctx context.Context, start, end time.Time) (*model.RevenueReport, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	visits, err := s.repo.VisitsBetween(ctx, start, end)
	if err != nil {
		return nil, s.loadError("visits", err)
	}
	return Revenue(visits, start, end, s.cfg.Location), nil
}

func (s *reportService) Ranking(ctx context.Context, start, end time.Time, limit int) ([]model.CustomerRank, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = model.DefaultRankingLimit
	}
	if limit > maxRankingLimit {
		limit = maxRankingLimit
	}

	var visits []*model.Visit
	var customers []*model.Customer
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if visits, err = s.repo.VisitsBetween(gctx, start, end); err != nil {
			return s.loadError("visits", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if customers, err = s.repo.Customers(gctx); err != nil {
			return s.loadError("customers", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Ranking(visits, customers, limit), nil
}

func (s *reportService) Services(ctx context.Context, start, end time.Time) ([]model.ServicePopularity, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	var visits []*model.Visit
	var bookings []*model.Booking
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if visits, err = s.repo.VisitsBetween(gctx, start, end); err != nil {
			return s.loadError("visits", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if bookings, err = s.repo.BookingsBetween(gctx, start, end); err != nil {
			return s.loadError("bookings", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Popularity(visits, bookings), nil
}

func (s *reportService) Membership(ctx context.Context) (*model.MembershipDistribution, error) {
	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return nil, s.loadError("customers", err)
	}
	return Membership(customers, s.now()), nil
}

// Full computes the four reports concurrently. The first failure cancels the
// others.
func (s *reportService) Full(ctx context.Context, start, end time.Time, limit int) (*model.FullReport, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	report := &model.FullReport{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.Revenue, err = s.Revenue(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		report.Ranking, err = s.Ranking(gctx, start, end, limit)
		return err
	})
	g.Go(func() error {
		var err error
		report.Services, err = s.Services(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		report.Membership, err = s.Membership(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.GeneratedAt = s.now().UTC().Truncate(time.Millisecond)
	s.cfg.Log.Info("Full report generated",
		"start", start,
		"end", end,
		"visits", report.Revenue.TotalVisits,
		"customers", report.Membership.TotalCustomers,
	)
	return report, nil
}

func (s *reportService) Export(ctx context.Context, reportType string, start, end time.Time) (*Export, error) {
	if !IsReportType(reportType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown report type %q", reportType))
	}

	report := &model.FullReport{}
	var err error
	switch reportType {
	case model.ReportRevenue:
		report.Revenue, err = s.Revenue(ctx, start, end)
	case model.ReportRanking:
		report.Ranking, err = s.Ranking(ctx, start, end, model.DefaultRankingLimit)
	case model.ReportServices:
		report.Services, err = s.Services(ctx, start, end)
	case model.ReportMembership:
		report.Membership, err = s.Membership(ctx)
	}
	if err != nil {
		return nil, err
	}

	data, err := EncodeCSV(reportType, report)
	if err != nil {
		s.cfg.Log.Error("Failed to encode report", "type", reportType, "error", err)
		return nil, apperrors.Internal("Failed to export report", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.csv", reportType,
		locale.DayKey(start, s.cfg.Location), locale.DayKey(end, s.cfg.Location))
	if reportType == model.ReportMembership {
		filename = fmt.Sprintf("%s_%s.csv", reportType, locale.DayKey(s.now(), s.cfg.Location))
	}

	s.cfg.Log.Info("Report exported", "type", reportType, "filename", filename, "bytes", len(data))
	return &Export{Filename: filename, Data: data}, nil
}

func (s *reportService) loadError(what string, err error) error {
	s.cfg.Log.Error("Failed to load report data", "collection", what, "error", err)
	return apperrors.Internal("Failed to load "+what+" for report", err)
}

func checkRange(start, end time.Time) error {
	if end.Before(start) {
		return apperrors.InvalidInput("end date must not be before start date")
	}
	return nil
}
