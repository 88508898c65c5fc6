package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"spadesk/pkg/model"
)

// utf8BOM lets spreadsheet applications detect the encoding of CSV files
// containing Chinese names.
const utf8BOM = "\uFEFF"

var csvHeaders = map[string][]string{
	model.ReportRevenue:    {"date", "revenue", "visits", "cash", "card", "deposit"},
	model.ReportRanking:    {"rank", "customer_name", "phone", "membership_level", "total_spent", "visit_count", "services"},
	model.ReportServices:   {"service_name", "visit_count", "booking_count", "total_count", "revenue", "avg_price"},
	model.ReportMembership: {"membership_level", "count", "total_balance", "avg_balance"},
}

func IsReportType(reportType string) bool {
	_, ok := csvHeaders[reportType]
	return ok
}

// EncodeCSV renders the rows of one report type. Averages are rounded half up
// to whole currency units.
func EncodeCSV(reportType string, report *model.FullReport) ([]byte, error) {
	header, ok := csvHeaders[reportType]
	if !ok {
		return nil, fmt.Errorf("unknown report type %q", reportType)
	}

	var rows [][]string
	switch reportType {
	case model.ReportRevenue:
		for _, d := range report.Revenue.Daily {
			rows = append(rows, []string{d.Date, itoa(d.Revenue), strconv.Itoa(d.Visits), itoa(d.Cash), itoa(d.Card), itoa(d.Deposit)})
		}
	case model.ReportRanking:
		for _, r := range report.Ranking {
			rows = append(rows, []string{
				strconv.Itoa(r.Rank), r.CustomerName, r.Phone, r.MembershipLevel,
				itoa(r.TotalSpent), strconv.Itoa(r.VisitCount), strings.Join(r.Services, ", "),
			})
		}
	case model.ReportServices:
		for _, s := range report.Services {
			rows = append(rows, []string{
				s.ServiceName, strconv.Itoa(s.VisitCount), strconv.Itoa(s.BookingCount),
				strconv.Itoa(s.TotalCount), itoa(s.Revenue), itoa(roundHalfUp(s.AvgPrice)),
			})
		}
	case model.ReportMembership:
		for _, l := range report.Membership.Levels {
			rows = append(rows, []string{l.Level, strconv.Itoa(l.Count), itoa(l.TotalBalance), itoa(roundHalfUp(l.AvgBalance))})
		}
	}

	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
