package http

import (
	"net/http"
	"spadesk/pkg/config"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/locale"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractDateRange reads the start and end query parameters. Plain dates are
// interpreted in loc and the end date is inclusive. Missing bounds default to
// the current month.
func ExtractDateRange(r *http.Request, loc *time.Location) (time.Time, time.Time, error) {
	query := r.URL.Query()
	now := time.Now().In(loc)

	start := locale.StartOfMonth(now)
	end := locale.EndOfDay(now)

	if s := query.Get("start"); s != "" {
		t, err := parseDate(s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid start parameter, expected YYYY-MM-DD or RFC3339: " + s)
		}
		start = t
	}
	if s := query.Get("end"); s != "" {
		t, err := parseDate(s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid end parameter, expected YYYY-MM-DD or RFC3339: " + s)
		}
		if len(s) == len(dateLayout) {
			t = locale.EndOfDay(t)
		}
		end = t
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("end must not be before start")
	}
	return start, end, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if len(s) == len(dateLayout) {
		return time.ParseInLocation(dateLayout, s, loc)
	}
	return time.Parse(time.RFC3339, s)
}
