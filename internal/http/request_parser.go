package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledgerview/internal/aggregate"
	"ledgerview/internal/core"
	"ledgerview/internal/services"
	"ledgerview/internal/window"
)

const defaultOverviewMonths = 6

// ErrInvalidParam marks a malformed query parameter.
var ErrInvalidParam = errors.New("invalid parameter")

// ParseChartRequest reads date, granularity, direction, mode and debitsOnly
// from the query string. Granularity defaults to week and date to today.
func ParseChartRequest(query url.Values) (services.ChartRequest, error) {
	var req services.ChartRequest

	date, err := parseDateParam(query)
	if err != nil {
		return req, err
	}
	req.Date = date

	req.Granularity = window.Week
	if v := strings.TrimSpace(query.Get("granularity")); v != "" {
		if req.Granularity, err = window.ParseGranularity(v); err != nil {
			return req, err
		}
	}

	if v := strings.TrimSpace(query.Get("direction")); v != "" {
		if req.Direction, err = window.ParseDirection(v); err != nil {
			return req, err
		}
	}

	if v := strings.TrimSpace(query.Get("mode")); v != "" {
		if req.Mode, err = aggregate.ParseViewMode(v); err != nil {
			return req, err
		}
	}

	if v := strings.TrimSpace(query.Get("debitsOnly")); v != "" {
		if req.DebitsOnly, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("%w: debitsOnly=%q", ErrInvalidParam, v)
		}
	}
	return req, nil
}

// OverviewParams holds the reference date and month count of an overview.
type OverviewParams struct {
	Date   time.Time
	Months int
}

func ParseOverviewParams(query url.Values) (OverviewParams, error) {
	params := OverviewParams{Months: defaultOverviewMonths}

	date, err := parseDateParam(query)
	if err != nil {
		return params, err
	}
	params.Date = date

	if v := strings.TrimSpace(query.Get("months")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("%w: months=%q", ErrInvalidParam, v)
		}
		params.Months = n
	}
	return params, nil
}

// parseDateParam returns the zero time when date is absent.
func parseDateParam(query url.Values) (time.Time, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date=%q", ErrInvalidParam, v)
	}
	return t, nil
}

// isClientError reports whether err should map to 400 Bad Request.
func isClientError(err error) bool {
	return errors.Is(err, ErrInvalidParam) || services.IsRequestError(err)
}
