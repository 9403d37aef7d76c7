package api

import (
	"net/url"
	"strconv"
	"time"

	"kirana/internal/models"
)

// Filters is the admin's current query over the order list. Every
// field is optional; zero values are stripped before the request is
// built, so the backend only ever sees parameters the admin actually
// set. Date bounds are inclusive against the order creation timestamp.
type Filters struct {
	Status    models.OrderStatus
	OrderType models.OrderType
	From      time.Time
	To        time.Time
	Search    string
	Page      int
	Limit     int
}

// Values translates the filter set into backend query parameters,
// dropping empty fields.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.OrderType != "" {
		v.Set("orderType", string(f.OrderType))
	}
	if !f.From.IsZero() {
		v.Set("from", f.From.Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		v.Set("to", f.To.Format(time.RFC3339))
	}
	if f.Search != "" {
		v.Set("q", f.Search)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// Encode returns the query string form of the filter set.
func (f Filters) Encode() string {
	return f.Values().Encode()
}
