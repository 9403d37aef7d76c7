package dashboard

import (
	"context"
	"time"

	"kirana/internal/api"
	"kirana/internal/models"
)

// Summary is the aggregated view behind the console's metrics
// dashboard, recomputed from the most recent orders on every refresh.
type Summary struct {
	TotalOrders    int                        `json:"totalOrders"`
	ByStatus       map[models.OrderStatus]int `json:"byStatus"`
	ByType         map[models.OrderType]int   `json:"byType"`
	Revenue        float64                    `json:"revenue"`
	DiscountsGiven float64                    `json:"discountsGiven"`
	PendingBacklog int                        `json:"pendingBacklog"`
	OrdersToday    int                        `json:"ordersToday"`
	GeneratedAt    time.Time                  `json:"generatedAt"`
}

// Compute aggregates a set of orders into a Summary. Revenue excludes
// cancelled and rejected orders.
func Compute(orders []models.Order, now time.Time) Summary {
	s := Summary{
		TotalOrders: len(orders),
		ByStatus:    make(map[models.OrderStatus]int),
		ByType:      make(map[models.OrderType]int),
		GeneratedAt: now,
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, o := range orders {
		s.ByStatus[o.Status]++
		s.ByType[o.OrderType]++

		if o.Status != models.StatusCancelled && o.Status != models.StatusRejected {
			s.Revenue += o.TotalAmt
			s.DiscountsGiven += o.TotalDiscount
		}
		if o.Status == models.StatusPending {
			s.PendingBacklog++
		}
		if !o.CreatedAt.Before(startOfDay) {
			s.OrdersToday++
		}
	}
	return s
}

// Feed is the slice of the backend the dashboard reads from.
type Feed interface {
	ListOrders(ctx context.Context, f api.Filters) ([]models.Order, error)
}

// Service fetches recent orders and aggregates them on demand.
type Service struct {
	feed     Feed
	sampleSz int
}

// NewService creates a dashboard service sampling the most recent
// sampleSize orders per refresh.
func NewService(feed Feed, sampleSize int) *Service {
	if sampleSize <= 0 {
		sampleSize = 100
	}
	return &Service{feed: feed, sampleSz: sampleSize}
}

// Summary fetches the sample window and aggregates it.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	orders, err := s.feed.ListOrders(ctx, api.Filters{Page: 1, Limit: s.sampleSz})
	if err != nil {
		return Summary{}, err
	}
	return Compute(orders, time.Now()), nil
}
