package dashboard

import (
	"testing"
	"time"

	"kirana/internal/models"
)

func TestComputeAggregates(t *testing.T) {
	now := time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC)
	today := now.Add(-2 * time.Hour)
	yesterday := now.Add(-26 * time.Hour)

	orders := []models.Order{
		{Status: models.StatusPending, OrderType: models.TypeDelivery, TotalAmt: 500, TotalDiscount: 40, CreatedAt: today},
		{Status: models.StatusDelivered, OrderType: models.TypeTakeout, TotalAmt: 185, CreatedAt: yesterday},
		{Status: models.StatusCancelled, OrderType: models.TypeDelivery, TotalAmt: 960, CreatedAt: today},
		{Status: models.StatusPending, OrderType: models.TypeTakeout, TotalAmt: 75, CreatedAt: yesterday},
	}

	s := Compute(orders, now)

	if s.TotalOrders != 4 {
		t.Errorf("TotalOrders = %d, want 4", s.TotalOrders)
	}
	if s.PendingBacklog != 2 {
		t.Errorf("PendingBacklog = %d, want 2", s.PendingBacklog)
	}
	if s.OrdersToday != 2 {
		t.Errorf("OrdersToday = %d, want 2", s.OrdersToday)
	}
	if s.Revenue != 760 {
		t.Errorf("Revenue = %.2f, want 760.00 (cancelled orders excluded)", s.Revenue)
	}
	if s.DiscountsGiven != 40 {
		t.Errorf("DiscountsGiven = %.2f, want 40.00", s.DiscountsGiven)
	}
	if s.ByStatus[models.StatusPending] != 2 {
		t.Errorf("ByStatus[Pending] = %d, want 2", s.ByStatus[models.StatusPending])
	}
	if s.ByType[models.TypeDelivery] != 2 {
		t.Errorf("ByType[Delivery] = %d, want 2", s.ByType[models.TypeDelivery])
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, time.Now())
	if s.TotalOrders != 0 || s.Revenue != 0 || s.PendingBacklog != 0 {
		t.Errorf("empty input must yield a zero summary, got %+v", s)
	}
}
