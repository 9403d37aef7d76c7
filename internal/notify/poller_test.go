package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirana/internal/api"
	"kirana/internal/models"
	"kirana/internal/monitoring"
)

// scriptedFeed serves one response per poll, repeating the last one.
type scriptedFeed struct {
	mu    sync.Mutex
	pages [][]models.Order
	errs  []error
	calls int
}

func (f *scriptedFeed) ListOrders(ctx context.Context, _ api.Filters) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.pages) {
		i = len(f.pages) - 1
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.pages[i], nil
}

func order(id string, status models.OrderStatus) models.Order {
	return models.Order{
		ID:          id,
		OrderNumber: "KIR-" + id,
		Status:      status,
		OrderType:   models.TypeDelivery,
	}
}

func newTestPoller(feed Feed, opts ...Option) *Poller {
	return NewPoller(feed, monitoring.NewTestMonitor(), opts...)
}

func TestFirstPollEstablishesBaselineSilently(t *testing.T) {
	feed := &scriptedFeed{pages: [][]models.Order{
		{order("C", models.StatusPending), order("B", models.StatusPending), order("A", models.StatusPending)},
	}}
	p := newTestPoller(feed)

	p.Poll(context.Background())

	assert.Empty(t, p.Notifications(), "orders existing before the first poll must not notify")
	assert.Equal(t, 0, p.UnreadCount())
}

func TestNewOrdersNotifyNewestFirst(t *testing.T) {
	feed := &scriptedFeed{pages: [][]models.Order{
		{order("A", models.StatusPending)},
		{order("D", models.StatusPending), order("C", models.StatusPending), order("B", models.StatusConfirmed), order("A", models.StatusPending)},
	}}
	p := newTestPoller(feed)

	var emitted []models.Notification
	p.Subscribe(func(n models.Notification) { emitted = append(emitted, n) })

	p.Poll(context.Background())
	p.Poll(context.Background())

	notifs := p.Notifications()
	require.Len(t, notifs, 2, "only Pending newcomers notify; B is Confirmed, A is the baseline")
	assert.Equal(t, "KIR-D", notifs[0].OrderNumber)
	assert.Equal(t, "KIR-C", notifs[1].OrderNumber)
	assert.False(t, notifs[0].Read)

	require.Len(t, emitted, 2)
	assert.Equal(t, "KIR-D", emitted[0].OrderNumber)
}

func TestRepeatedPollEmitsNoDuplicates(t *testing.T) {
	feed := &scriptedFeed{pages: [][]models.Order{
		{order("A", models.StatusPending)},
		{order("B", models.StatusPending), order("A", models.StatusPending)},
	}}
	p := newTestPoller(feed)

	p.Poll(context.Background())
	p.Poll(context.Background())
	require.Len(t, p.Notifications(), 1)

	// Same page again: B is now the baseline.
	p.Poll(context.Background())
	p.Poll(context.Background())
	assert.Len(t, p.Notifications(), 1, "unchanged feed must not re-notify")
}

func TestBaselineMissingFromPageTreatsWholePageAsNew(t *testing.T) {
	feed := &scriptedFeed{pages: [][]models.Order{
		{order("A", models.StatusPending)},
		// A flood pushed the baseline past the page boundary.
		{order("F", models.StatusPending), order("E", models.StatusConfirmed), order("D", models.StatusPending)},
	}}
	p := newTestPoller(feed)

	p.Poll(context.Background())
	p.Poll(context.Background())

	notifs := p.Notifications()
	require.Len(t, notifs, 2)
	assert.Equal(t, "KIR-F", notifs[0].OrderNumber)
	assert.Equal(t, "KIR-D", notifs[1].OrderNumber)
}

func TestFailedPollPreservesBaseline(t *testing.T) {
	feed := &scriptedFeed{
		pages: [][]models.Order{
			{order("A", models.StatusPending)},
			nil,
			{order("B", models.StatusPending), order("A", models.StatusPending)},
		},
		errs: []error{nil, errors.New("backend down")},
	}
	p := newTestPoller(feed)

	p.Poll(context.Background())
	p.Poll(context.Background()) // fails, baseline must stay at A
	p.Poll(context.Background())

	notifs := p.Notifications()
	require.Len(t, notifs, 1, "B arrived while the backend was down and must still notify once")
	assert.Equal(t, "KIR-B", notifs[0].OrderNumber)
}

func TestEmptyFeedDoesNothing(t *testing.T) {
	feed := &scriptedFeed{pages: [][]models.Order{{}}}
	p := newTestPoller(feed)

	p.Poll(context.Background())
	p.Poll(context.Background())
	assert.Empty(t, p.Notifications())
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	feed := &scriptedFeed{pages: [][]models.Order{
		{order("A", models.StatusPending)},
		{order("C", models.StatusPending), order("B", models.StatusPending), order("A", models.StatusPending)},
	}}
	p := newTestPoller(feed)

	p.Poll(context.Background())
	p.Poll(context.Background())
	require.Equal(t, 2, p.UnreadCount())

	p.MarkAllRead()
	assert.Equal(t, 0, p.UnreadCount())
	assert.Len(t, p.Notifications(), 2, "marking read must not change the count")

	p.MarkAllRead()
	assert.Equal(t, 0, p.UnreadCount())
	assert.Len(t, p.Notifications(), 2)
}

func TestClearEmptiesTheList(t *testing.T) {
	feed := &scriptedFeed{pages: [][]models.Order{
		{order("A", models.StatusPending)},
		{order("B", models.StatusPending), order("A", models.StatusPending)},
	}}
	p := newTestPoller(feed)

	p.Poll(context.Background())
	p.Poll(context.Background())
	require.NotEmpty(t, p.Notifications())

	p.Clear()
	assert.Empty(t, p.Notifications())
	assert.Equal(t, 0, p.UnreadCount())
}

func TestNotificationListIsCapped(t *testing.T) {
	pages := [][]models.Order{{order("base", models.StatusPending)}}
	// Each poll brings one brand-new pending order on top of the last.
	prev := "base"
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("n%d", i)
		pages = append(pages, []models.Order{order(id, models.StatusPending), order(prev, models.StatusPending)})
		prev = id
	}

	feed := &scriptedFeed{pages: pages}
	p := newTestPoller(feed, WithCap(5))

	for range pages {
		p.Poll(context.Background())
	}

	notifs := p.Notifications()
	require.Len(t, notifs, 5, "list must stay at the cap")
	assert.Equal(t, "KIR-n7", notifs[0].OrderNumber, "newest entries survive, oldest are dropped")
}
