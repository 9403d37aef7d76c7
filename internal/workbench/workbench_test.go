package workbench

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirana/internal/api"
	"kirana/internal/models"
	"kirana/internal/monitoring"
)

// fakeBackend records calls and serves canned pages.
type fakeBackend struct {
	mu          sync.Mutex
	orders      []models.Order
	listCalls   []api.Filters
	updateCalls []string
	cancelCalls []string
	assignCalls []string
	updateErr   error
}

func (b *fakeBackend) ListOrders(_ context.Context, f api.Filters) ([]models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls = append(b.listCalls, f)
	return b.orders, nil
}

func (b *fakeBackend) GetOrder(_ context.Context, number string) (*models.Order, error) {
	for _, o := range b.orders {
		if o.OrderNumber == number {
			return &o, nil
		}
	}
	return nil, api.ErrNotFound
}

func (b *fakeBackend) UpdateStatus(_ context.Context, number string, _ models.OrderStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateCalls = append(b.updateCalls, number)
	return b.updateErr
}

func (b *fakeBackend) CancelOrder(_ context.Context, number string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelCalls = append(b.cancelCalls, number)
	return nil
}

func (b *fakeBackend) AssignPersonnel(_ context.Context, number string, _ models.Personnel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assignCalls = append(b.assignCalls, number)
	return nil
}

func (b *fakeBackend) listCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listCalls)
}

// blockingBackend parks each ListOrders call until the test releases
// it, so response ordering can be controlled exactly.
type blockingBackend struct {
	fakeBackend
	reqs chan blockedReq
}

type blockedReq struct {
	filters api.Filters
	release chan []models.Order
}

func (b *blockingBackend) ListOrders(_ context.Context, f api.Filters) ([]models.Order, error) {
	r := blockedReq{filters: f, release: make(chan []models.Order)}
	b.reqs <- r
	return <-r.release, nil
}

func newTestWorkbench(b Backend) *Workbench {
	return New(b, monitoring.NewTestMonitor())
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	backend := &blockingBackend{reqs: make(chan blockedReq, 2)}
	wb := newTestWorkbench(backend)
	ctx := context.Background()

	resultF1 := []models.Order{{OrderNumber: "OLD-1"}}
	resultF2 := []models.Order{{OrderNumber: "NEW-1"}}

	done1 := make(chan struct{})
	go func() {
		defer close(done1)
		_, err := wb.Apply(ctx, api.Filters{Search: "f1"})
		assert.NoError(t, err)
	}()
	req1 := <-backend.reqs

	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		orders, err := wb.Apply(ctx, api.Filters{Search: "f2"})
		assert.NoError(t, err)
		assert.Equal(t, resultF2, orders)
	}()
	req2 := <-backend.reqs

	// F2 resolves first, then F1's stale response trickles in.
	req2.release <- resultF2
	<-done2
	req1.release <- resultF1
	<-done1

	assert.Equal(t, resultF2, wb.Orders(), "a late response for superseded filters must not overwrite the display")
}

func TestFilterChangeResetsPage(t *testing.T) {
	backend := &fakeBackend{}
	wb := newTestWorkbench(backend)
	ctx := context.Background()

	_, err := wb.Apply(ctx, api.Filters{Status: models.StatusPending, Page: 1})
	require.NoError(t, err)

	// Pure page move keeps the filters.
	_, err = wb.Apply(ctx, api.Filters{Status: models.StatusPending, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, wb.Filters().Page)

	// Changing a filter snaps back to page 1 even if the caller asked
	// for a deeper page.
	_, err = wb.Apply(ctx, api.Filters{Status: models.StatusConfirmed, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, wb.Filters().Page)
	assert.Equal(t, models.StatusConfirmed, wb.Filters().Status)
}

func TestSearchIsDebounced(t *testing.T) {
	backend := &fakeBackend{}
	wb := newTestWorkbench(backend)
	wb.SetDebounce(20 * time.Millisecond)
	ctx := context.Background()

	wb.SetSearch(ctx, "r")
	wb.SetSearch(ctx, "ri")
	wb.SetSearch(ctx, "ric")
	wb.SetSearch(ctx, "rice")

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, backend.listCount(), "four keystrokes must coalesce into one fetch")
	assert.Equal(t, "rice", wb.Filters().Search)
	assert.Equal(t, 1, wb.Filters().Page)
}

func TestTransitionValidatesBeforeCallingBackend(t *testing.T) {
	backend := &fakeBackend{}
	wb := newTestWorkbench(backend)
	ctx := context.Background()

	takeout := models.Order{OrderNumber: "KIR-9", Status: models.StatusReady, OrderType: models.TypeTakeout}
	err := wb.Transition(ctx, takeout, models.StatusOutForDelivery)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Empty(t, backend.updateCalls, "illegal moves must never reach the backend")

	err = wb.Transition(ctx, takeout, models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, []string{"KIR-9"}, backend.updateCalls)
	assert.Equal(t, 1, backend.listCount(), "a successful mutation re-fetches the current page")
}

func TestFailedTransitionChangesNothingLocally(t *testing.T) {
	backend := &fakeBackend{
		orders:    []models.Order{{OrderNumber: "KIR-1", Status: models.StatusPending, OrderType: models.TypeDelivery}},
		updateErr: errors.New("backend exploded"),
	}
	wb := newTestWorkbench(backend)
	ctx := context.Background()

	_, err := wb.Apply(ctx, api.Filters{})
	require.NoError(t, err)
	before := wb.Orders()
	fetches := backend.listCount()

	err = wb.Transition(ctx, before[0], models.StatusConfirmed)
	assert.Error(t, err)
	assert.Equal(t, before, wb.Orders())
	assert.Equal(t, fetches, backend.listCount(), "a failed mutation must not trigger a re-fetch")
}

func TestCancelRefusedOnTerminalOrder(t *testing.T) {
	backend := &fakeBackend{}
	wb := newTestWorkbench(backend)

	delivered := models.Order{OrderNumber: "KIR-2", Status: models.StatusDelivered, OrderType: models.TypeDelivery}
	err := wb.Cancel(context.Background(), delivered)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Empty(t, backend.cancelCalls)
}

func TestCancelHitsDedicatedEndpoint(t *testing.T) {
	backend := &fakeBackend{}
	wb := newTestWorkbench(backend)

	pending := models.Order{OrderNumber: "KIR-3", Status: models.StatusPending, OrderType: models.TypeTakeout}
	err := wb.Cancel(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, []string{"KIR-3"}, backend.cancelCalls)
	assert.Empty(t, backend.updateCalls, "cancel is its own call, not a status update")
}

func TestAssignRefreshesWorkingSet(t *testing.T) {
	backend := &fakeBackend{}
	wb := newTestWorkbench(backend)

	err := wb.Assign(context.Background(), "KIR-4", models.Personnel{Name: "Ravi", Role: models.RoleDelivery})
	require.NoError(t, err)
	assert.Equal(t, []string{"KIR-4"}, backend.assignCalls)
	assert.Equal(t, 1, backend.listCount())
}
