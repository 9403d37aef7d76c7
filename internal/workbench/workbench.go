package workbench

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"kirana/internal/api"
	"kirana/internal/models"
	"kirana/internal/monitoring"
)

// ErrIllegalTransition is returned when a requested status move is not
// offered for the order's current state and type.
var ErrIllegalTransition = errors.New("illegal status transition")

// DefaultPageSize is the workbench's order page size.
const DefaultPageSize = 10

// DefaultSearchDebounce is how long free-text search input must be
// quiet before a fetch fires.
const DefaultSearchDebounce = 400 * time.Millisecond

// Backend is the slice of the API client the workbench uses.
type Backend interface {
	ListOrders(ctx context.Context, f api.Filters) ([]models.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderNumber string, status models.OrderStatus) error
	CancelOrder(ctx context.Context, orderNumber string) error
	AssignPersonnel(ctx context.Context, orderNumber string, p models.Personnel) error
}

// Workbench maintains the admin's working set of orders: the current
// filter set, the fetched page, and the status-transition actions. It
// never mutates orders locally; after every successful mutation it
// re-fetches the current page and trusts only what the backend
// returns.
type Workbench struct {
	backend  Backend
	monitor  *monitoring.Monitor
	debounce time.Duration

	mu       sync.Mutex
	filters  api.Filters
	orders   []models.Order
	gen      uint64
	onChange func()

	searchTimer *time.Timer
}

// New creates a workbench over backend, starting on page 1 with no
// filters applied.
func New(backend Backend, monitor *monitoring.Monitor) *Workbench {
	return &Workbench{
		backend:  backend,
		monitor:  monitor,
		debounce: DefaultSearchDebounce,
		filters:  api.Filters{Page: 1, Limit: DefaultPageSize},
	}
}

// SetPageSize overrides the page size used for subsequent fetches.
func (w *Workbench) SetPageSize(n int) {
	if n < 1 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filters.Limit = n
}

// SetDebounce overrides the search debounce delay, mainly for tests.
func (w *Workbench) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// OnChange registers fn to run after the working set changes. The TUI
// uses this to repaint.
func (w *Workbench) OnChange(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Orders returns a copy of the currently displayed page.
func (w *Workbench) Orders() []models.Order {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.Order, len(w.orders))
	copy(out, w.orders)
	return out
}

// Filters returns the current filter set.
func (w *Workbench) Filters() api.Filters {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filters
}

// SetStatus applies a status filter (quick filters and the advanced
// panel both land here) and resets to page 1.
func (w *Workbench) SetStatus(ctx context.Context, s models.OrderStatus) {
	w.mutateFilters(func(f *api.Filters) { f.Status = s })
	w.refreshAsync(ctx)
}

// SetOrderType applies an order type filter and resets to page 1.
func (w *Workbench) SetOrderType(ctx context.Context, t models.OrderType) {
	w.mutateFilters(func(f *api.Filters) { f.OrderType = t })
	w.refreshAsync(ctx)
}

// SetDateRange applies inclusive creation-date bounds and resets to
// page 1. Zero times clear the respective bound.
func (w *Workbench) SetDateRange(ctx context.Context, from, to time.Time) {
	w.mutateFilters(func(f *api.Filters) {
		f.From = from
		f.To = to
	})
	w.refreshAsync(ctx)
}

// SetSearch applies a free-text search term and resets to page 1. The
// fetch is debounced so typing does not issue one request per
// keystroke.
func (w *Workbench) SetSearch(ctx context.Context, q string) {
	w.mu.Lock()
	w.filters.Search = q
	w.filters.Page = 1
	if w.searchTimer != nil {
		w.searchTimer.Stop()
	}
	d := w.debounce
	w.searchTimer = time.AfterFunc(d, func() {
		w.refreshAsync(ctx)
	})
	w.mu.Unlock()
}

// SetPage moves to page n without touching the other filters.
func (w *Workbench) SetPage(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	w.mu.Lock()
	w.filters.Page = n
	w.mu.Unlock()
	w.refreshAsync(ctx)
}

// ClearFilters drops every filter and returns to page 1.
func (w *Workbench) ClearFilters(ctx context.Context) {
	w.mu.Lock()
	limit := w.filters.Limit
	w.filters = api.Filters{Page: 1, Limit: limit}
	w.mu.Unlock()
	w.refreshAsync(ctx)
}

// mutateFilters applies fn and resets to page 1. Only SetPage controls
// the page number directly.
func (w *Workbench) mutateFilters(fn func(*api.Filters)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.filters)
	w.filters.Page = 1
}

// Apply replaces the whole filter set in one step, fetches, and
// returns the resulting page. When anything other than the page number
// changed, the page resets to 1; a pure page move keeps the rest of
// the filters as they are. The console server's list endpoint lands
// here.
func (w *Workbench) Apply(ctx context.Context, f api.Filters) ([]models.Order, error) {
	w.mu.Lock()
	cur := w.filters
	if f.Limit == 0 {
		f.Limit = cur.Limit
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if !sameExceptPage(cur, f) {
		f.Page = 1
	}
	w.filters = f
	w.mu.Unlock()

	if err := w.Refresh(ctx); err != nil {
		return nil, err
	}
	return w.Orders(), nil
}

func sameExceptPage(a, b api.Filters) bool {
	return a.Status == b.Status &&
		a.OrderType == b.OrderType &&
		a.From.Equal(b.From) &&
		a.To.Equal(b.To) &&
		a.Search == b.Search &&
		a.Limit == b.Limit
}

// Refresh fetches the current page. Responses belonging to a request
// that is no longer the most recent one are discarded, so rapid filter
// changes can never regress the display to an older result.
func (w *Workbench) Refresh(ctx context.Context) error {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	filters := w.filters
	w.mu.Unlock()

	w.monitor.FetchesTotal.Inc()
	orders, err := w.backend.ListOrders(ctx, filters)
	if err != nil {
		return fmt.Errorf("fetching orders: %w", err)
	}

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		w.monitor.StaleResponsesDropped.Inc()
		return nil
	}
	w.orders = orders
	fn := w.onChange
	w.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

func (w *Workbench) refreshAsync(ctx context.Context) {
	go func() {
		if err := w.Refresh(ctx); err != nil {
			log.Printf("workbench refresh failed: %v", err)
		}
	}()
}

// Detail fetches a single order by number, bypassing the working set.
func (w *Workbench) Detail(ctx context.Context, orderNumber string) (*models.Order, error) {
	return w.backend.GetOrder(ctx, orderNumber)
}

// Transition applies a forward status move to an order. The move is
// validated against the state machine before the backend is called; on
// success the current page is re-fetched so the display reflects
// confirmed server state only.
func (w *Workbench) Transition(ctx context.Context, o models.Order, next models.OrderStatus) error {
	if !models.CanTransition(o.Status, o.OrderType, next) {
		return fmt.Errorf("order %s: %s -> %s: %w", o.OrderNumber, o.Status, next, ErrIllegalTransition)
	}
	if err := w.backend.UpdateStatus(ctx, o.OrderNumber, next); err != nil {
		w.monitor.StatusUpdates.WithLabelValues("failure").Inc()
		return err
	}
	w.monitor.StatusUpdates.WithLabelValues("success").Inc()
	return w.Refresh(ctx)
}

// Cancel moves an order to the terminal Cancelled state through the
// dedicated cancel call.
func (w *Workbench) Cancel(ctx context.Context, o models.Order) error {
	if !models.CanCancel(o.Status) {
		return fmt.Errorf("order %s is already %s: %w", o.OrderNumber, o.Status, ErrIllegalTransition)
	}
	if err := w.backend.CancelOrder(ctx, o.OrderNumber); err != nil {
		w.monitor.StatusUpdates.WithLabelValues("failure").Inc()
		return err
	}
	w.monitor.StatusUpdates.WithLabelValues("success").Inc()
	return w.Refresh(ctx)
}

// Assign attaches a staff member to an order. Order status is
// unaffected.
func (w *Workbench) Assign(ctx context.Context, orderNumber string, p models.Personnel) error {
	if err := w.backend.AssignPersonnel(ctx, orderNumber, p); err != nil {
		return err
	}
	return w.Refresh(ctx)
}
