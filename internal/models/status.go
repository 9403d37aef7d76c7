package models

// OrderStatus represents the possible states of an order.
type OrderStatus string

const (
	StatusPending        OrderStatus = "Pending"
	StatusConfirmed      OrderStatus = "Confirmed"
	StatusPreparing      OrderStatus = "Preparing"
	StatusReady          OrderStatus = "Ready"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
	StatusRejected       OrderStatus = "Rejected"
)

// OrderType distinguishes how an order is fulfilled.
type OrderType string

const (
	TypeDelivery OrderType = "Delivery"
	TypeTakeout  OrderType = "Takeout"
)

// AllStatuses lists every status in lifecycle order, used by filter
// pickers in the console surfaces.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
	StatusRejected,
}

// IsTerminal reports whether no further transitions are offered from s.
func IsTerminal(s OrderStatus) bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// NextActions returns the forward transitions offered for an order in
// status s with fulfillment type t, in display order. Cancellation is
// not included here: it is a dedicated action, always available on
// non-terminal orders (see CanCancel).
func NextActions(s OrderStatus, t OrderType) []OrderStatus {
	switch s {
	case StatusPending:
		return []OrderStatus{StatusConfirmed}
	case StatusConfirmed:
		if t == TypeDelivery {
			return []OrderStatus{StatusPreparing, StatusOutForDelivery}
		}
		return []OrderStatus{StatusPreparing}
	case StatusPreparing:
		return []OrderStatus{StatusReady}
	case StatusReady:
		if t == TypeDelivery {
			return []OrderStatus{StatusOutForDelivery}
		}
		return []OrderStatus{StatusDelivered}
	case StatusOutForDelivery:
		return []OrderStatus{StatusDelivered}
	}
	return nil
}

// CanTransition reports whether moving from s to next is a legal
// forward transition for an order of type t.
func CanTransition(s OrderStatus, t OrderType, next OrderStatus) bool {
	for _, n := range NextActions(s, t) {
		if n == next {
			return true
		}
	}
	return false
}

// CanCancel reports whether the dedicated cancel action is offered.
func CanCancel(s OrderStatus) bool {
	return !IsTerminal(s)
}
