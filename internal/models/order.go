package models

import (
	"time"
)

// Order represents a single customer purchase tracked through the
// fulfillment lifecycle. The backend owns every field; the console
// never recomputes totals locally.
type Order struct {
	ID              string          `json:"_id"`
	OrderNumber     string          `json:"orderNumber"`
	Status          OrderStatus     `json:"status"`
	OrderType       OrderType       `json:"orderType"`
	SubTotalAmt     float64         `json:"subTotalAmt"`
	TotalDiscount   float64         `json:"totalDiscount"`
	TotalAmt        float64         `json:"totalAmt"`
	CreatedAt       time.Time       `json:"createdAt"`
	Items           []OrderItem     `json:"orderedItems"`
	DeliveryAddress *Address        `json:"deliveryAddress,omitempty"`
	TrackingLog     []TrackingEntry `json:"trackingLog,omitempty"`
	Personnel       []Personnel     `json:"assignedPersonnel,omitempty"`
}

// OrderItem is one line of an order. SubTotal is price*quantity as
// computed by the backend.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	SubTotal float64 `json:"subTotal"`
}

// Address is the delivery destination for Delivery orders.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Pincode  string `json:"pincode,omitempty"`
	Landmark string `json:"landmark,omitempty"`
}

// TrackingEntry is one append-only status log record on an order.
// Entries are non-decreasing by timestamp.
type TrackingEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note,omitempty"`
}

// Personnel is a staff member attached to an order for fulfillment.
type Personnel struct {
	Name    string        `json:"name"`
	Role    PersonnelRole `json:"role"`
	Contact string        `json:"contact,omitempty"`
}

// PersonnelRole is the fixed set of roles a staff member can hold on
// an order.
type PersonnelRole string

const (
	RoleDelivery PersonnelRole = "Delivery"
	RolePicker   PersonnelRole = "Picker"
	RoleManager  PersonnelRole = "Manager"
	RoleCashier  PersonnelRole = "Cashier"
)

// ValidRole reports whether r is one of the enumerated personnel roles.
func ValidRole(r PersonnelRole) bool {
	switch r {
	case RoleDelivery, RolePicker, RoleManager, RoleCashier:
		return true
	}
	return false
}
