package main

import (
	"strconv"
	"time"

	"github.com/jinzhu/gorm"

	"kirana/internal/models"
)

// OrderRecord is the stored form of an order.
type OrderRecord struct {
	gorm.Model
	OrderNumber   string `gorm:"unique_index"`
	Status        string
	OrderType     string
	SubTotalAmt   float64
	TotalDiscount float64
	TotalAmt      float64
	AddressLine1  string
	AddressLine2  string
	AddressCity   string
	Items         []ItemRecord      `gorm:"foreignkey:OrderID"`
	TrackingLog   []TrackingRecord  `gorm:"foreignkey:OrderID"`
	Personnel     []PersonnelRecord `gorm:"foreignkey:OrderID"`
}

// ItemRecord is one stored order line.
type ItemRecord struct {
	gorm.Model
	OrderID  uint
	Name     string
	Quantity int
	Price    float64
}

// TrackingRecord is one stored status log entry.
type TrackingRecord struct {
	gorm.Model
	OrderID uint
	Status  string
	Note    string
	At      time.Time
}

// PersonnelRecord is one stored staff assignment.
type PersonnelRecord struct {
	gorm.Model
	OrderID uint
	Name    string
	Role    string
	Contact string
}

// toWire converts a stored order into the response shape the console
// expects.
func toWire(rec OrderRecord) models.Order {
	o := models.Order{
		ID:            strconv.FormatUint(uint64(rec.ID), 10),
		OrderNumber:   rec.OrderNumber,
		Status:        models.OrderStatus(rec.Status),
		OrderType:     models.OrderType(rec.OrderType),
		SubTotalAmt:   rec.SubTotalAmt,
		TotalDiscount: rec.TotalDiscount,
		TotalAmt:      rec.TotalAmt,
		CreatedAt:     rec.CreatedAt,
	}

	for _, it := range rec.Items {
		o.Items = append(o.Items, models.OrderItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
			SubTotal: it.Price * float64(it.Quantity),
		})
	}
	for _, t := range rec.TrackingLog {
		o.TrackingLog = append(o.TrackingLog, models.TrackingEntry{
			Status:    models.OrderStatus(t.Status),
			Timestamp: t.At,
			Note:      t.Note,
		})
	}
	for _, p := range rec.Personnel {
		o.Personnel = append(o.Personnel, models.Personnel{
			Name:    p.Name,
			Role:    models.PersonnelRole(p.Role),
			Contact: p.Contact,
		})
	}
	if rec.AddressLine1 != "" {
		o.DeliveryAddress = &models.Address{
			Line1: rec.AddressLine1,
			Line2: rec.AddressLine2,
			City:  rec.AddressCity,
		}
	}
	return o
}
