package main

import (
	"fmt"
	"log"

	"kirana/internal/models"
)

// seedOrders inserts a handful of demo orders so a fresh console has
// something to show.
func seedOrders() {
	var count int
	db.Model(&OrderRecord{}).Count(&count)
	if count > 0 {
		log.Printf("seed skipped, %d orders already present", count)
		return
	}

	seeds := []OrderRecord{
		{
			OrderNumber:   "KIR-1001",
			Status:        string(models.StatusPending),
			OrderType:     string(models.TypeDelivery),
			SubTotalAmt:   540,
			TotalDiscount: 40,
			TotalAmt:      500,
			AddressLine1:  "14 Gandhi Road",
			AddressCity:   "Pune",
			Items: []ItemRecord{
				{Name: "Basmati Rice 5kg", Quantity: 1, Price: 420},
				{Name: "Toor Dal 1kg", Quantity: 1, Price: 120},
			},
		},
		{
			OrderNumber: "KIR-1002",
			Status:      string(models.StatusConfirmed),
			OrderType:   string(models.TypeTakeout),
			SubTotalAmt: 185,
			TotalAmt:    185,
			Items: []ItemRecord{
				{Name: "Amul Butter 500g", Quantity: 1, Price: 135},
				{Name: "Bread", Quantity: 1, Price: 50},
			},
		},
		{
			OrderNumber: "KIR-1003",
			Status:      string(models.StatusDelivered),
			OrderType:   string(models.TypeDelivery),
			SubTotalAmt: 960,
			TotalAmt:    960,
			AddressLine1: "7 MG Road",
			AddressCity:  "Pune",
			Items: []ItemRecord{
				{Name: "Sunflower Oil 5L", Quantity: 1, Price: 760},
				{Name: "Sugar 2kg", Quantity: 2, Price: 100},
			},
		},
	}

	for i := range seeds {
		if err := db.Create(&seeds[i]).Error; err != nil {
			log.Printf("seed failed for %s: %v", seeds[i].OrderNumber, err)
			continue
		}
		entry := TrackingRecord{
			OrderID: seeds[i].ID,
			Status:  seeds[i].Status,
			At:      seeds[i].CreatedAt,
			Note:    fmt.Sprintf("seeded as %s", seeds[i].Status),
		}
		db.Create(&entry)
	}
	log.Printf("seeded %d demo orders", len(seeds))
}
