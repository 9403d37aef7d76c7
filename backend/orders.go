package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"kirana/internal/models"
)

// InitializeOrderRoutes configures HTTP endpoints for order management.
// Covers the full contract the console consumes: filtered listing,
// single fetch, status transitions, cancellation, and personnel
// assignment.
func InitializeOrderRoutes(router *gin.RouterGroup) {
	router.GET("/orders", ListOrders)
	router.GET("/orders/:number", GetOrder)
	router.PUT("/orders/:number/status", UpdateOrderStatus)
	router.PUT("/orders/:number/cancel", CancelOrder)
	router.PUT("/orders/:number/assign", AssignPersonnel)
}

// ListOrders returns one page of orders, newest first, narrowed by the
// optional status, orderType, from/to (inclusive, against creation
// time), and q parameters. Empty parameters are ignored.
func ListOrders(c *gin.Context) {
	query := db.Preload("Items").Preload("TrackingLog").Preload("Personnel").Order("id desc")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if orderType := c.Query("orderType"); orderType != "" {
		query = query.Where("order_type = ?", orderType)
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' timestamp"})
			return
		}
		query = query.Where("created_at >= ?", t)
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' timestamp"})
			return
		}
		query = query.Where("created_at <= ?", t)
	}
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"order_number LIKE ? OR id IN (SELECT order_id FROM item_records WHERE name LIKE ?)",
			like, like,
		)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 {
		limit = 10
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	query = query.Offset((page - 1) * limit).Limit(limit)

	var records []OrderRecord
	if err := query.Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	orders := make([]models.Order, 0, len(records))
	for _, rec := range records {
		orders = append(orders, toWire(rec))
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

// GetOrder returns a single order by its order number.
func GetOrder(c *gin.Context) {
	rec, ok := findOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toWire(*rec)})
}

// UpdateOrderStatus applies a status transition. Illegal moves for the
// order's current state and type are rejected.
func UpdateOrderStatus(c *gin.Context) {
	var body struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, ok := findOrder(c)
	if !ok {
		return
	}

	current := models.OrderStatus(rec.Status)
	if !models.CanTransition(current, models.OrderType(rec.OrderType), body.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "illegal transition from " + rec.Status + " to " + string(body.Status),
		})
		return
	}

	applyStatus(c, rec, body.Status, "")
}

// CancelOrder moves an order to the terminal Cancelled state.
func CancelOrder(c *gin.Context) {
	rec, ok := findOrder(c)
	if !ok {
		return
	}

	if models.IsTerminal(models.OrderStatus(rec.Status)) {
		c.JSON(http.StatusConflict, gin.H{"error": "order is already " + rec.Status})
		return
	}

	applyStatus(c, rec, models.StatusCancelled, "cancelled by admin")
}

// AssignPersonnel attaches a staff member to an order without touching
// its status.
func AssignPersonnel(c *gin.Context) {
	var p models.Personnel
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if p.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "personnel name is required"})
		return
	}
	if !models.ValidRole(p.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid personnel role"})
		return
	}

	rec, ok := findOrder(c)
	if !ok {
		return
	}

	record := PersonnelRecord{
		OrderID: rec.ID,
		Name:    p.Name,
		Role:    string(p.Role),
		Contact: p.Contact,
	}
	if err := db.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "personnel assigned"})
}

// findOrder loads the order named in the URL, responding 404 itself
// when it does not exist.
func findOrder(c *gin.Context) (*OrderRecord, bool) {
	var rec OrderRecord
	err := db.Preload("Items").Preload("TrackingLog").Preload("Personnel").
		Where("order_number = ?", c.Param("number")).First(&rec).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, false
	}
	return &rec, true
}

// applyStatus updates the order's status and appends a tracking entry.
func applyStatus(c *gin.Context, rec *OrderRecord, status models.OrderStatus, note string) {
	if err := db.Model(rec).Update("status", string(status)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	entry := TrackingRecord{
		OrderID: rec.ID,
		Status:  string(status),
		Note:    note,
		At:      time.Now(),
	}
	if err := db.Create(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}
