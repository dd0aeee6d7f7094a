package domain

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type (
	Order struct {
		OrderID           string
		UserID            string
		OrderedAt         time.Time
		Status            OrderStatus
		StatusHistory     []StatusChange
		TrackingNumber    string
		EstimatedDelivery *time.Time
		TotalAmount       float64
		Lines             []OrderLine
	}

	// An OrderLine keeps the product snapshot taken at purchase time.
	OrderLine struct {
		ProductID string
		Name      string
		Price     float64
		Quantity  int
		Brand     string
		Image     string
	}

	StatusChange struct {
		Status    OrderStatus
		ChangedAt time.Time
	}

	// An OrderUpdate carries optional admin changes, nil fields are kept.
	OrderUpdate struct {
		Status            *OrderStatus
		TrackingNumber    *string
		EstimatedDelivery *time.Time
	}
)

// SetStatus changes the status and appends the history entry.
// It reports whether the status actually changed.
func (o *Order) SetStatus(s OrderStatus, at time.Time) bool {
	if o.Status == s {
		return false
	}
	o.Status = s
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status: s, ChangedAt: at,
	})
	return true
}

type (
	ProductQuantity struct {
		ProductID string
		Quantity  int
	}

	DailySales struct {
		Day   time.Time
		Total float64
	}

	Overview struct {
		TotalUsers    int
		TotalOrders   int
		TotalProducts int
		TotalRevenue  float64
	}
)
