package httphandler

import (
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
)

const dayLayout = "2006-01-02"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type (
	Product struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Price       float64 `json:"price"`
		Category    string  `json:"category"`
		Subcategory string  `json:"subcategory,omitempty"`
		Brand       string  `json:"brand,omitempty"`
		Description string  `json:"description,omitempty"`
		Image       string  `json:"image,omitempty"`
		Stock       int     `json:"stock"`
	}

	ProductBrief struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Image string  `json:"image"`
		Price float64 `json:"price"`
	}
)

func productsFromDomain(vs []domain.Product) []Product {
	out := make([]Product, len(vs))
	for i, v := range vs {
		out[i] = Product{
			ID:          v.ProductID,
			Name:        v.Name,
			Price:       v.Price,
			Category:    v.Category,
			Subcategory: v.Subcategory,
			Brand:       v.Brand,
			Description: v.Description,
			Image:       v.Image,
			Stock:       v.Stock,
		}
	}
	return out
}

type (
	ChatState struct {
		AwaitingEmail  bool   `json:"awaitingEmail"`
		PendingMessage string `json:"pendingMessage"`
	}

	ChatRequest struct {
		Message   string     `json:"message" validate:"required,max=2000"`
		UserEmail string     `json:"userEmail" validate:"omitempty,email"`
		State     *ChatState `json:"state"`
	}

	ChatResponse struct {
		Reply    string         `json:"reply"`
		Products []ProductBrief `json:"products"`
		State    ChatState      `json:"state"`
	}
)

func (r ChatRequest) toDomain() domain.ChatRequest {
	req := domain.ChatRequest{Message: r.Message, UserEmail: r.UserEmail}
	if r.State != nil {
		req.State = domain.ConversationState{
			AwaitingEmail:  r.State.AwaitingEmail,
			PendingMessage: r.State.PendingMessage,
		}
	}
	return req
}

func chatResponseFromDomain(v domain.ChatReply) ChatResponse {
	ps := make([]ProductBrief, len(v.Products))
	for i, p := range v.Products {
		ps[i] = ProductBrief{
			ID: p.ProductID, Name: p.Name, Image: p.Image, Price: p.Price,
		}
	}
	return ChatResponse{
		Reply:    v.Reply,
		Products: ps,
		State: ChatState{
			AwaitingEmail:  v.State.AwaitingEmail,
			PendingMessage: v.State.PendingMessage,
		},
	}
}

type (
	CancelOrderRequest struct {
		OrderID string `json:"orderId" validate:"required"`
		Email   string `json:"email" validate:"required,email"`
	}

	UpdateOrderRequest struct {
		Status            *string    `json:"status" validate:"omitempty,oneof=Pending Processing Shipped Delivered Cancelled"`
		TrackingNumber    *string    `json:"trackingNumber" validate:"omitempty,max=64"`
		EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	}

	Order struct {
		ID                string         `json:"id"`
		UserID            string         `json:"userId"`
		OrderedAt         time.Time      `json:"orderedAt"`
		Status            string         `json:"status"`
		StatusHistory     []StatusChange `json:"statusHistory"`
		TrackingNumber    string         `json:"trackingNumber"`
		EstimatedDelivery *time.Time     `json:"estimatedDelivery,omitempty"`
		TotalAmount       float64        `json:"totalAmount"`
		Items             []OrderItem    `json:"items"`
	}

	OrderItem struct {
		ProductID string  `json:"productId"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Quantity  int     `json:"quantity"`
		Brand     string  `json:"brand,omitempty"`
		Image     string  `json:"image,omitempty"`
	}

	StatusChange struct {
		Status    string    `json:"status"`
		ChangedAt time.Time `json:"changedAt"`
	}

	UpdateOrderResponse struct {
		Message string `json:"message"`
		Order   Order  `json:"order"`
	}
)

func (r UpdateOrderRequest) toDomain() domain.OrderUpdate {
	var upd domain.OrderUpdate
	if r.Status != nil {
		s := domain.OrderStatus(*r.Status)
		upd.Status = &s
	}
	upd.TrackingNumber = r.TrackingNumber
	upd.EstimatedDelivery = r.EstimatedDelivery
	return upd
}

func orderFromDomain(v domain.Order) Order {
	o := Order{
		ID:                v.OrderID,
		UserID:            v.UserID,
		OrderedAt:         v.OrderedAt,
		Status:            string(v.Status),
		StatusHistory:     make([]StatusChange, len(v.StatusHistory)),
		TrackingNumber:    v.TrackingNumber,
		EstimatedDelivery: v.EstimatedDelivery,
		TotalAmount:       v.TotalAmount,
		Items:             make([]OrderItem, len(v.Lines)),
	}
	for i, ch := range v.StatusHistory {
		o.StatusHistory[i] = StatusChange{
			Status: string(ch.Status), ChangedAt: ch.ChangedAt,
		}
	}
	for i, l := range v.Lines {
		o.Items[i] = OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Brand:     l.Brand,
			Image:     l.Image,
		}
	}
	return o
}

func ordersFromDomain(vs []domain.Order) []Order {
	out := make([]Order, len(vs))
	for i, v := range vs {
		out[i] = orderFromDomain(v)
	}
	return out
}

type (
	Overview struct {
		TotalUsers    int     `json:"totalUsers"`
		TotalOrders   int     `json:"totalOrders"`
		TotalProducts int     `json:"totalProducts"`
		TotalRevenue  float64 `json:"totalRevenue"`
	}

	DailySales struct {
		Day   string  `json:"day"`
		Total float64 `json:"total"`
	}
)

func salesFromDomain(vs []domain.DailySales) []DailySales {
	out := make([]DailySales, len(vs))
	for i, v := range vs {
		out[i] = DailySales{Day: v.Day.UTC().Format(dayLayout), Total: v.Total}
	}
	return out
}

type FilterRule struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Blocked   *bool  `json:"blocked" validate:"required"`
}
