package httphandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/port"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GET v1/search?query=text (200 OK, 400 Bad request)
// GET v1/frequent/{productId} (200 OK, 400 Bad request)
type SearchHandler struct {
	searcher port.Searcher
	frequent port.FrequentRecommender
}

func RegisterSearch(
	mux *http.ServeMux, s port.Searcher, f port.FrequentRecommender,
) {
	h := SearchHandler{searcher: s, frequent: f}
	mux.HandleFunc("GET /v1/search", h.Search)
	mux.HandleFunc("GET /v1/frequent/{productId}", h.Frequent)
}

func (h SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	const op = "SearchHandler.Search"
	log := slog.With("op", op)

	ps, err := h.searcher.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, productsFromDomain(ps))
}

func (h SearchHandler) Frequent(w http.ResponseWriter, r *http.Request) {
	const op = "SearchHandler.Frequent"
	log := slog.With("op", op)

	ps, err := h.frequent.FrequentlyBoughtTogether(
		r.Context(), r.PathValue("productId"),
	)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, productsFromDomain(ps))
}

// GET v1/recommendations/user Authorization Bearer (200 OK, 401 Unauthorized)
type RecommendHandler struct {
	recommender port.UserRecommender
}

func RegisterRecommendations(
	mux *http.ServeMux, rec port.UserRecommender, auth Authenticator,
) {
	h := RecommendHandler{rec}
	mux.Handle(
		"GET /v1/recommendations/user",
		auth.Authenticate(http.HandlerFunc(h.ForUser)),
	)
}

func (h RecommendHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	const op = "RecommendHandler.ForUser"
	log := slog.With("op", op)

	p, _ := principalFrom(r.Context())
	ps, err := h.recommender.RecommendForUser(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, productsFromDomain(ps))
}

// POST v1/chatbot JSON {"message", "userEmail"?, "state"?}
// (200 OK, 400 Bad request, 500 Internal server error)
type ChatHandler struct {
	chatter port.Chatter
}

const chatFailedMsg = "Chatbot failed to respond"

func RegisterChat(mux *http.ServeMux, c port.Chatter) {
	h := ChatHandler{c}
	mux.HandleFunc("POST /v1/chatbot", h.Chat)
}

func (h ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	const op = "ChatHandler.Chat"
	log := slog.With("op", op)

	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		log.Warn("invalid request", "err", err)
		return
	}

	reply, err := h.chat(r.Context(), req.toDomain())
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			writeDomainError(w, log, err)
			return
		}
		log.Error("failed to respond", "err", err)
		writeError(w, http.StatusInternalServerError, chatFailedMsg)
		return
	}
	writeJSON(w, http.StatusOK, chatResponseFromDomain(reply))
}

// chat turns a panic of the router into an error, so the client gets
// the chat failure reply.
func (h ChatHandler) chat(
	ctx context.Context, req domain.ChatRequest,
) (reply domain.ChatReply, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("router panicked: %v\n%s", v, debug.Stack())
		}
	}()
	return h.chatter.Chat(ctx, req)
}

// POST v1/orders/cancel JSON {"orderId", "email"}
// GET v1/orders/my Authorization Bearer
// GET v1/admin/orders, PUT v1/admin/orders/{orderId} Authorization Bearer, admin role
type OrdersHandler struct {
	orders port.OrderManager
}

func RegisterOrders(
	mux *http.ServeMux, om port.OrderManager, auth Authenticator,
) {
	h := OrdersHandler{om}
	mux.HandleFunc("POST /v1/orders/cancel", h.Cancel)
	mux.Handle("GET /v1/orders/my", auth.Authenticate(http.HandlerFunc(h.My)))
	mux.Handle("GET /v1/admin/orders", auth.RequireAdmin(http.HandlerFunc(h.All)))
	mux.Handle(
		"PUT /v1/admin/orders/{orderId}",
		auth.RequireAdmin(http.HandlerFunc(h.Update)),
	)
}

func (h OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.Cancel"
	log := slog.With("op", op)

	var req CancelOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		log.Warn("invalid request", "err", err)
		return
	}

	msg, err := h.orders.CancelOrder(r.Context(), req.OrderID, req.Email)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	log.Info("order cancelled", "orderID", req.OrderID)
	writeJSON(w, http.StatusOK, MessageResponse{msg})
}

func (h OrdersHandler) My(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.My"
	log := slog.With("op", op)

	p, _ := principalFrom(r.Context())
	os, err := h.orders.UserOrders(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, ordersFromDomain(os))
}

func (h OrdersHandler) All(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.All"
	log := slog.With("op", op)

	os, err := h.orders.AllOrders(r.Context())
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, ordersFromDomain(os))
}

func (h OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.Update"
	log := slog.With("op", op)

	var req UpdateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		log.Warn("invalid request", "err", err)
		return
	}

	o, err := h.orders.UpdateOrder(
		r.Context(), r.PathValue("orderId"), req.toDomain(),
	)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateOrderResponse{
		Message: "Order updated",
		Order:   orderFromDomain(o),
	})
}

// GET v1/admin/overview, GET v1/admin/sales?days=7
// Authorization Bearer, admin role
type AdminHandler struct {
	reporter port.AdminReporter
}

func RegisterAdmin(
	mux *http.ServeMux, ar port.AdminReporter, auth Authenticator,
) {
	h := AdminHandler{ar}
	mux.Handle(
		"GET /v1/admin/overview",
		auth.RequireAdmin(http.HandlerFunc(h.Overview)),
	)
	mux.Handle(
		"GET /v1/admin/sales",
		auth.RequireAdmin(http.HandlerFunc(h.Sales)),
	)
}

func (h AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.Overview"
	log := slog.With("op", op)

	ov, err := h.reporter.Overview(r.Context())
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, Overview{
		TotalUsers:    ov.TotalUsers,
		TotalOrders:   ov.TotalOrders,
		TotalProducts: ov.TotalProducts,
		TotalRevenue:  ov.TotalRevenue,
	})
}

func (h AdminHandler) Sales(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.Sales"
	log := slog.With("op", op)

	var days int
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = n
	}

	sales, err := h.reporter.Sales(r.Context(), days)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, salesFromDomain(sales))
}

// POST v1/filter/product JSON {"productId", "blocked"}
// Authorization Bearer, admin role (202 Accepted, 400 Bad request)
type FilterHandler struct {
	setter port.ProductFilterSetter
}

func RegisterFilter(
	mux *http.ServeMux, s port.ProductFilterSetter, auth Authenticator,
) {
	h := FilterHandler{s}
	mux.Handle(
		"POST /v1/filter/product",
		auth.RequireAdmin(http.HandlerFunc(h.SetRule)),
	)
}

func (h FilterHandler) SetRule(w http.ResponseWriter, r *http.Request) {
	const op = "FilterHandler.SetRule"
	log := slog.With("op", op)

	var req FilterRule
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		log.Warn("invalid request", "err", err)
		return
	}

	rule := domain.ProductFilter{ProductID: req.ProductID, Blocked: *req.Blocked}
	if err := h.setter.SetRule(r.Context(), rule); err != nil {
		writeDomainError(w, log, err)
		return
	}
	log.Info("filter rule accepted", "productID", rule.ProductID, "blocked", rule.Blocked)
	writeJSON(w, http.StatusAccepted, MessageResponse{"Accepted"})
}

func RegisterMetrics(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
}
