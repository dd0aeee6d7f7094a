package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/niksmo/shop-assistant/internal/adapter/httphandler"
	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	secret    = "test-secret"
	userID    = "7d1b3c9e-2a4f-4c5d-8e6f-000000000001"
	productID = "0b0e7a52-3c1d-4f7a-9b8e-000000000001"
	orderID   = "5f8e2a10-9c3b-4d7e-a1f2-000000000001"
)

type MockService struct {
	mock.Mock
}

func (s *MockService) Search(ctx context.Context, q string) ([]domain.Product, error) {
	args := s.Called(ctx, q)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (s *MockService) FrequentlyBoughtTogether(
	ctx context.Context, id string,
) ([]domain.Product, error) {
	args := s.Called(ctx, id)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (s *MockService) RecommendForUser(
	ctx context.Context, id string,
) ([]domain.Product, error) {
	args := s.Called(ctx, id)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (s *MockService) Chat(
	ctx context.Context, req domain.ChatRequest,
) (domain.ChatReply, error) {
	args := s.Called(ctx, req)
	return args.Get(0).(domain.ChatReply), args.Error(1)
}

func (s *MockService) CancelOrder(
	ctx context.Context, orderID, email string,
) (string, error) {
	args := s.Called(ctx, orderID, email)
	return args.String(0), args.Error(1)
}

func (s *MockService) UpdateOrder(
	ctx context.Context, orderID string, upd domain.OrderUpdate,
) (domain.Order, error) {
	args := s.Called(ctx, orderID, upd)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (s *MockService) UserOrders(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	args := s.Called(ctx, userID)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (s *MockService) AllOrders(ctx context.Context) ([]domain.Order, error) {
	args := s.Called(ctx)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (s *MockService) Overview(ctx context.Context) (domain.Overview, error) {
	args := s.Called(ctx)
	return args.Get(0).(domain.Overview), args.Error(1)
}

func (s *MockService) Sales(
	ctx context.Context, days int,
) ([]domain.DailySales, error) {
	args := s.Called(ctx, days)
	return args.Get(0).([]domain.DailySales), args.Error(1)
}

func (s *MockService) SetRule(ctx context.Context, f domain.ProductFilter) error {
	args := s.Called(ctx, f)
	return args.Error(0)
}

func newHandler(t *testing.T, s *MockService) http.Handler {
	t.Helper()

	auth, err := httphandler.NewAuthenticator(secret)
	require.NoError(t, err)

	mux := http.NewServeMux()
	httphandler.RegisterSearch(mux, s, s)
	httphandler.RegisterRecommendations(mux, s, auth)
	httphandler.RegisterChat(mux, s)
	httphandler.RegisterOrders(mux, s, auth)
	httphandler.RegisterAdmin(mux, s, auth)
	httphandler.RegisterFilter(mux, s, auth)
	httphandler.RegisterMetrics(mux)
	return httphandler.AllowJSON(mux)
}

func token(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func userToken(t *testing.T) string {
	return token(t, jwt.MapClaims{"id": userID, "role": "user"}, secret)
}

func adminToken(t *testing.T) string {
	return token(t, jwt.MapClaims{"id": userID, "role": "admin"}, secret)
}

func do(
	t *testing.T, h http.Handler, method, target, body, bearer string,
) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e httphandler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e.Error
}

func TestSearch(t *testing.T) {
	t.Run("RankedProducts", func(t *testing.T) {
		s := new(MockService)
		s.On("Search", mock.Anything, "bag under 150").Return([]domain.Product{
			{ProductID: productID, Name: "Leather Bag", Price: 90, Category: "Bags"},
		}, nil)

		w := do(t, newHandler(t, s), "GET", "/v1/search?query=bag+under+150", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var ps []httphandler.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ps))
		require.Len(t, ps, 1)
		assert.Equal(t, productID, ps[0].ID)
		assert.Equal(t, 90.0, ps[0].Price)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		s := new(MockService)
		s.On("Search", mock.Anything, "").
			Return([]domain.Product(nil), fmt.Errorf("Service.Search: %w", domain.ErrEmptyQuery))

		w := do(t, newHandler(t, s), "GET", "/v1/search", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "query is required", errorBody(t, w))
	})

	t.Run("EmptyResultIsArray", func(t *testing.T) {
		s := new(MockService)
		s.On("Search", mock.Anything, "zzz").Return([]domain.Product{}, nil)

		w := do(t, newHandler(t, s), "GET", "/v1/search?query=zzz", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})

	t.Run("InternalDetailHidden", func(t *testing.T) {
		s := new(MockService)
		s.On("Search", mock.Anything, "bag").
			Return([]domain.Product(nil), errors.New("pq: password authentication failed"))

		w := do(t, newHandler(t, s), "GET", "/v1/search?query=bag", "", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
	})
}

func TestFrequent(t *testing.T) {
	t.Run("PathValue", func(t *testing.T) {
		s := new(MockService)
		s.On("FrequentlyBoughtTogether", mock.Anything, productID).
			Return([]domain.Product{{ProductID: productID, Name: "Bag"}}, nil)

		w := do(t, newHandler(t, s), "GET", "/v1/frequent/"+productID, "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		s.AssertExpectations(t)
	})

	t.Run("Malformed", func(t *testing.T) {
		s := new(MockService)
		s.On("FrequentlyBoughtTogether", mock.Anything, "66a1f2").
			Return([]domain.Product(nil), domain.ErrInvalidID)

		w := do(t, newHandler(t, s), "GET", "/v1/frequent/66a1f2", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid identifier", errorBody(t, w))
	})
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name   string
		bearer func(t *testing.T) string
		wantID string
		code   int
	}{
		{
			name:   "NoToken",
			bearer: func(*testing.T) string { return "" },
			code:   http.StatusUnauthorized,
		},
		{
			name: "WrongSecret",
			bearer: func(t *testing.T) string {
				return token(t, jwt.MapClaims{"id": userID}, "other")
			},
			code: http.StatusUnauthorized,
		},
		{
			name: "Expired",
			bearer: func(t *testing.T) string {
				return token(t, jwt.MapClaims{
					"id": userID, "exp": time.Now().Add(-time.Minute).Unix(),
				}, secret)
			},
			code: http.StatusUnauthorized,
		},
		{
			name: "NoUserClaim",
			bearer: func(t *testing.T) string {
				return token(t, jwt.MapClaims{"role": "user"}, secret)
			},
			code: http.StatusUnauthorized,
		},
		{
			name:   "IDClaim",
			bearer: userToken,
			wantID: userID,
			code:   http.StatusOK,
		},
		{
			name: "SubjectFallback",
			bearer: func(t *testing.T) string {
				return token(t, jwt.MapClaims{"sub": userID}, secret)
			},
			wantID: userID,
			code:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(MockService)
			if tt.wantID != "" {
				s.On("RecommendForUser", mock.Anything, tt.wantID).
					Return([]domain.Product{}, nil).Once()
			}

			w := do(t, newHandler(t, s), "GET", "/v1/recommendations/user", "", tt.bearer(t))
			assert.Equal(t, tt.code, w.Code)
			s.AssertExpectations(t)
		})
	}
}

func TestChat(t *testing.T) {
	t.Run("ReplyWithState", func(t *testing.T) {
		s := new(MockService)
		s.On("Chat", mock.Anything, domain.ChatRequest{
			Message: "where is my order",
			State:   domain.ConversationState{},
		}).Return(domain.ChatReply{
			Reply:    "Please provide your email to fetch your orders.",
			Products: []domain.ProductBrief{},
			State: domain.ConversationState{
				AwaitingEmail: true, PendingMessage: "where is my order",
			},
		}, nil)

		w := do(t, newHandler(t, s), "POST", "/v1/chatbot",
			`{"message":"where is my order"}`, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"reply": "Please provide your email to fetch your orders.",
			"products": [],
			"state": {"awaitingEmail": true, "pendingMessage": "where is my order"}
		}`, w.Body.String())
	})

	t.Run("StatePassedThrough", func(t *testing.T) {
		s := new(MockService)
		s.On("Chat", mock.Anything, domain.ChatRequest{
			Message: "ann@example.com",
			State: domain.ConversationState{
				AwaitingEmail: true, PendingMessage: "track my order",
			},
		}).Return(domain.ChatReply{Reply: "ok"}, nil)

		w := do(t, newHandler(t, s), "POST", "/v1/chatbot", `{
			"message": "ann@example.com",
			"state": {"awaitingEmail": true, "pendingMessage": "track my order"}
		}`, "")
		assert.Equal(t, http.StatusOK, w.Code)
		s.AssertExpectations(t)
	})

	t.Run("MissingMessage", func(t *testing.T) {
		w := do(t, newHandler(t, new(MockService)), "POST", "/v1/chatbot", `{}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorBody(t, w), "message")
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		w := do(t, newHandler(t, new(MockService)), "POST", "/v1/chatbot",
			`{"message":"hi","userEmail":"nope"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorBody(t, w), "userEmail")
	})

	t.Run("BlankMessage", func(t *testing.T) {
		s := new(MockService)
		s.On("Chat", mock.Anything, mock.Anything).
			Return(domain.ChatReply{}, domain.ErrEmptyMessage)

		w := do(t, newHandler(t, s), "POST", "/v1/chatbot", `{"message":"   "}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("InternalFailure", func(t *testing.T) {
		s := new(MockService)
		s.On("Chat", mock.Anything, mock.Anything).
			Return(domain.ChatReply{}, errors.New("store is down"))

		w := do(t, newHandler(t, s), "POST", "/v1/chatbot", `{"message":"bags"}`, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Chatbot failed to respond", errorBody(t, w))
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		w := do(t, newHandler(t, new(MockService)), "POST", "/v1/chatbot", `{"message":`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid JSON data", errorBody(t, w))
	})
}

func TestCancelOrder(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "Cancelled", code: http.StatusOK},
		{name: "Mismatch", err: domain.ErrOrderMismatch, code: http.StatusNotFound},
		{name: "Unknown", err: domain.ErrNotFound, code: http.StatusNotFound},
		{name: "Already", err: domain.ErrAlreadyCancelled, code: http.StatusBadRequest},
		{name: "Malformed", err: domain.ErrInvalidID, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(MockService)
			msg := ""
			if tt.err == nil {
				msg = "Order " + orderID + " has been cancelled."
			}
			s.On("CancelOrder", mock.Anything, orderID, "ann@example.com").
				Return(msg, tt.err)

			w := do(t, newHandler(t, s), "POST", "/v1/orders/cancel",
				`{"orderId":"`+orderID+`","email":"ann@example.com"}`, "")
			assert.Equal(t, tt.code, w.Code)
			if tt.err == nil {
				assert.JSONEq(t, `{"message":"`+msg+`"}`, w.Body.String())
			}
		})
	}

	t.Run("EmailRequired", func(t *testing.T) {
		w := do(t, newHandler(t, new(MockService)), "POST", "/v1/orders/cancel",
			`{"orderId":"`+orderID+`"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrders(t *testing.T) {
	eta := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	order := domain.Order{
		OrderID:        orderID,
		UserID:         userID,
		OrderedAt:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Status:         domain.StatusShipped,
		TrackingNumber: "TRK1",
		StatusHistory: []domain.StatusChange{
			{Status: domain.StatusPending, ChangedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
		},
		EstimatedDelivery: &eta,
		TotalAmount:       180,
		Lines: []domain.OrderLine{
			{ProductID: productID, Name: "Bag", Price: 90, Quantity: 2},
		},
	}

	t.Run("MyOrders", func(t *testing.T) {
		s := new(MockService)
		s.On("UserOrders", mock.Anything, userID).Return([]domain.Order{order}, nil)

		w := do(t, newHandler(t, s), "GET", "/v1/orders/my", "", userToken(t))
		require.Equal(t, http.StatusOK, w.Code)

		var os []httphandler.Order
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &os))
		require.Len(t, os, 1)
		assert.Equal(t, orderID, os[0].ID)
		assert.Equal(t, "Shipped", os[0].Status)
		assert.Equal(t, 2, os[0].Items[0].Quantity)
		require.NotNil(t, os[0].EstimatedDelivery)
		assert.True(t, eta.Equal(*os[0].EstimatedDelivery))
	})

	t.Run("AllOrdersAdminOnly", func(t *testing.T) {
		s := new(MockService)
		s.On("AllOrders", mock.Anything).Return([]domain.Order{order}, nil)
		h := newHandler(t, s)

		w := do(t, h, "GET", "/v1/admin/orders", "", userToken(t))
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = do(t, h, "GET", "/v1/admin/orders", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = do(t, h, "GET", "/v1/admin/orders", "", adminToken(t))
		assert.Equal(t, http.StatusOK, w.Code)
		s.AssertNumberOfCalls(t, "AllOrders", 1)
	})

	t.Run("UpdateOrder", func(t *testing.T) {
		s := new(MockService)
		shipped := domain.StatusShipped
		tracking := "TRK1"
		s.On("UpdateOrder", mock.Anything, orderID, domain.OrderUpdate{
			Status: &shipped, TrackingNumber: &tracking,
		}).Return(order, nil)

		w := do(t, newHandler(t, s), "PUT", "/v1/admin/orders/"+orderID,
			`{"status":"Shipped","trackingNumber":"TRK1"}`, adminToken(t))
		require.Equal(t, http.StatusOK, w.Code)

		var resp httphandler.UpdateOrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Order updated", resp.Message)
		assert.Equal(t, orderID, resp.Order.ID)
	})

	t.Run("UpdateInvalidStatus", func(t *testing.T) {
		w := do(t, newHandler(t, new(MockService)), "PUT", "/v1/admin/orders/"+orderID,
			`{"status":"Lost"}`, adminToken(t))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorBody(t, w), "status")
	})

	t.Run("UpdateUnknownOrder", func(t *testing.T) {
		s := new(MockService)
		s.On("UpdateOrder", mock.Anything, orderID, domain.OrderUpdate{}).
			Return(domain.Order{}, domain.ErrNotFound)

		w := do(t, newHandler(t, s), "PUT", "/v1/admin/orders/"+orderID, `{}`, adminToken(t))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdmin(t *testing.T) {
	t.Run("Overview", func(t *testing.T) {
		s := new(MockService)
		s.On("Overview", mock.Anything).Return(domain.Overview{
			TotalUsers: 3, TotalOrders: 5, TotalProducts: 12, TotalRevenue: 420.5,
		}, nil)

		w := do(t, newHandler(t, s), "GET", "/v1/admin/overview", "", adminToken(t))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"totalUsers": 3, "totalOrders": 5,
			"totalProducts": 12, "totalRevenue": 420.5
		}`, w.Body.String())
	})

	t.Run("SalesDefault", func(t *testing.T) {
		s := new(MockService)
		s.On("Sales", mock.Anything, 0).Return([]domain.DailySales{
			{Day: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), Total: 0},
			{Day: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Total: 99.9},
		}, nil)

		w := do(t, newHandler(t, s), "GET", "/v1/admin/sales", "", adminToken(t))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[
			{"day": "2025-03-09", "total": 0},
			{"day": "2025-03-10", "total": 99.9}
		]`, w.Body.String())
	})

	t.Run("SalesDays", func(t *testing.T) {
		s := new(MockService)
		s.On("Sales", mock.Anything, 30).Return([]domain.DailySales{}, nil)

		w := do(t, newHandler(t, s), "GET", "/v1/admin/sales?days=30", "", adminToken(t))
		assert.Equal(t, http.StatusOK, w.Code)
		s.AssertExpectations(t)
	})

	t.Run("SalesNotANumber", func(t *testing.T) {
		w := do(t, newHandler(t, new(MockService)), "GET", "/v1/admin/sales?days=week", "", adminToken(t))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("SalesOutOfRange", func(t *testing.T) {
		s := new(MockService)
		s.On("Sales", mock.Anything, 365).
			Return([]domain.DailySales(nil), domain.ErrInvalidRange)

		w := do(t, newHandler(t, s), "GET", "/v1/admin/sales?days=365", "", adminToken(t))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestFilter(t *testing.T) {
	t.Run("Unblock", func(t *testing.T) {
		s := new(MockService)
		s.On("SetRule", mock.Anything, domain.ProductFilter{
			ProductID: productID, Blocked: false,
		}).Return(nil)

		w := do(t, newHandler(t, s), "POST", "/v1/filter/product",
			`{"productId":"`+productID+`","blocked":false}`, adminToken(t))
		assert.Equal(t, http.StatusAccepted, w.Code)
		s.AssertExpectations(t)
	})

	t.Run("BlockedRequired", func(t *testing.T) {
		w := do(t, newHandler(t, new(MockService)), "POST", "/v1/filter/product",
			`{"productId":"`+productID+`"}`, adminToken(t))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorBody(t, w), "blocked")
	})

	t.Run("MalformedID", func(t *testing.T) {
		w := do(t, newHandler(t, new(MockService)), "POST", "/v1/filter/product",
			`{"productId":"66a1f2","blocked":true}`, adminToken(t))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ProducerDown", func(t *testing.T) {
		s := new(MockService)
		s.On("SetRule", mock.Anything, mock.Anything).
			Return(errors.New("kafka: not enough replicas"))

		w := do(t, newHandler(t, s), "POST", "/v1/filter/product",
			`{"productId":"`+productID+`","blocked":true}`, adminToken(t))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAllowJSON(t *testing.T) {
	s := new(MockService)
	s.On("Chat", mock.Anything, mock.Anything).Return(domain.ChatReply{}, nil)
	h := newHandler(t, s)

	r := httptest.NewRequest("POST", "/v1/chatbot", strings.NewReader(`{"message":"hi"}`))
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	r = httptest.NewRequest("POST", "/v1/chatbot", strings.NewReader(`{"message":"hi"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics(t *testing.T) {
	w := do(t, newHandler(t, new(MockService)), "GET", "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNewAuthenticator(t *testing.T) {
	_, err := httphandler.NewAuthenticator("")
	assert.Error(t, err)
}

func TestChatRouterPanic(t *testing.T) {
	s := new(MockService)
	s.On("Chat", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			var m map[string]int
			m["turn"]++
		}).
		Return(domain.ChatReply{}, nil)

	w := do(t, newHandler(t, s), "POST", "/v1/chatbot", `{"message":"hi"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Chatbot failed to respond", errorBody(t, w))
}

func TestRecover(t *testing.T) {
	t.Run("PanicIsInternalError", func(t *testing.T) {
		s := new(MockService)
		s.On("Search", mock.Anything, "bag").
			Run(func(mock.Arguments) { panic("boom") }).
			Return([]domain.Product{}, nil)

		h := httphandler.Recover(newHandler(t, s))
		w := do(t, h, "GET", "/v1/search?query=bag", "", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", errorBody(t, w))
	})

	t.Run("NoPanic", func(t *testing.T) {
		s := new(MockService)
		s.On("Search", mock.Anything, "bag").Return([]domain.Product{}, nil)

		h := httphandler.Recover(newHandler(t, s))
		w := do(t, h, "GET", "/v1/search?query=bag", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("AbortPassesThrough", func(t *testing.T) {
		h := httphandler.Recover(http.HandlerFunc(
			func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) },
		))
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			do(t, h, "GET", "/", "", "")
		})
	})
}
