package service_test

import (
	"context"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) ProductByID(
	ctx context.Context, id string,
) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductStore) ProductsByIDs(
	ctx context.Context, ids []string,
) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockProductStore) FindProducts(
	ctx context.Context, q domain.ProductQuery,
) ([]domain.Product, error) {
	args := m.Called(ctx, q)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockProductStore) CountProducts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockProductStore) StoreProducts(
	ctx context.Context, ps []domain.Product,
) error {
	return m.Called(ctx, ps).Error(0)
}

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) OrdersWithProduct(
	ctx context.Context, productID string,
) ([]domain.Order, error) {
	args := m.Called(ctx, productID)
	os, _ := args.Get(0).([]domain.Order)
	return os, args.Error(1)
}

func (m *MockOrderStore) OrdersByUser(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	os, _ := args.Get(0).([]domain.Order)
	return os, args.Error(1)
}

func (m *MockOrderStore) AllOrders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	os, _ := args.Get(0).([]domain.Order)
	return os, args.Error(1)
}

func (m *MockOrderStore) BestSellers(
	ctx context.Context, excludeID string, limit int,
) ([]domain.ProductQuantity, error) {
	args := m.Called(ctx, excludeID, limit)
	pq, _ := args.Get(0).([]domain.ProductQuantity)
	return pq, args.Error(1)
}

func (m *MockOrderStore) SalesByDay(
	ctx context.Context, from, to time.Time,
) ([]domain.DailySales, error) {
	args := m.Called(ctx, from, to)
	ds, _ := args.Get(0).([]domain.DailySales)
	return ds, args.Error(1)
}

func (m *MockOrderStore) CountOrders(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderStore) Revenue(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

// UpdateOrder applies fn to a copy of the order registered with
// the "Order" call, the way a store does inside its transaction.
func (m *MockOrderStore) UpdateOrder(
	ctx context.Context, orderID string, fn func(*domain.Order) error,
) (domain.Order, error) {
	args := m.Called(ctx, orderID)
	if err := args.Error(1); err != nil {
		return domain.Order{}, err
	}
	o := args.Get(0).(domain.Order)
	if err := fn(&o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) UserByEmail(
	ctx context.Context, email string,
) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserStore) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockRanker struct {
	mock.Mock
}

func (m *MockRanker) Rank(ctx context.Context, arg string) ([]string, error) {
	args := m.Called(ctx, arg)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(
	ctx context.Context, instruction, prompt string,
) (string, error) {
	args := m.Called(ctx, instruction, prompt)
	return args.String(0), args.Error(1)
}

type MockFilterProducer struct {
	mock.Mock
}

func (m *MockFilterProducer) ProduceFilter(
	ctx context.Context, pf domain.ProductFilter,
) error {
	return m.Called(ctx, pf).Error(0)
}
