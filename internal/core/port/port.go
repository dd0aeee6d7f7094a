package port

import (
	"context"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
)

////////////////////////////////////////////////////////
////////////           INBOUND            //////////////
////////////////////////////////////////////////////////

type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.Product, error)
}

type FrequentRecommender interface {
	FrequentlyBoughtTogether(
		ctx context.Context, productID string,
	) ([]domain.Product, error)
}

type UserRecommender interface {
	RecommendForUser(ctx context.Context, userID string) ([]domain.Product, error)
}

type Chatter interface {
	Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error)
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID, email string) (string, error)
}

type OrderManager interface {
	OrderCanceller
	UpdateOrder(
		ctx context.Context, orderID string, upd domain.OrderUpdate,
	) (domain.Order, error)
	UserOrders(ctx context.Context, userID string) ([]domain.Order, error)
	AllOrders(ctx context.Context) ([]domain.Order, error)
}

type AdminReporter interface {
	Overview(ctx context.Context) (domain.Overview, error)
	Sales(ctx context.Context, days int) ([]domain.DailySales, error)
}

type ProductsSaver interface {
	SaveProducts(context.Context, []domain.Product) error
}

type ProductFilterSetter interface {
	SetRule(context.Context, domain.ProductFilter) error
}

////////////////////////////////////////////////////////
////////////           OUTBOUND            /////////////
////////////////////////////////////////////////////////

// A ProductStore is the read side of the catalog.
//
// ProductsByIDs does not guarantee any order of the result.
type ProductStore interface {
	ProductByID(ctx context.Context, id string) (domain.Product, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	FindProducts(
		ctx context.Context, q domain.ProductQuery,
	) ([]domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
}

type ProductsStorage interface {
	StoreProducts(context.Context, []domain.Product) error
}

// An OrderStore provides order reads, aggregates and
// atomic single order updates.
type OrderStore interface {
	OrdersWithProduct(
		ctx context.Context, productID string,
	) ([]domain.Order, error)
	OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	AllOrders(ctx context.Context) ([]domain.Order, error)
	BestSellers(
		ctx context.Context, excludeID string, limit int,
	) ([]domain.ProductQuantity, error)
	SalesByDay(
		ctx context.Context, from, to time.Time,
	) ([]domain.DailySales, error)
	CountOrders(ctx context.Context) (int, error)
	Revenue(ctx context.Context) (float64, error)

	// UpdateOrder locks the order, applies fn and persists
	// the status, tracking fields and appended history entries.
	UpdateOrder(
		ctx context.Context, orderID string, fn func(*domain.Order) error,
	) (domain.Order, error)
}

type UserStore interface {
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// A Ranker returns identifiers ordered most relevant first.
// Any failure is reported with an error matching [domain.ErrRankingFailed].
type Ranker interface {
	Rank(ctx context.Context, arg string) ([]string, error)
}

type Generator interface {
	Generate(ctx context.Context, instruction, prompt string) (string, error)
}

type BlockList interface {
	IsBlocked(productID string) bool
}

type ProductFilterProducer interface {
	ProduceFilter(context.Context, domain.ProductFilter) error
}
