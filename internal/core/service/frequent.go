package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/metrics"
)

const frequentLimit = 5

// FrequentlyBoughtTogether returns up to five products most often
// ordered with productID. When none of them is available it answers
// with the best sellers, then with any other catalog products, so the
// result is empty only when the catalog has nothing else to offer.
func (s Service) FrequentlyBoughtTogether(
	ctx context.Context, productID string,
) ([]domain.Product, error) {
	const op = "Service.FrequentlyBoughtTogether"
	log := slog.With("op", op)

	id, err := domain.ParseID(productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := s.orders.OrdersWithProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := CoPurchased(orders, id, frequentLimit)
	ps, err := s.productsInOrder(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(ps) != 0 {
		return ps, nil
	}

	metrics.CoPurchaseFallbacks.Inc()
	log.Debug(
		"no available co-purchases, using best sellers",
		"product_id", id, "co_purchased", len(ids),
	)

	ids, err = s.bestSellers(ctx, id, frequentLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ps, err = s.productsInOrder(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(ps) != 0 {
		return ps, nil
	}

	log.Debug("no available best sellers, using catalog", "product_id", id)
	ps, err = s.catalogProducts(ctx, id, frequentLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// CoPurchased tallies every order line of orders except target lines
// and returns at most limit identifiers by descending count.
// Equal counts keep first seen order.
func CoPurchased(orders []domain.Order, target string, limit int) []string {
	type tally struct {
		id    string
		count int
	}

	index := make(map[string]int)
	var tallies []tally
	for _, o := range orders {
		for _, l := range o.Lines {
			if l.ProductID == "" || l.ProductID == target {
				continue
			}
			i, ok := index[l.ProductID]
			if !ok {
				i = len(tallies)
				index[l.ProductID] = i
				tallies = append(tallies, tally{id: l.ProductID})
			}
			tallies[i].count++
		}
	}

	slices.SortStableFunc(tallies, func(a, b tally) int {
		return cmp.Compare(b.count, a.count)
	})

	ids := make([]string, 0, min(limit, len(tallies)))
	for _, t := range tallies[:min(limit, len(tallies))] {
		ids = append(ids, t.id)
	}
	return ids
}

func (s Service) bestSellers(
	ctx context.Context, excludeID string, limit int,
) ([]string, error) {
	top, err := s.orders.BestSellers(ctx, excludeID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(top))
	for _, pq := range top {
		if pq.ProductID == excludeID {
			continue
		}
		ids = append(ids, pq.ProductID)
	}
	return ids, nil
}

// catalogProducts returns up to limit visible catalog products other
// than excludeID in catalog order. Blocked products are skipped, so the
// query is widened until limit is reached or the catalog is exhausted.
func (s Service) catalogProducts(
	ctx context.Context, excludeID string, limit int,
) ([]domain.Product, error) {
	exclude := []string{excludeID}
	out := []domain.Product{}
	for len(out) < limit {
		batch, err := s.products.FindProducts(ctx, domain.ProductQuery{
			ExcludeIDs: exclude,
			Limit:      limit,
		})
		if err != nil {
			return nil, err
		}
		for _, p := range batch {
			exclude = append(exclude, p.ProductID)
			if s.blocks != nil && s.blocks.IsBlocked(p.ProductID) {
				continue
			}
			if len(out) < limit {
				out = append(out, p)
			}
		}
		if len(batch) < limit {
			break
		}
	}
	return out, nil
}
