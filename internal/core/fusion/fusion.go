// Package fusion merges a semantic candidate ranking with deterministic
// store filters.
//
// Items present in the candidate ranking always keep their relative
// ranking order in the output, whatever path produced them.
package fusion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/port"
)

type Mode int

const (
	// ModeFallback uses store matches only when the ranking yields nothing.
	ModeFallback Mode = iota

	// ModeMerge appends store matches to the ranked records
	// whenever filters are active or the ranking yields nothing.
	ModeMerge
)

type Source string

const (
	SourceNone   Source = "none"
	SourceRanked Source = "ranked"
	SourceStore  Source = "store"
	SourceMerged Source = "merged"
)

type Request struct {
	Ranking []string
	// RankErr is the ranking failure, if any. Ranking is ignored then.
	RankErr error
	Filters domain.Filters
	Mode    Mode
}

type Result struct {
	Products []domain.Product
	Source   Source
}

// Fallback reports whether the store query had to replace the ranking.
func (r Result) Fallback() bool {
	return r.Source == SourceStore
}

type Fuser struct {
	store  port.ProductStore
	blocks port.BlockList
}

// New returns a [Fuser]. Blocks may be nil.
func New(store port.ProductStore, blocks port.BlockList) Fuser {
	return Fuser{store: store, blocks: blocks}
}

func (f Fuser) Fuse(ctx context.Context, req Request) (Result, error) {
	const op = "Fuser.Fuse"
	log := slog.With("op", op)

	ranking := req.Ranking
	if req.RankErr != nil {
		ranking = nil
	}

	ranked, err := f.ranked(ctx, ranking, req.Filters)
	if err != nil {
		log.Error("failed to fetch ranked candidates", "err", err)
		ranked = nil
	}

	if len(ranked) != 0 && !f.needStore(req) {
		return Result{Products: ranked, Source: SourceRanked}, nil
	}

	q := f.storeQuery(req, ranking)
	var extra []domain.Product
	if !q.Empty() {
		extra, err = f.store.FindProducts(ctx, q)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", op, err)
		}
		extra = f.dropBlocked(extra)
	}

	products := RankOrder(Merge(ranked, extra), ranking)

	switch {
	case len(products) == 0:
		return Result{Source: SourceNone}, nil
	case len(ranked) == 0:
		return Result{Products: products, Source: SourceStore}, nil
	case len(extra) == 0:
		return Result{Products: products, Source: SourceRanked}, nil
	default:
		return Result{Products: products, Source: SourceMerged}, nil
	}
}

func (f Fuser) needStore(req Request) bool {
	return req.Mode == ModeMerge && req.Filters.Active()
}

func (f Fuser) ranked(
	ctx context.Context, ranking []string, filters domain.Filters,
) ([]domain.Product, error) {
	if len(ranking) == 0 {
		return nil, nil
	}

	products, err := f.store.ProductsByIDs(ctx, ranking)
	if err != nil {
		return nil, err
	}

	products = FilterProducts(products, filters)
	products = f.dropBlocked(products)
	return OrderByIDs(products, ranking), nil
}

func (f Fuser) storeQuery(req Request, ranking []string) domain.ProductQuery {
	q := domain.ProductQuery{Bounds: req.Filters.Bounds}

	switch {
	case len(req.Filters.Keywords) != 0:
		q.Terms = slices.Clone(req.Filters.Keywords)
	case req.Filters.Residual != "":
		q.Terms = []string{req.Filters.Residual}
	}

	if req.Mode == ModeMerge {
		q.ExcludeIDs = ranking
	}
	return q
}

// dropBlocked returns a new slice, products returned by the store
// are never modified.
func (f Fuser) dropBlocked(products []domain.Product) []domain.Product {
	if f.blocks == nil {
		return products
	}
	return slices.DeleteFunc(slices.Clone(products), func(p domain.Product) bool {
		return f.blocks.IsBlocked(p.ProductID)
	})
}

// FilterProducts keeps the products satisfying the price bounds
// and, when keywords are set, matching any keyword by name,
// category or description.
func FilterProducts(
	products []domain.Product, filters domain.Filters,
) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !filters.Bounds.Contains(p.Price) {
			continue
		}
		if len(filters.Keywords) != 0 && !matchAny(p, filters.Keywords) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchAny(p domain.Product, keywords []string) bool {
	fields := []string{
		strings.ToLower(p.Name),
		strings.ToLower(p.Category),
		strings.ToLower(p.Description),
	}
	for _, k := range keywords {
		k = strings.ToLower(k)
		for _, f := range fields {
			if strings.Contains(f, k) {
				return true
			}
		}
	}
	return false
}

// OrderByIDs returns the products in ids order.
// Products absent from ids and ids without a product are dropped.
func OrderByIDs(products []domain.Product, ids []string) []domain.Product {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}

	out := make([]domain.Product, 0, len(products))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, p)
		delete(byID, id)
	}
	return out
}

// Merge concatenates primary and extra, skipping repeated identifiers.
func Merge(primary, extra []domain.Product) []domain.Product {
	seen := make(map[string]struct{}, len(primary)+len(extra))
	out := make([]domain.Product, 0, len(primary)+len(extra))
	for _, list := range [][]domain.Product{primary, extra} {
		for _, p := range list {
			if _, ok := seen[p.ProductID]; ok {
				continue
			}
			seen[p.ProductID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// RankOrder moves the products present in ranking to the front,
// in ranking order, and keeps the rest in their current order.
func RankOrder(products []domain.Product, ranking []string) []domain.Product {
	if len(ranking) == 0 {
		return products
	}

	pos := make(map[string]int, len(ranking))
	for i, id := range ranking {
		if _, ok := pos[id]; !ok {
			pos[id] = i
		}
	}

	var inRanking, rest []domain.Product
	for _, p := range products {
		if _, ok := pos[p.ProductID]; ok {
			inRanking = append(inRanking, p)
			continue
		}
		rest = append(rest, p)
	}

	slices.SortStableFunc(inRanking, func(a, b domain.Product) int {
		return pos[a.ProductID] - pos[b.ProductID]
	})
	return append(inRanking, rest...)
}
