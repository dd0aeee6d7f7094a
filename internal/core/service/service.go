package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/fusion"
	"github.com/niksmo/shop-assistant/internal/core/intent"
	"github.com/niksmo/shop-assistant/internal/core/port"
	"github.com/niksmo/shop-assistant/internal/metrics"
)

var (
	_ port.Searcher            = (*Service)(nil)
	_ port.FrequentRecommender = (*Service)(nil)
	_ port.UserRecommender     = (*Service)(nil)
	_ port.Chatter             = (*Service)(nil)
	_ port.OrderManager        = (*Service)(nil)
	_ port.AdminReporter       = (*Service)(nil)
	_ port.ProductsSaver       = (*Service)(nil)
	_ port.ProductFilterSetter = (*Service)(nil)
)

// Deps are the collaborators of [Service].
// Generator, Blocks and Now are optional.
type Deps struct {
	Products        port.ProductStore
	ProductsStorage port.ProductsStorage
	Orders          port.OrderStore
	Users           port.UserStore
	SearchRanker    port.Ranker
	UserRanker      port.Ranker
	Generator       port.Generator
	Blocks          port.BlockList
	FilterProducer  port.ProductFilterProducer
	Now             func() time.Time
}

type Service struct {
	products        port.ProductStore
	productsStorage port.ProductsStorage
	orders          port.OrderStore
	users           port.UserStore
	searchRanker    port.Ranker
	userRanker      port.Ranker
	generator       port.Generator
	blocks          port.BlockList
	filterProducer  port.ProductFilterProducer

	extractor intent.Extractor
	fuser     fusion.Fuser
	now       func() time.Time
}

func New(d Deps) Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	return Service{
		products:        d.Products,
		productsStorage: d.ProductsStorage,
		orders:          d.Orders,
		users:           d.Users,
		searchRanker:    d.SearchRanker,
		userRanker:      d.UserRanker,
		generator:       d.Generator,
		blocks:          d.Blocks,
		filterProducer:  d.FilterProducer,
		extractor:       intent.New(),
		fuser:           fusion.New(d.Products, d.Blocks),
		now:             now,
	}
}

// rankAndFuse ranks text with the search ranker and fuses the ranking
// with the filters extracted from the same text.
// Ranker failures are recovered here, store failures are returned.
func (s Service) rankAndFuse(
	ctx context.Context, text string, mode fusion.Mode, path string,
) ([]domain.Product, error) {
	const op = "Service.rankAndFuse"
	log := slog.With("op", op, "path", path)

	ranking, rankErr := s.searchRanker.Rank(ctx, text)
	if rankErr != nil {
		log.Warn("semantic ranking unavailable", "err", rankErr)
	}

	res, err := s.fuser.Fuse(ctx, fusion.Request{
		Ranking: ranking,
		RankErr: rankErr,
		Filters: s.extractor.Filters(text),
		Mode:    mode,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if res.Fallback() {
		metrics.SearchFallbacks.WithLabelValues(path).Inc()
	}
	log.Debug("fused", "source", res.Source, "count", len(res.Products))
	return res.Products, nil
}

// productsInOrder fetches the products and returns them in ids order
// without blocked ones.
func (s Service) productsInOrder(
	ctx context.Context, ids []string,
) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ps, err := s.products.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := fusion.OrderByIDs(ps, ids)
	if s.blocks == nil {
		return out, nil
	}
	visible := out[:0]
	for _, p := range out {
		if !s.blocks.IsBlocked(p.ProductID) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

func nonNil(ps []domain.Product) []domain.Product {
	if ps == nil {
		return []domain.Product{}
	}
	return ps
}
