package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/fusion"
)

// Search returns the products for a free text query, semantic ranking
// first and the attribute store when the ranking yields nothing.
func (s Service) Search(
	ctx context.Context, query string,
) ([]domain.Product, error) {
	const op = "Service.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrEmptyQuery)
	}

	ps, err := s.rankAndFuse(ctx, query, fusion.ModeFallback, "search")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return nonNil(ps), nil
}
