package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/metrics"
)

const userRecommendLimit = 10

// RecommendForUser returns the personalized ranking for userID.
// When the ranker fails the best sellers are returned instead.
func (s Service) RecommendForUser(
	ctx context.Context, userID string,
) ([]domain.Product, error) {
	const op = "Service.RecommendForUser"
	log := slog.With("op", op)

	if userID == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	ids, err := s.userRanker.Rank(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrRankingFailed) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Warn("user ranking unavailable, using best sellers", "err", err)
		metrics.SearchFallbacks.WithLabelValues("user_recommendations").Inc()

		ids, err = s.bestSellers(ctx, "", userRecommendLimit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if len(ids) > userRecommendLimit {
		ids = ids[:userRecommendLimit]
	}

	ps, err := s.productsInOrder(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}
