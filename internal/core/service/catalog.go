package service

import (
	"context"
	"fmt"

	"github.com/niksmo/shop-assistant/internal/core/domain"
)

func (s Service) SetRule(ctx context.Context, pf domain.ProductFilter) error {
	const op = "Service.SetRule"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	id, err := domain.ParseID(pf.ProductID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	pf.ProductID = id

	err = s.filterProducer.ProduceFilter(ctx, pf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s Service) SaveProducts(ctx context.Context, ps []domain.Product) error {
	const op = "Service.SaveProducts"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.productsStorage.StoreProducts(ctx, ps)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
