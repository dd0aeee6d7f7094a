package service

import (
	"context"
	"fmt"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSalesDays = 7
	MaxSalesDays     = 90
)

func (s Service) Overview(ctx context.Context) (domain.Overview, error) {
	const op = "Service.Overview"

	var ov domain.Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ov.TotalUsers, err = s.users.CountUsers(ctx)
		return
	})
	g.Go(func() (err error) {
		ov.TotalOrders, err = s.orders.CountOrders(ctx)
		return
	})
	g.Go(func() (err error) {
		ov.TotalProducts, err = s.products.CountProducts(ctx)
		return
	})
	g.Go(func() (err error) {
		ov.TotalRevenue, err = s.orders.Revenue(ctx)
		return
	})

	if err := g.Wait(); err != nil {
		return domain.Overview{}, fmt.Errorf("%s: %w", op, err)
	}
	return ov, nil
}

// Sales returns one entry per day for the last days days including
// today, oldest first. Days without sales have a zero total.
// Zero days means [DefaultSalesDays].
func (s Service) Sales(
	ctx context.Context, days int,
) ([]domain.DailySales, error) {
	const op = "Service.Sales"

	if days == 0 {
		days = DefaultSalesDays
	}
	if days < 0 || days > MaxSalesDays {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidRange)
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := today.AddDate(0, 0, -(days - 1))
	to := today.AddDate(0, 0, 1)

	sales, err := s.orders.SalesByDay(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	totals := make(map[string]float64, len(sales))
	for _, ds := range sales {
		totals[ds.Day.UTC().Format(time.DateOnly)] += ds.Total
	}

	out := make([]domain.DailySales, days)
	for i := range out {
		day := from.AddDate(0, 0, i)
		out[i] = domain.DailySales{
			Day:   day,
			Total: totals[day.Format(time.DateOnly)],
		}
	}
	return out, nil
}
