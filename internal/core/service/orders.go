package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
)

const shippedDeliveryDays = 5

// CancelOrder cancels the order when it belongs to the user with email.
// It returns the confirmation text.
func (s Service) CancelOrder(
	ctx context.Context, orderID, email string,
) (string, error) {
	const op = "Service.CancelOrder"
	log := slog.With("op", op)

	id, err := domain.ParseID(orderID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	_, err = s.orders.UpdateOrder(ctx, id, func(o *domain.Order) error {
		if o.UserID != user.UserID {
			return domain.ErrOrderMismatch
		}
		if o.Status == domain.StatusCancelled {
			return domain.ErrAlreadyCancelled
		}
		o.SetStatus(domain.StatusCancelled, now)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("order cancelled", "order_id", id, "user_id", user.UserID)
	return fmt.Sprintf("Order %s has been cancelled.", id), nil
}

// UpdateOrder applies an admin change. Moving to Shipped without
// any estimated delivery sets it five days ahead.
func (s Service) UpdateOrder(
	ctx context.Context, orderID string, upd domain.OrderUpdate,
) (domain.Order, error) {
	const op = "Service.UpdateOrder"

	id, err := domain.ParseID(orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrInvalidStatus)
	}

	now := s.now()
	o, err := s.orders.UpdateOrder(ctx, id, func(o *domain.Order) error {
		applyUpdate(o, upd, now)
		return nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func applyUpdate(o *domain.Order, upd domain.OrderUpdate, now time.Time) {
	if upd.Status != nil && o.SetStatus(*upd.Status, now) {
		if *upd.Status == domain.StatusShipped && o.EstimatedDelivery == nil {
			eta := now.AddDate(0, 0, shippedDeliveryDays)
			o.EstimatedDelivery = &eta
		}
	}
	if upd.TrackingNumber != nil {
		o.TrackingNumber = *upd.TrackingNumber
	}
	if upd.EstimatedDelivery != nil {
		eta := *upd.EstimatedDelivery
		o.EstimatedDelivery = &eta
	}
}

// UserOrders returns the orders of userID newest first.
func (s Service) UserOrders(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	const op = "Service.UserOrders"

	if userID == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	orders, err := s.orders.OrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s Service) AllOrders(ctx context.Context) ([]domain.Order, error) {
	const op = "Service.AllOrders"

	orders, err := s.orders.AllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
