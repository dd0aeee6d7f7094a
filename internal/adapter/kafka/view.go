package kafka

import (
	"context"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/niksmo/shop-assistant/internal/core/port"
)

var _ port.BlockList = (*BlockListView)(nil)

type tableGetter interface {
	Get(key string) (any, error)
}

// A BlockListView serves the product filter group table
// as the moderation block list.
type BlockListView struct {
	gv    *goka.View
	table tableGetter
}

func NewBlockListView(
	seedBrokers []string, group string, opts ...goka.ViewOption,
) (*BlockListView, error) {
	const op = "NewBlockListView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		blockValueCodec{},
		opts...,
	)
	if err != nil {
		return nil, opErr(err, op)
	}
	return &BlockListView{gv: gv, table: gv}, nil
}

// Run blocks until ctx is done or the view fails.
func (v *BlockListView) Run(ctx context.Context) error {
	const op = "BlockListView.Run"
	log := slog.With("op", op)

	log.Info("running")
	if err := v.gv.Run(ctx); err != nil {
		log.Error("stopped", "err", err)
		return opErr(err, op)
	}
	log.Info("stopped")
	return nil
}

// IsBlocked reports false when the view cannot be read,
// an unavailable block list blocks nothing.
func (v *BlockListView) IsBlocked(productID string) bool {
	const op = "BlockListView.IsBlocked"

	if v == nil || v.table == nil {
		return false
	}

	val, err := v.table.Get(productID)
	if err != nil {
		slog.Warn("failed to read block list", "op", op, "err", err)
		return false
	}

	blocked, _ := val.(blockValue)
	return bool(blocked)
}
