package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/port"
	"github.com/niksmo/shop-assistant/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

const slowDownDelay = time.Second

////////////////////////////////////////////////////////
///////////////           OPTS            //////////////
////////////////////////////////////////////////////////

type ConsumerOpt func(*consumerOpts) error

func ConsumerClientOpt(
	seedBrokers []string, topic, group string,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		cl, err := kgo.NewClient(
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(group),
			kgo.DisableAutoCommit(),
		)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func ProductsConsumerSaverOpt(ps port.ProductsSaver) ConsumerOpt {
	return func(co *consumerOpts) error {
		if ps == nil {
			return errors.New("products saver is nil")
		}
		co.productsSaver = ps
		return nil
	}
}

type consumerOpts struct {
	cl            ConsumerClient
	decoder       Decoder
	productsSaver port.ProductsSaver
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	if co.cl == nil || co.decoder == nil || co.productsSaver == nil {
		if co.cl != nil {
			co.cl.Close()
		}
		return ErrTooFewOpts
	}
	return nil
}

////////////////////////////////////////////////////////
////////////           CONSUMERS            ////////////
////////////////////////////////////////////////////////

// A consumer is used for composition.
//
// Fetching records from kafka broker and closing underlying [kgo.Client].
type consumerParent interface {
	processFetches(context.Context, kgo.Fetches) error
}

type consumer struct {
	opPrefix string
	parent   consumerParent
	cl       ConsumerClient
}

func (c consumer) run(ctx context.Context) {
	const op = "run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for ctx.Err() == nil {
		err := c.consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			log.Error("failed to consume", "err", err)
			c.slowDown(ctx)
		}
	}
	log.Info("stopped")
}

// consume commits offsets only after the fetched records are processed.
// A failed batch is rewound, so the next poll fetches it again.
func (c consumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	err = c.parent.processFetches(ctx, fetches)
	if err != nil {
		c.rewind(fetches)
		return opErr(err, c.opPrefix, op)
	}

	err = c.commit(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	err := c.handleFetchesErrs(fetches)
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	return fetches, nil
}

func (c consumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

// rewind moves every fetched partition back to its first fetched record.
// The client advances its fetch position on poll whether or not
// the offsets are committed.
func (c consumer) rewind(fetches kgo.Fetches) {
	const op = "rewind"

	offsets := make(map[string]map[int32]kgo.EpochOffset)
	fetches.EachPartition(func(p kgo.FetchTopicPartition) {
		if len(p.Records) == 0 {
			return
		}
		first := p.Records[0]
		if offsets[p.Topic] == nil {
			offsets[p.Topic] = make(map[int32]kgo.EpochOffset)
		}
		offsets[p.Topic][p.Partition] = kgo.EpochOffset{
			Epoch:  first.LeaderEpoch,
			Offset: first.Offset,
		}
	})
	if len(offsets) == 0 {
		return
	}

	c.cl.SetOffsets(offsets)
	slog.Warn("batch rewound", "op", makeOp(c.opPrefix, op), "offsets", offsets)
}

func (c consumer) slowDown(ctx context.Context) {
	t := time.NewTimer(slowDownDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c consumer) commit(ctx context.Context) error {
	const op = "commit"

	err := ctx.Err()
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	err = c.cl.CommitUncommittedOffsets(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) close() {
	const op = "close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}

// A ProductsConsumer consumes catalog products
// then sends them to the core service for save.
//
// Records that cannot be decoded or carry a malformed product
// are logged and skipped.
type ProductsConsumer struct {
	opPrefix string
	consumer consumer
	saver    port.ProductsSaver
	decoder  Decoder
}

func NewProductsConsumer(opts ...ConsumerOpt) (ProductsConsumer, error) {
	const op = "NewProductsConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return ProductsConsumer{}, opErr(err, op)
	}
	return newProductsConsumer(options), nil
}

func newProductsConsumer(options consumerOpts) ProductsConsumer {
	const opPrefix = "ProductsConsumer"

	pc := ProductsConsumer{
		opPrefix: opPrefix,
		saver:    options.productsSaver,
		decoder:  options.decoder,
	}
	pc.consumer = consumer{
		opPrefix: opPrefix,
		parent:   pc,
		cl:       options.cl,
	}
	return pc
}

// Run blocks until ctx is done.
func (c ProductsConsumer) Run(ctx context.Context) {
	c.consumer.run(ctx)
}

func (c ProductsConsumer) Close() {
	c.consumer.close()
}

func (c ProductsConsumer) processFetches(
	ctx context.Context, fetches kgo.Fetches,
) error {
	const op = "processFetches"

	values := c.toDomain(fetches)
	if len(values) == 0 {
		return nil
	}

	err := c.saver.SaveProducts(ctx, values)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c ProductsConsumer) toDomain(
	fetches kgo.Fetches,
) (vs []domain.Product) {
	const op = "toDomain"
	log := slog.With("op", makeOp(c.opPrefix, op))

	fetches.EachRecord(func(r *kgo.Record) {
		v, err := c.decodeRecValue(r)
		if err != nil {
			log.Error(
				"skip record",
				"topic", r.Topic,
				"partition", r.Partition,
				"offset", r.Offset,
				"err", err,
			)
			return
		}
		vs = append(vs, v)
	})
	return vs
}

func (c ProductsConsumer) decodeRecValue(
	r *kgo.Record,
) (domain.Product, error) {
	var s schema.ProductV1
	err := c.decoder.Decode(r.Value, &s)
	if err != nil {
		return domain.Product{}, err
	}

	v := schemaV1ToProduct(s)
	v.ProductID, err = domain.ParseID(v.ProductID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product id %q: %w", s.ProductID, err)
	}
	if strings.TrimSpace(v.Name) == "" {
		return domain.Product{}, errors.New("product name is empty")
	}
	if v.Price < 0 {
		return domain.Product{}, errors.New("product price is negative")
	}
	return v, nil
}
