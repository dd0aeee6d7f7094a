package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/port"
	"github.com/niksmo/shop-assistant/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductFilterProducer = (*ProductFilterProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A ProductFilterProducer produces [domain.ProductFilter]
// keyed by the product id, so the latest rule per product wins.
type ProductFilterProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewProductFilterProducer(
	opts ...ProducerOpt,
) (ProductFilterProducer, error) {
	const op = "NewProductFilterProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			if options.cl != nil {
				options.cl.Close()
			}
			return ProductFilterProducer{}, opErr(err, op)
		}
	}
	return newProductFilterProducer(options), nil
}

func newProductFilterProducer(options producerOpts) ProductFilterProducer {
	const opPrefix = "ProductFilterProducer"
	return ProductFilterProducer{
		producer: producer{opPrefix: opPrefix, cl: options.cl},
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}
}

func (p ProductFilterProducer) Close() {
	p.producer.close()
}

func (p ProductFilterProducer) ProduceFilter(
	ctx context.Context, fv domain.ProductFilter,
) error {
	const op = "ProduceFilter"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(fv)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	slog.Info(
		"product filter produced",
		"op", makeOp(p.opPrefix, op),
		"productID", fv.ProductID,
		"blocked", fv.Blocked,
	)
	return nil
}

func (p ProductFilterProducer) createRecord(
	v domain.ProductFilter,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := p.toSchema(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(s.ProductID), Value: b}, nil
}

func (ProductFilterProducer) toSchema(
	v domain.ProductFilter,
) schema.ProductFilterV1 {
	return productFilterToSchemaV1(v)
}
