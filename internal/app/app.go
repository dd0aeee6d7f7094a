package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/niksmo/shop-assistant/config"
	"github.com/niksmo/shop-assistant/internal/adapter/httphandler"
	"github.com/niksmo/shop-assistant/internal/adapter/kafka"
	"github.com/niksmo/shop-assistant/internal/adapter/llm"
	"github.com/niksmo/shop-assistant/internal/adapter/ranker"
	"github.com/niksmo/shop-assistant/internal/adapter/storage"
	"github.com/niksmo/shop-assistant/internal/core/port"
	"github.com/niksmo/shop-assistant/internal/core/service"
	"github.com/niksmo/shop-assistant/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
	"golang.org/x/sync/errgroup"
)

type serdes struct {
	product       schema.Serde
	productFilter schema.Serde
}

type repositories struct {
	products storage.ProductsRepository
	orders   storage.OrdersRepository
	users    storage.UsersRepository
}

type rankers struct {
	search *ranker.Process
	user   *ranker.Process
}

type streams struct {
	filterProducer   kafka.ProductFilterProducer
	filterProcessor  *kafka.ProductFilterProcessor
	blockList        *kafka.BlockListView
	productsConsumer kafka.ProductsConsumer
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	sqldb      storage.SQLDB
	repos      repositories
	serdes     serdes
	rankers    rankers
	generator  port.Generator
	streams    streams
	service    service.Service
	httpServer httphandler.HTTPServer
	runners    *errgroup.Group
}

// New wires every adapter. It panics when a collaborator
// cannot be reached at startup.
func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	app.initSerdes()
	app.initRankers()
	app.initGenerator()
	app.initStreams()
	app.initCoreService()
	app.initProductsConsumer()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}

	app.sqldb = sqldb
	app.repos = repositories{
		products: storage.NewProductsRepository(sqldb),
		orders:   storage.NewOrdersRepository(sqldb),
		users:    storage.NewUsersRepository(sqldb),
	}
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	urls := app.cfg.Broker.SchemaRegistryURLs
	ctx := app.ctx

	srClient, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	productSS := app.cfg.Broker.Topics.Products + "-value"
	productSerde, err := schema.NewSerdeProductV1(
		ctx,
		schema.SubjectOpt(productSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	productFilterSS := app.cfg.Broker.Topics.ProductFilter + "-value"
	productFilterSerde, err := schema.NewSerdeProductFilterV1(
		ctx,
		schema.SubjectOpt(productFilterSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes.product = productSerde
	app.serdes.productFilter = productFilterSerde
}

func (app *App) initRankers() {
	const op = "App.initRankers"
	rc := app.cfg.Ranker

	search, err := ranker.New(ranker.Config{
		Name:           "search",
		Command:        rc.SearchCmd,
		Timeout:        rc.Timeout,
		MaxOutputBytes: rc.MaxOutputBytes,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	user, err := ranker.New(ranker.Config{
		Name:           "user",
		Command:        rc.UserCmd,
		Timeout:        rc.Timeout,
		MaxOutputBytes: rc.MaxOutputBytes,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	app.rankers = rankers{search: search, user: user}
}

func (app *App) initGenerator() {
	lc := app.cfg.LLM
	if lc.URL == "" {
		slog.Warn("llm url is not set, chat replies use the template")
		return
	}

	app.generator = llm.New(llm.Config{
		URL:         lc.URL,
		APIKey:      lc.APIKey,
		Model:       lc.Model,
		Timeout:     lc.Timeout,
		Temperature: lc.Temperature,
		MaxTokens:   lc.MaxTokens,
	})
}

func (app *App) initStreams() {
	const op = "App.initStreams"

	ctx := app.ctx
	seedBrokers := app.cfg.Broker.SeedBrokers
	filterTopic := app.cfg.Broker.Topics.ProductFilter
	filterGroup := app.cfg.Broker.Consumers.ProductFilterGroup

	filterProducer, err := kafka.NewProductFilterProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, filterTopic),
		kafka.ProducerEncoderOpt(app.serdes.productFilter),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	filterProcessor, err := kafka.NewProductFilterProc(
		seedBrokers, filterTopic, filterGroup, app.serdes.productFilter,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	blockList, err := kafka.NewBlockListView(seedBrokers, filterGroup)
	if err != nil {
		app.fallDown(op, err)
	}

	app.streams.filterProducer = filterProducer
	app.streams.filterProcessor = filterProcessor
	app.streams.blockList = blockList
}

func (app *App) initCoreService() {
	app.service = service.New(service.Deps{
		Products:        app.repos.products,
		ProductsStorage: app.repos.products,
		Orders:          app.repos.orders,
		Users:           app.repos.users,
		SearchRanker:    app.rankers.search,
		UserRanker:      app.rankers.user,
		Generator:       app.generator,
		Blocks:          app.streams.blockList,
		FilterProducer:  app.streams.filterProducer,
	})
}

func (app *App) initProductsConsumer() {
	const op = "App.initProductsConsumer"

	consumer, err := kafka.NewProductsConsumer(
		kafka.ConsumerClientOpt(
			app.cfg.Broker.SeedBrokers,
			app.cfg.Broker.Topics.Products,
			app.cfg.Broker.Consumers.ProductsGroup,
		),
		kafka.ConsumerDecoderOpt(app.serdes.product),
		kafka.ProductsConsumerSaverOpt(app.service),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.streams.productsConsumer = consumer
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	auth, err := httphandler.NewAuthenticator(app.cfg.JWTSecret)
	if err != nil {
		app.fallDown(op, err)
	}

	s := app.service
	mux := http.NewServeMux()
	httphandler.RegisterSearch(mux, s, s)
	httphandler.RegisterRecommendations(mux, s, auth)
	httphandler.RegisterChat(mux, s)
	httphandler.RegisterOrders(mux, s, auth)
	httphandler.RegisterAdmin(mux, s, auth)
	httphandler.RegisterFilter(mux, s, auth)
	httphandler.RegisterMetrics(mux)

	handler := httphandler.AllowJSON(mux)
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, handler, app.cfg.HTTPRequestTimeout,
	)
}

// Run starts the moderation processor, waits until it is ready,
// then starts the block list view, the products consumer and
// the http server. stopFn is called when any of them stops.
func (app *App) Run(stopFn context.CancelFunc) {
	var wg sync.WaitGroup
	wg.Add(1)
	app.streams.filterProcessor.Run(app.ctx, stopFn, &wg)
	wg.Wait()

	runners, ctx := errgroup.WithContext(app.ctx)
	runners.Go(func() error {
		defer stopFn()
		return app.streams.blockList.Run(ctx)
	})
	runners.Go(func() error {
		defer stopFn()
		app.streams.productsConsumer.Run(ctx)
		return nil
	})
	app.runners = runners

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	if app.runners != nil {
		if err := app.runners.Wait(); err != nil {
			slog.Error("runner stopped with error", "err", err)
		}
	}

	app.streams.productsConsumer.Close()
	app.streams.filterProcessor.Close()
	app.streams.filterProducer.Close()
	app.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
