package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/configs"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/cache"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/http"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/http/middleware"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/kafka"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/queue"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/repo"
	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/logging"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/pricing"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/tracker"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init("order-api", cfg.App.LogFile)

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	cancel()

	logger.Info("order-api: starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisStatusCache(rdb, cfg.Cache.TTL)
	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}

	// notification events go through the outbox; the relay drains it to rabbit
	notifyQueue := queue.NewOutboxQueue(outboxRepo)
	relay := queue.NewOutboxRelay(outboxRepo, producer, logging.New("outbox"))
	if cfg.Notify.RelayInterval > 0 {
		relay.Interval = cfg.Notify.RelayInterval
	}
	relayCtx, stopRelay := context.WithCancel(context.Background())
	go relay.Run(relayCtx)

	// analytics (kafka, fire-and-forget)
	analytics, closeAnalytics := setupAnalytics(cfg, logger)

	// tracker hub: one subscription stream per watched order
	hub := tracker.NewHub(orderRepo, tracker.Options{
		PollInterval:     cfg.Tracker.PollInterval,
		SimulateInterval: cfg.Tracker.SimulateInterval,
		Cache:            statusCache,
	}, logging.New("tracker"))

	// register notification dispatch (rabbit consumers)
	if err := setupQueue(ch, cfg); err != nil {
		stopRelay()
		return nil, nil, err
	}

	// register kafka listener for pipeline stage events
	stopKafka, err := setupKafkaListener(cfg, orderRepo, statusCache, hub)
	if err != nil {
		stopRelay()
		return nil, nil, err
	}

	// usecases + handlers + router
	catalog := pricingCatalog(cfg)
	createUC := usecase.NewCreateOrder(catalog, orderRepo, idem, notifyQueue, analytics)
	searchUC := usecase.NewSearchOrders(orderRepo, analytics)
	updateUC := usecase.NewUpdateStatus(orderRepo, statusCache, notifyQueue, analytics)

	h := http.NewOrderHandler(createUC, searchUC, updateUC, orderRepo, hub)
	th := http.NewTokenHandler(cfg)
	auth := middleware.NewAuthz(cfg)
	router := http.NewRouter(h, th, auth)

	cleanup := func() {
		stopRelay()
		stopKafka()
		closeAnalytics()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

// pricingCatalog maps the config section onto the engine's injected catalog,
// falling back to the shipped defaults when a section is empty.
func pricingCatalog(cfg configs.Config) pricing.Config {
	out := pricing.Default()
	p := cfg.Pricing

	if len(p.Rates) > 0 {
		out.RatesByServiceType = make(map[domain.ServiceType]float64, len(p.Rates))
		for svc, rate := range p.Rates {
			out.RatesByServiceType[domain.ServiceType(svc)] = rate
		}
	}
	if p.DefaultRate > 0 {
		out.DefaultRate = p.DefaultRate
	}
	if len(p.Addons) > 0 {
		out.AddonCatalog = make(map[string]pricing.AddonRule, len(p.Addons))
		for id, rule := range p.Addons {
			out.AddonCatalog[id] = pricing.AddonRule{FlatCents: rule.FlatCents, PercentOfBase: rule.PercentOfBase}
		}
	}
	if len(p.Urgency) > 0 {
		out.UrgencyMultipliers = make(map[domain.UrgencyTier]float64, len(p.Urgency))
		for tier, mult := range p.Urgency {
			out.UrgencyMultipliers[domain.UrgencyTier(tier)] = mult
		}
	}
	if p.DiscountThreshold > 0 {
		out.DiscountThreshold = p.DiscountThreshold
	}
	if p.DiscountRate > 0 {
		out.DiscountRate = p.DiscountRate
	}
	if p.TaxRate > 0 {
		out.TaxRate = p.TaxRate
	}
	return out
}

func setupAnalytics(cfg configs.Config, logger *slog.Logger) (usecase.AnalyticsSink, func()) {
	prod, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
	if err != nil {
		logger.Warn("analytics producer unavailable, events disabled", "err", err)
		return kafka.NopAnalytics{}, func() {}
	}
	return kafka.NewAnalyticsProducer(prod, cfg.Kafka.AnalyticsTopic, logging.New("analytics")),
		func() { _ = prod.Close() }
}

func setupQueue(ch *amqp091.Channel, cfg configs.Config) error {
	notifier := queue.NewWebhookNotifier(cfg.Notify.WebhookURL, nil)
	h := queue.NewNotifyHandler(notifier)

	router := queue.NewRouter(ch, queue.WithPrefetch(50))
	router.Register("order.created.q", queue.JSONHandler[usecase.CreatedMsg]{HandleFunc: h.HandleCreated})
	router.Register("order.status.q", queue.JSONHandler[usecase.StatusChangedMsg]{HandleFunc: h.HandleStatusChanged})

	return router.Start()
}

func setupKafkaListener(cfg configs.Config, orderRepo *repo.MySQLOrderRepo, statusCache *cache.RedisStatusCache, hub *tracker.Hub) (func(), error) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return nil, err
	}

	h := kafka.NewStageChangedHandler(orderRepo, statusCache, hub)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.StatusTopic}, h.Handle)
	consumer.Logger = logging.New("kafka")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			consumer.Logger.Error("kafka consumer stopped", "err", err)
		}
	}()

	return func() {
		cancel()
		_ = grp.Close()
	}, nil
}
