package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"salesnotifier/internal/config"
	"salesnotifier/internal/repository"
	"salesnotifier/internal/service"
	httpt "salesnotifier/internal/transport/http"
	"salesnotifier/internal/transport/sender"
	"salesnotifier/pkg/logger"
	"salesnotifier/pkg/metric"
	"salesnotifier/pkg/migrate"
	"salesnotifier/pkg/postgres"
	"salesnotifier/pkg/storage/redis"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func Run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if cfg.Env == "prod" || cfg.Env == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}

	eg, ctx := errgroup.WithContext(ctx)

	db, dbErr := initDatabase(ctx, &cfg.Database, log)
	if dbErr != nil {
		return dbErr
	}
	defer closeDB(db)

	if migErr := runMigrations(&cfg.Migrations, &cfg.Database, log); migErr != nil {
		return migErr
	}

	tm, tmErr := initTransactionManager(db, log)
	if tmErr != nil {
		return tmErr
	}

	rdb, rdbErr := initCache(ctx, &cfg.Cache, log)
	if rdbErr != nil {
		return rdbErr
	}
	defer closeCache(rdb, log)

	gateway, closeGateway, gwErr := initGateway(cfg, log)
	if gwErr != nil {
		return gwErr
	}
	defer closeGateway()

	var metrics *metric.Metrics
	if cfg.Metrics.Enabled {
		metrics = metric.New(metricNamespace(cfg.App.Name))
		initMetricsServer(ctx, eg, &cfg.Metrics, metrics, log)
	}

	notifyService, svcErr := initNotifyService(&cfg.Cache, db, tm, rdb, gateway, metrics, log)
	if svcErr != nil {
		return svcErr
	}

	initHTTPServer(ctx, eg, &cfg.HTTP, notifyService, metrics, log)

	return waitForShutdown(eg)
}

func initDatabase(ctx context.Context, cfg *config.Database, log logger.Logger) (*postgres.Postgres, error) {
	db, err := postgres.New(
		ctx,
		cfg.DSN,
		log.With("component", "database"),
		postgres.MaxPoolSize(cfg.PoolMax),
		postgres.MaxConnAttempts(cfg.ConnAttempts),
		postgres.BaseRetryDelay(cfg.BaseRetryDelay),
		postgres.MaxRetryDelay(cfg.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initDatabase: %w", err)
	}
	return db, nil
}

func closeDB(db *postgres.Postgres) {
	if db != nil {
		db.Close()
	}
}

func runMigrations(cfg *config.Migrations, dbCfg *config.Database, log logger.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if err := migrate.Up(cfg.Path, dbCfg.DSN, log.With("component", "migrations")); err != nil {
		return fmt.Errorf("app.runMigrations: %w", err)
	}
	return nil
}

func initTransactionManager(db *postgres.Postgres, log logger.Logger) (postgres.Manager, error) {
	tm, err := postgres.NewManager(db, log.With("component", "transaction manager"))
	if err != nil {
		return nil, fmt.Errorf("app.initTransactionManager: %w", err)
	}
	return tm, nil
}

// initCache returns nil when caching is disabled.
func initCache(ctx context.Context, cfg *config.Cache, log logger.Logger) (*redis.Redis, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	rdb, err := redis.New(
		ctx,
		cfg.Addr,
		cfg.Password,
		redis.DB(cfg.DB),
		redis.PoolSize(cfg.PoolSize),
		redis.MinIdleCons(cfg.MinIdleCons),
		redis.PoolTimeout(cfg.PoolTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initCache: %w", err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "cache connected",
		logger.String("addr", cfg.Addr),
		logger.Duration("ttl", cfg.TTL),
	)
	return rdb, nil
}

func closeCache(rdb *redis.Redis, log logger.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.Close(); err != nil {
		log.Errorw("cache close failed", "error", err)
	}
}

// initGateway builds the configured transport and, if requested, mirrors successful
// deliveries into the operations Telegram chat.
func initGateway(cfg *config.Config, log logger.Logger) (service.Gateway, func(), error) {
	const op = "app.initGateway"

	closeFn := func() {}

	var primary sender.Publisher
	switch cfg.Gateway.Kind {
	case config.GatewayAMQP:
		publisher, err := sender.NewAMQPPublisher(sender.AMQPConfig{
			URL:            cfg.Publisher.URL,
			ConnectionName: cfg.Publisher.ConnectionName,
			Exchange:       cfg.Publisher.Exchange,
			ExchangeType:   cfg.Publisher.ExchangeType,
			RoutingKey:     cfg.Publisher.RoutingKey,
			ConnectTimeout: cfg.Publisher.ConnectTimeout,
			Heartbeat:      cfg.Publisher.Heartbeat,
			ConfirmTimeout: cfg.Publisher.ConfirmTimeout,
		}, log.With("component", "amqp publisher"))
		if err != nil {
			return nil, closeFn, fmt.Errorf("%s: %w", op, err)
		}
		primary = publisher
		closeFn = func() {
			if err := publisher.Close(); err != nil {
				log.Errorw("amqp publisher close failed", "error", err)
			}
		}

	case config.GatewaySMTP:
		primary = sender.NewEmailSender(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.From,
			log.With("component", "email sender"),
		)

	case config.GatewayTelegram:
		tg, err := sender.NewTelegramSender(cfg.TG.Token, cfg.TG.ChatID, log.With("component", "telegram sender"))
		if err != nil {
			return nil, closeFn, fmt.Errorf("%s: %w", op, err)
		}
		primary = tg

	default:
		return nil, closeFn, fmt.Errorf("%s: unknown gateway kind %q", op, cfg.Gateway.Kind)
	}

	if !cfg.Gateway.MirrorToTelegram || cfg.Gateway.Kind == config.GatewayTelegram {
		return primary, closeFn, nil
	}

	mirror, err := sender.NewTelegramSender(cfg.TG.Token, cfg.TG.ChatID, log.With("component", "telegram mirror"))
	if err != nil {
		closeFn()
		return nil, func() {}, fmt.Errorf("%s: mirror: %w", op, err)
	}

	return sender.NewMultiSender(log.With("component", "multi sender"), primary, mirror), closeFn, nil
}

func initNotifyService(
	cfg *config.Cache,
	db *postgres.Postgres,
	tm postgres.Manager,
	rdb *redis.Redis,
	gateway service.Gateway,
	metrics *metric.Metrics,
	log logger.Logger,
) (*service.NotifyService, error) {
	opts := make([]service.Option, 0, 2)
	if rdb != nil {
		opts = append(opts, service.WithCache(repository.NewCacheRepository(rdb, cfg.TTL)))
	}
	if metrics != nil {
		opts = append(opts, service.WithDeliveryObserver(metrics))
	}

	notifyService, err := service.NewNotifyService(
		repository.NewNotifyRepository(db),
		repository.NewSalesNoteRepository(db),
		tm,
		db,
		gateway,
		log.With("component", "notify service"),
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("app.initNotifyService: %w", err)
	}
	return notifyService, nil
}

func initHTTPServer(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.HTTP,
	svc *service.NotifyService,
	metrics *metric.Metrics,
	log logger.Logger,
) {
	var httpMetrics metric.HTTP
	if metrics != nil {
		httpMetrics = metrics
	}

	httpServer := httpt.NewHTTPServer(
		httpt.NewNotifyHandler(svc, log.With("component", "http handler"), httpMetrics, cfg).Engine(),
		cfg,
		log.With("component", "http server"),
	)

	eg.Go(func() error {
		return httpServer.Start(ctx)
	})
}

func initMetricsServer(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Metrics,
	metrics *metric.Metrics,
	log logger.Logger,
) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	eg.Go(func() error {
		log.LogAttrs(ctx, logger.InfoLevel, "metrics server started", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app.initMetricsServer: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		return srv.Close()
	})
}

func waitForShutdown(eg *errgroup.Group) error {
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app.waitForShutdown: application failed: %w", err)
	}
	return nil
}

// Prometheus names allow neither dashes nor dots.
func metricNamespace(appName string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(appName)
}
