package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/configs"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/cache"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/gateway"
	httpadapter "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/http"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/http/middleware"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/kafka"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/queue"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/repo"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/logging"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/security"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	level := slog.LevelInfo
	if cfg.App.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	log := logging.Init(cfg.App.Name, cfg.App.LogFile, level)

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return nil, nil, err
	}

	log.Info("storefront-api: starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq producer
	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}

	// gateway shared secret -> signature service
	sigs, err := security.NewSignatureService([]byte(cfg.Gateway.Secret))
	if err != nil {
		return nil, nil, err
	}
	psp := gateway.NewPSPClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	stateCache := cache.NewRedisStateCache(rdb, cfg.Cache.TTL)

	// use cases
	checkoutUC := usecase.NewCheckout(orderRepo, idem, cfg.Payments.Currency)
	issueUC := usecase.NewIssueIntent(orderRepo, psp, cfg.Payments.Currency)
	settleUC := usecase.NewSettle(orderRepo, sigs, stateCache, producer)
	sweepUC := usecase.NewSweepStaleIntents(orderRepo, outboxRepo, cfg.Payments.StaleIntentAge)

	// background workers
	bgCtx, bgCancel := context.WithCancel(context.Background())
	go queue.NewOutboxDrainer(outboxRepo, producer, 2*time.Second).Run(bgCtx)
	startKafkaCallbacks(bgCtx, cfg, settleUC)
	go runSweep(bgCtx, sweepUC, cfg.Payments.SweepInterval)

	// handlers + router + middleware
	oh := httpadapter.NewOrderHandler(checkoutUC, orderRepo)
	ph := httpadapter.NewPaymentHandler(issueUC, settleUC)
	ident := middleware.NewIdentity(cfg)
	router := httpadapter.NewRouter(oh, ph, ident)

	cleanup := func() {
		bgCancel()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

// startKafkaCallbacks consumes the gateway's broker-delivered notifications.
// Optional: skipped when no brokers are configured.
func startKafkaCallbacks(ctx context.Context, cfg configs.Config, settle *usecase.Settle) {
	if len(cfg.Kafka.Brokers) == 0 {
		return
	}
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		logging.New("kafka").Error("consumer group init failed", "err", err)
		return
	}

	h := kafka.NewCallbackHandler(settle)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.CallbackTopic}, h.Handle, logging.New("kafka"))

	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logging.New("kafka").Error("consumer stopped", "err", err)
		}
	}()
}

func runSweep(ctx context.Context, sweep *usecase.SweepStaleIntents, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	log := logging.New("intent-sweep")
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sweep.Execute(ctx)
			if err != nil {
				log.Error("sweep failed", "err", err)
				continue
			}
			if n > 0 {
				log.Warn("unclaimed payment intents found", "count", n)
			}
		}
	}
}
