package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/application"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/config"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/dispatcher"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/handlers"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/kafka"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/outbox"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/presence"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/repository/postgres"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/router"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/server"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/tx"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/websocket"
)

func main() {
	cfg := config.Load()

	// Observability
	observability.InitLogger(cfg.ServiceName)
	log := observability.Log

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	ctx, cancel := setupSignalHandler(log)
	defer cancel()

	instanceID := getOrGenerateInstanceID(cfg.InstanceID)

	db := initPostgres(ctx, cfg.DatabaseURL, log)
	defer db.Close()

	redisClient := initRedis(ctx, cfg.RedisAddr, log)
	defer redisClient.Close()

	repo := &postgres.Repository{DB: db}
	txm := &tx.Manager{DB: db}

	presenceReg := presence.New(redisClient)
	wsReg := websocket.NewRegistry()
	rtr := router.New(redisClient, instanceID)

	disp := dispatcher.New(wsReg, presenceReg, rtr, instanceID, cfg.ServiceName)
	rtr.Subscribe(ctx, disp.DeliverRemote)

	watcher := presence.NewWatcher(redisClient, presenceReg, wsReg)
	watcher.Start(ctx)

	// Transactional outbox, drained to Kafka when brokers are configured.
	var outboxWriter application.OutboxWriter
	if cfg.KafkaBrokers != "" {
		producer := kafka.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()

		outboxRepo := outbox.NewRepository(db)
		outboxWriter = outboxRepo
		go outbox.NewPublisher(outboxRepo, producer).Start(ctx)
	}

	svc := application.NewService(repo, txm, disp, outboxWriter, cfg.ServiceName)

	wsHandler := websocket.NewHandler(wsReg, presenceReg, disp, svc, instanceID, cfg.ServiceName)
	chatH := handlers.NewChatHandler(svc)

	mainHandler := server.NewRouter(chatH, wsHandler, cfg, dbPinger{db}, presenceReg)
	mainSrv := server.New(cfg.HTTPAddr, mainHandler)
	obsSrv := initObservabilityServer(cfg, dbPinger{db}, presenceReg)

	startServers(mainSrv, obsSrv, cfg, log)

	<-ctx.Done()
	performGracefulShutdown(mainSrv, obsSrv, wsReg, log)
}

func setupSignalHandler(log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
		cancel()
	}()
	return ctx, cancel
}

func getOrGenerateInstanceID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func initPostgres(ctx context.Context, url string, log *zap.Logger) *sql.DB {
	db, err := sql.Open("postgres", url)
	if err != nil {
		log.Fatal("failed to open postgres", zap.Error(err))
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	return db
}

func initRedis(ctx context.Context, addr string, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	return client
}

func initObservabilityServer(cfg *config.Config, deps ...observability.Pinger) *http.Server {
	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health/live", observability.HealthLiveHandler)
	mux.Get("/health/ready", observability.HealthReadyHandler(deps...))
	return &http.Server{Addr: cfg.ObsHTTPAddr, Handler: mux}
}

func startServers(mainSrv *server.Server, obsSrv *http.Server, cfg *config.Config, log *zap.Logger) {
	go func() {
		log.Info("starting observability server", zap.String("addr", cfg.ObsHTTPAddr))
		if err := obsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("observability server error", zap.Error(err))
		}
	}()
	go func() {
		if err := mainSrv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()
}

func performGracefulShutdown(mainSrv *server.Server, obsSrv *http.Server, reg *websocket.Registry, log *zap.Logger) {
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mainSrv.Shutdown(ctx); err != nil {
		log.Error("error during main server shutdown", zap.Error(err))
	}
	if err := obsSrv.Shutdown(ctx); err != nil {
		log.Error("error during observability server shutdown", zap.Error(err))
	}
	reg.CloseAll()
	log.Info("shutdown complete, exiting")
}

type dbPinger struct{ db *sql.DB }

func (p dbPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
