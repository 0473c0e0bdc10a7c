package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"drivelog/internal/consent"
	consenthandler "drivelog/internal/consent/handler"
	consentservice "drivelog/internal/consent/service"
	gatewayhandler "drivelog/internal/gateway/handler"
	gatewayservice "drivelog/internal/gateway/service"
	jwttoken "drivelog/internal/jwt_token"
	"drivelog/internal/ledger"
	ledgerhandler "drivelog/internal/ledger/handler"
	ledgerservice "drivelog/internal/ledger/service"
	"drivelog/internal/platform/config"
	"drivelog/internal/platform/httpserver"
	"drivelog/internal/platform/logger"
	"drivelog/internal/platform/metrics"
	platformredis "drivelog/internal/platform/redis"
	"drivelog/internal/registry"
	registryhandler "drivelog/internal/registry/handler"
	registryservice "drivelog/internal/registry/service"
	httptransport "drivelog/internal/transport/http"
	"drivelog/pkg/capability"
	id "drivelog/pkg/domain"
	"drivelog/pkg/platform/audit/publisher"
	kafkasink "drivelog/pkg/platform/audit/sink/kafka"
	auditmemory "drivelog/pkg/platform/audit/store/memory"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	adminID, err := id.ParseIdentity(cfg.Server.AdminIdentity)
	if err != nil {
		log.Error("invalid admin identity", "error", err)
		os.Exit(1)
	}
	admin, err := capability.NewAdmin(adminID)
	if err != nil {
		log.Error("failed to create admin capability", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	// Storage: PostgreSQL for registry and ledger when configured, Redis for
	// consent edges when configured, in-memory otherwise.
	var (
		registryStore registry.Store = registry.NewInMemoryStore()
		ledgerStore   ledger.Store   = ledger.NewInMemoryStore()
		consentStore  consent.Store  = consent.NewInMemoryStore()
		db            *sql.DB
	)
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		if err := db.Ping(); err != nil {
			log.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		registryStore = registry.NewPostgres(db)
		ledgerStore = ledger.NewPostgres(db)
		log.Info("using postgres stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		consentStore = consent.NewRedisStore(redisClient.Client)
		log.Info("using redis consent store")
	}

	// Notification pipeline: in-memory trail plus optional Kafka fan-out.
	auditOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
	}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err := kafkasink.New(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		if err != nil {
			log.Error("failed to create kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		auditOpts = append(auditOpts, publisher.WithSink(sink))
		log.Info("kafka audit sink enabled", "topic", cfg.Audit.KafkaTopic)
	}
	audits := publisher.NewPublisher(auditmemory.NewInMemoryStore(), auditOpts...)
	defer audits.Close()

	registrySvc, err := registryservice.New(registryStore, admin,
		registryservice.WithLogger(log),
		registryservice.WithAuditPublisher(audits),
	)
	if err != nil {
		log.Error("failed to create registry service", "error", err)
		os.Exit(1)
	}

	consentSvc, err := consentservice.New(consentStore, registrySvc,
		consentservice.WithLogger(log),
		consentservice.WithAuditPublisher(audits),
	)
	if err != nil {
		log.Error("failed to create consent service", "error", err)
		os.Exit(1)
	}

	ledgerSvc, err := ledgerservice.New(ledgerStore, registrySvc, admin,
		ledgerservice.WithLogger(log),
		ledgerservice.WithAuditPublisher(audits),
	)
	if err != nil {
		log.Error("failed to create ledger service", "error", err)
		os.Exit(1)
	}

	gatewaySvc, err := gatewayservice.New(id.NewIdentity(), registrySvc, consentSvc, admin,
		gatewayservice.WithLogger(log),
		gatewayservice.WithAuditPublisher(audits),
	)
	if err != nil {
		log.Error("failed to create gateway service", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := ledgerSvc.SetGateway(ctx, adminID, gatewaySvc.Identity()); err != nil {
		log.Error("failed to point ledger at gateway", "error", err)
		os.Exit(1)
	}
	if err := gatewaySvc.SetLedger(ctx, adminID, ledgerSvc); err != nil {
		log.Error("failed to point gateway at ledger", "error", err)
		os.Exit(1)
	}

	jwtSvc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "drivelog", "drivelog")

	router := httptransport.NewRouter(httptransport.Config{
		Logger:    log,
		Metrics:   m,
		Validator: jwttoken.NewJWTServiceAdapter(jwtSvc),
		Health: func(ctx context.Context) error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
			}
			if redisClient != nil {
				if err := redisClient.Health(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	},
		registryhandler.New(registrySvc, log, m),
		consenthandler.New(consentSvc, log, m),
		ledgerhandler.New(ledgerSvc, log, m),
		gatewayhandler.New(gatewaySvc, log, m),
	)

	srv := httpserver.New(cfg.Server.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("starting drivelog server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
