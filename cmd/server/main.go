// Command server wires high-level dependencies and keeps the server
// lifecycle small. Business logic lives in the internal services packages.
//
// Without POSTGRES_DSN the gateway runs on in-memory stores and the
// in-process encrypted-value fake, which is the dev mode; production points
// ENCVAL at a real coprocessor deployment (not part of this repository).
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"restgate/internal/decision"
	decisionhandler "restgate/internal/decision/handler"
	decisionmetrics "restgate/internal/decision/metrics"
	"restgate/internal/encval"
	"restgate/internal/encval/fake"
	"restgate/internal/jwtauth"
	"restgate/internal/platform/config"
	"restgate/internal/platform/httpserver"
	"restgate/internal/platform/logger"
	platformredis "restgate/internal/platform/redis"
	"restgate/internal/policy"
	policyhandler "restgate/internal/policy/handler"
	policymetrics "restgate/internal/policy/metrics"
	httptransport "restgate/internal/transport/http"
	audit "restgate/pkg/platform/audit"
	auditkafka "restgate/pkg/platform/audit/kafka"
	auditmemory "restgate/pkg/platform/audit/store/memory"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var (
		policyStore   policy.Store
		decisionStore decision.Store
	)

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		policyStore, err = policy.NewPostgresStore(ctx, db, cfg.AdminIdentity)
		if err != nil {
			log.Error("init policy store", "error", err)
			os.Exit(1)
		}
		decisionStore, err = decision.NewPostgresStore(ctx, db)
		if err != nil {
			log.Error("init decision store", "error", err)
			os.Exit(1)
		}
	} else {
		policyStore = policy.NewInMemoryStore(cfg.AdminIdentity)
		decisionStore = decision.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		decisionStore = decision.NewRedisStore(redisClient.Client)
	}

	var emitter audit.Emitter = auditmemory.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		emitter = publisher
	}

	// Dev mode runs against the in-process encrypted-value fake. A real
	// deployment swaps in the coprocessor-backed implementation here.
	var encService encval.Service = fake.New()

	policyService := policy.NewService(policyStore,
		policy.WithEmitter(emitter),
		policy.WithMetrics(policymetrics.New()),
		policy.WithLogger(log),
	)
	decisionService := decision.NewService(policyStore, decisionStore, encService, cfg.EngineIdentity,
		decision.WithEmitter(emitter),
		decision.WithMetrics(decisionmetrics.New()),
		decision.WithLogger(log),
	)

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)
	router := httptransport.NewRouter(
		policyhandler.New(policyService, log),
		decisionhandler.New(decisionService, log),
		jwtService,
		log,
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting restgate",
		"addr", cfg.Addr,
		"admin", cfg.AdminIdentity,
		"engine", cfg.EngineIdentity,
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
