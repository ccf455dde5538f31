package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"teamops/internal/ai"
	"teamops/internal/cache"
	"teamops/internal/config"
	"teamops/internal/handlers"
	"teamops/internal/kafka"
	"teamops/internal/metrics"
	"teamops/internal/publisher"
	"teamops/internal/repository"
	"teamops/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------- config ----------
	cfg := config.Load()

	// ---------- metrics ----------
	metrics.Register()

	// ---------- db ----------
	pool, err := repository.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal("db: ", err)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		log.Fatal("schema: ", err)
	}

	metrics.StartDBCollectors(ctx, pool, 15*time.Second, log.Default())

	// ---------- repositories ----------
	scheduleRepo := repository.NewScheduleRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)

	// ---------- publishers ----------
	registry := publisher.NewRegistry(
		publisher.NewRedditPublisher(),
		publisher.NewTwitterPublisher(),
		publisher.NewYouTubePublisher(),
	)

	// ---------- redis cache ----------
	var store cache.Cache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisCache.Close()
		cache.StartRedisSizeCollector(ctx, redisCache.RawClient(), 30*time.Second, log.Default())
		store = redisCache
	}

	// ---------- kafka audit trail ----------
	var (
		auditCh chan kafka.AuditEvent
		auditWG *sync.WaitGroup
	)
	if cfg.AuditEnabled {
		producer, err := kafka.NewSyncProducer(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			log.Fatal("kafka producer: ", err)
		}
		defer producer.Close()

		auditCh = make(chan kafka.AuditEvent, 100)
		auditWG = service.StartAuditWorker(auditCh, producer, log.Default())
	}

	// ---------- ai provider ----------
	var generator service.Generator
	if cfg.AIBaseURL != "" {
		generator = ai.NewClient(cfg.AIBaseURL, cfg.AIModel, cfg.AIAPIKey, cfg.AITimeout)
	}

	// ---------- services ----------
	scheduleSvc := service.NewScheduleService(scheduleRepo, registry, log.Default())
	contentSvc := service.NewContentService(jobRepo, profileRepo, generator, log.Default())

	// ---------- dispatcher ----------
	dispatcher := service.NewDispatcher(
		scheduleRepo,
		jobRepo,
		registry,
		cfg.DispatcherInterval,
		cfg.DispatcherBatchSize,
		cfg.PublishTimeout,
		cfg.StuckAfter,
		auditCh,
		log.Default(),
	)
	if cfg.DispatcherEnabled {
		dispatcher.Start(ctx)
	} else {
		log.Println("dispatcher disabled, schedules will not be delivered by this instance")
	}

	// ---------- handlers ----------
	scheduleHandler := handlers.NewScheduleHandler(scheduleSvc)
	jobHandler := handlers.NewJobHandler(contentSvc, store, cfg.CacheTTL)
	profileHandler := handlers.NewProfileHandler(profileRepo)
	publisherHandler := handlers.NewPublisherHandler(registry, store, cfg.CacheTTL)

	// ---------- router ----------
	r := chi.NewRouter()
	r.Use(metrics.HTTPMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	handlers.RegisterRoutes(r, scheduleHandler, jobHandler, profileHandler, publisherHandler)

	// ---------- start server ----------
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Println("server starting on", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	// stop taking requests first, then let the in-flight tick finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("http shutdown:", err)
	}
	dispatcher.Stop()

	// the dispatcher is the only audit sender; safe to drain and close
	if auditCh != nil {
		close(auditCh)
		auditWG.Wait()
	}
}
