package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/lexiguard/internal/application"
	appanalysis "github.com/bryanwahyu/lexiguard/internal/application/analysis"
	"github.com/bryanwahyu/lexiguard/internal/application/dispatch"
	"github.com/bryanwahyu/lexiguard/internal/application/uploads"
	"github.com/bryanwahyu/lexiguard/internal/config"
	"github.com/bryanwahyu/lexiguard/internal/domain/analysis"
	"github.com/bryanwahyu/lexiguard/internal/domain/history"
	openaiClient "github.com/bryanwahyu/lexiguard/internal/infra/ai/openai"
	"github.com/bryanwahyu/lexiguard/internal/infra/auth"
	"github.com/bryanwahyu/lexiguard/internal/infra/cache"
	"github.com/bryanwahyu/lexiguard/internal/infra/corpus"
	mysqlp "github.com/bryanwahyu/lexiguard/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/lexiguard/internal/infra/db/postgres"
	"github.com/bryanwahyu/lexiguard/internal/infra/extract"
	"github.com/bryanwahyu/lexiguard/internal/infra/httpserver"
	"github.com/bryanwahyu/lexiguard/internal/infra/queue"
	minioStore "github.com/bryanwahyu/lexiguard/internal/infra/storage"
)

const version = "1.0.0"

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// connect database (mysql or postgres)
	var db *sql.DB
	var historyRepo history.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		historyRepo = postgresp.NewHistoryRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		historyRepo = mysqlp.NewHistoryRepository(db)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init redis; fall back to in-memory cache when unreachable
	clock := application.SystemClock{}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var resultCache analysis.Cache
	redisCache := cache.NewRedis(rdb)
	if err := redisCache.Ping(ctx); err != nil {
		log.Printf("redis unavailable, falling back to in-memory cache: %v", err)
		resultCache = cache.NewMemory(clock)
		if cerr := rdb.Close(); cerr != nil {
			log.Printf("redis close error: %v", cerr)
		}
		rdb = nil
	} else {
		resultCache = redisCache
	}

	// load statutory corpus (read-only, process-wide)
	corp, err := corpus.Load(cfg.Analysis.CorpusPath)
	if err != nil {
		log.Fatalf("corpus load error: %v", err)
	}

	// init identity verifier
	verifier, err := auth.NewVerifier(ctx, cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		log.Fatalf("jwks init error: %v", err)
	}

	// pending upload registry, fed by the broker consumer
	pending := uploads.NewPending()
	if rdb != nil {
		consumer := queue.NewUploadConsumer(rdb, cfg.Redis.UploadChannel, pending)
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("upload consumer stopped: %v", err)
			}
		}()
	} else {
		log.Printf("upload notifications disabled: no broker connection")
	}

	// init dispatcher + orchestrator
	dispatcher := &dispatch.Dispatcher{
		Objects:    store,
		Extractor:  extract.NewPDFExtractor(),
		Matcher:    corpus.NewMatcher(corp),
		Summarizer: openaiClient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model),
		Cache:      resultCache,
		History:    historyRepo,
		Clock:      clock,

		CacheTTL:    cfg.CacheTTL(),
		MaxAttempts: cfg.Analysis.SummarizeAttempts,
		JobTimeout:  cfg.JobTimeout(),
	}
	svc := &appanalysis.Service{
		Pending:     pending,
		Objects:     store,
		Cache:       resultCache,
		Jobs:        dispatcher,
		History:     historyRepo,
		WaitTimeout: cfg.WaitTimeout(),
	}

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, verifier, version))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WaitTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")
	cancel()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
