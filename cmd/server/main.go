package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leetcode_backend/internal/api"
	"leetcode_backend/internal/app/service"
	"leetcode_backend/internal/common/security"
	"leetcode_backend/internal/domain/language"
	"leetcode_backend/internal/domain/repository"
	"leetcode_backend/internal/platform/config"
	"leetcode_backend/internal/platform/database"
	"leetcode_backend/internal/platform/judge"
	"leetcode_backend/internal/platform/kv"
	"leetcode_backend/internal/platform/logger"
	"leetcode_backend/internal/platform/metrics"

	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type storage struct {
	problems    repository.ProblemRepository
	submissions repository.SubmissionRepository
	tx          repository.TxManager
	close       func()
}

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	log.Info("configuration loaded", "storage", cfg.StorageBackend, "judge", cfg.JudgeBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		stop()
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}

// run serves until ctx is cancelled. Every resource it opens is closed before
// it returns.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// 2. Language registry
	langs, err := loadLanguages(cfg.LanguagesFile)
	if err != nil {
		return fmt.Errorf("load languages from %q: %w", cfg.LanguagesFile, err)
	}

	// 3. Storage
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageBackend, err)
	}
	defer store.close()

	// 4. Submit lock
	var locker kv.Locker = kv.NopLocker{}
	if cfg.RedisAddr != "" {
		rdb, err := kv.ConnectRedis(ctx, kv.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		locker = kv.NewRedisLocker(rdb, cfg.SubmitLockTTL, log)
		log.Info("redis connected", "addr", cfg.RedisAddr)
	} else {
		log.Warn("REDIS_ADDR not set, submit lock disabled")
	}

	// 5. Metrics and judge client
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	judgeClient := judge.NewClient(judge.Options{
		BaseURL:         cfg.JudgeBaseURL,
		AuthToken:       cfg.JudgeAuthToken,
		PollInterval:    cfg.JudgePollInterval,
		MaxPollAttempts: cfg.JudgeMaxPollAttempts,
		MaxBatchSize:    cfg.JudgeMaxBatchSize,
		HTTPClient:      &http.Client{Timeout: cfg.JudgeHTTPTimeout},
		Metrics:         m,
	})
	runner := service.NewBatchRunner(judgeClient, m, log)

	// 6. Services
	problemService := service.NewProblemService(store.problems, store.tx, runner, langs, m, log, cfg.ValidationConcurrency)
	submissionService := service.NewSubmissionService(store.submissions, store.problems, store.tx, runner, langs, locker, m, log)

	// 7. Router & HTTP Server
	router := api.NewRouter(api.RouterDeps{
		TokenAuth:   security.NewTokenAuth(cfg.JWTKey, cfg.JWTExp),
		Problems:    problemService,
		Submissions: submissionService,
		Languages:   langs,
		Metrics:     m,
		Logger: httplog.NewLogger("leetcode-backend", httplog.Options{
			LogLevel: logger.ParseLevel(cfg.LogLevel),
			JSON:     cfg.LogFormat == "json",
			Concise:  true,
		}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout:     cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("listen on %s: %w", server.Addr, err)
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func loadLanguages(path string) (*language.Registry, error) {
	if path == "" {
		return language.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return language.LoadTOML(f)
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storage, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		mem := repository.NewMemoryStore()
		return &storage{problems: mem, submissions: mem, tx: mem, close: func() {}}, nil

	case config.StorageBackendPostgres:
		db, err := database.Connect(cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("database connected", "host", cfg.DBHost, "db", cfg.DBName)
		return &storage{
			problems:    repository.NewPgProblemRepository(db),
			submissions: repository.NewPgSubmissionRepository(db),
			tx:          repository.NewPgTxManager(db),
			close:       func() { db.Close() },
		}, nil
	}
	return nil, errors.New("unknown STORAGE_BACKEND " + cfg.StorageBackend)
}
