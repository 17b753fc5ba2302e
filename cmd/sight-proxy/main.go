package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Sternrassler/sight-client/internal/config"
	"github.com/Sternrassler/sight-client/pkg/cache"
	"github.com/Sternrassler/sight-client/pkg/client"
	"github.com/Sternrassler/sight-client/pkg/logging"
	"github.com/Sternrassler/sight-client/pkg/pagination"
	"github.com/Sternrassler/sight-client/pkg/session"
	"github.com/Sternrassler/sight-client/pkg/sight"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("sight-proxy failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, err := logging.Setup(logging.Config{
		Level:   level,
		Pretty:  cfg.LogPretty,
		Service: "sight-proxy",
		Output:  os.Stderr,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientCfg := client.Config{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout,
	}

	var redisClient *redis.Client
	if cfg.UseRedis() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")

		withRedis(&clientCfg, redisClient, cfg)
	}

	sightClient, err := client.New(clientCfg)
	if err != nil {
		return err
	}

	var executor pagination.Executor = pagination.WorkerPool{}
	if cfg.Executor == "gather" {
		executor = pagination.Gather{}
	}

	api := sight.New(sightClient, sight.Options{
		ConcurrentFetchesLimit: cfg.Concurrency,
		Executor:               executor,
		PageTimeout:            cfg.PageTimeout,
	})
	defer api.Close()

	if cfg.Username != "" {
		if err := api.Login(ctx, cfg.Username, cfg.Password); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           newServer(api, redisClient, logging.NewLogger("proxy")).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("base_url", cfg.BaseURL).
			Int("concurrency", api.ConcurrentFetchesLimit()).
			Str("executor", cfg.Executor).
			Msg("Starting Sight proxy")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// withRedis backs the session token and the response cache with Redis. Both
// are scoped to the configured account so proxies of different accounts can
// share one Redis.
func withRedis(clientCfg *client.Config, redisClient *redis.Client, cfg *config.Config) {
	clientCfg.Tokens = session.NewRedisStore(redisClient, logging.NewLogger("session"),
		session.WithAccount(cfg.Username),
		session.WithTTL(cfg.SessionTTL))
	clientCfg.Cache = cache.NewManager(redisClient,
		cache.WithDefaultTTL(cfg.CacheTTL),
		cache.WithLogger(logging.NewLogger("cache")))
	clientCfg.CacheScope = cfg.Username
}
