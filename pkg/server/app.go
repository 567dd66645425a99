package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockPulse/internal/alert"
	"StockPulse/internal/domain/models"
	"StockPulse/internal/handler/api"
	"StockPulse/internal/handler/ws"
	"StockPulse/internal/service/finnhub"
	"StockPulse/internal/service/snapshot"
	"StockPulse/internal/service/webex"
	"StockPulse/internal/stream"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/cache"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/util"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *xlogger.Logger
	distributor *usecase.Distributor
	httpServer  *xhttp.Server
	store       *snapshot.Cache
	redisCache  *cache.RedisCache
}

// New wires all dependencies from configuration.
func New(cfg *config.Config) (*App, error) {
	l, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, err
	}

	rec := metrics.New()

	// Redis is optional infrastructure. When it is down or disabled the
	// snapshot store runs on its in-process fallback alone.
	var redisCache *cache.RedisCache
	var primary cache.Service
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			l.Warn("redis unavailable, using in-memory snapshot store only",
				xlogger.Error(err))
		} else {
			primary = redisCache
			l.Info("redis connected",
				xlogger.String("host", cfg.Redis.Host),
				xlogger.Int("port", cfg.Redis.Port))
		}
	}

	store := snapshot.NewCache(primary, l)

	engine := alert.NewEngine()
	for _, r := range cfg.Alerts.Rules {
		engine.AddRule(models.AlertRule{
			ID:              r.ID,
			Symbol:          util.NormalizeSymbol(r.Symbol),
			Operator:        models.Operator(r.Operator),
			Threshold:       r.Threshold,
			Description:     r.Description,
			Enabled:         r.Enabled,
			CooldownSeconds: r.CooldownSeconds,
		})
	}

	registry := stream.NewRegistry(stream.RegistryConfig{
		Buffer:      cfg.Distribution.SubscriberBuffer,
		SendTimeout: cfg.Distribution.SendTimeout,
	}, l, rec)

	source := finnhub.New(finnhub.Config{
		APIKey:       cfg.Finnhub.APIKey,
		QuoteURL:     cfg.Finnhub.QuoteURL,
		FetchTimeout: cfg.Finnhub.FetchTimeout,
		MockOnly:     cfg.Finnhub.MockOnly,
		RatePerSec:   cfg.Finnhub.RatePerSec,
		Burst:        cfg.Finnhub.Burst,
	}, l, rec)

	notifier := webex.New(webex.Config{
		APIURL:   cfg.Webex.APIURL,
		BotToken: cfg.Webex.BotToken,
		RoomID:   cfg.Webex.RoomID,
		Timeout:  cfg.Webex.Timeout,
	}, l, rec)

	dist := usecase.NewDistributor(usecase.DistributorConfig{
		Symbols:   cfg.Finnhub.Symbols,
		Interval:  cfg.Distribution.Interval,
		Freshness: cfg.Distribution.Freshness,
	}, source, store, engine, registry, notifier, rec, l)

	handlers := xhttp.Handlers{
		api.New(l, dist, engine, registry),
		ws.New(l, registry, dist),
	}

	httpServer := xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)

	return &App{
		cfg:         cfg,
		logger:      l,
		distributor: dist,
		httpServer:  httpServer,
		store:       store,
		redisCache:  redisCache,
	}, nil
}

// Run starts the distribution loop and HTTP server, then blocks until
// an interrupt arrives and shutdown completes.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.distributor.Start(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", xlogger.Error(err))
		return err
	}
	a.logger.Info("http server started", xlogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops the loop and HTTP server and closes infrastructure.
func (a *App) shutdown() error {
	// let the loop finish its current tick, but never hang on it
	select {
	case <-a.distributor.Done():
	case <-time.After(a.cfg.Server.ShutdownTimeout):
		a.logger.Warn("distribution loop did not stop in time")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", xlogger.Error(err))
	}

	a.store.Close()
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.logger.Warn("redis close error", xlogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
