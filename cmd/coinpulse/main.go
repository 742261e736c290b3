package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coinpulse/coinpulse/internal/configs"
	"github.com/coinpulse/coinpulse/internal/market"
	"github.com/coinpulse/coinpulse/internal/market/cache"
	"github.com/coinpulse/coinpulse/internal/market/coinpaprika"
	"github.com/coinpulse/coinpulse/internal/utils/request"
)

// App 持有组件并驱动预热/刷新循环
type App struct {
	config  *configs.Config
	service market.Service
}

func NewApp(config *configs.Config, service market.Service) *App {
	return &App{
		config:  config,
		service: service,
	}
}

// Run warms the configured currencies once at start and then re-warms on an
// interval, so the first real request never hits a cold cache.
func (a *App) Run(ctx context.Context) error {
	currencies := a.config.Warmup.Currencies
	if len(currencies) == 0 {
		currencies = []string{market.BaseCurrency}
	}

	refreshInterval, err := time.ParseDuration(a.config.Warmup.RefreshInterval)
	if err != nil {
		refreshInterval = time.Minute
	}

	a.warmAll(ctx, currencies)

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.warmAll(ctx, currencies)
		}
	}
}

// warmAll 预热失败不致命，记录后继续
func (a *App) warmAll(ctx context.Context, currencies []string) {
	for _, cur := range currencies {
		if err := a.service.Warmup(ctx, cur); err != nil {
			log.Error("warmup failed", "currency", cur, "err", err)
		}
	}
}

var (
	flagconf string

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.json", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	_ = godotenv.Load()

	config, err := configs.Load(flagconf)
	if err != nil {
		log.Error("Error loading config file", "err", err)
		return
	}

	log.Debug("Loaded config", "config", config)

	if config.Proxy != "" {
		_ = os.Setenv("HTTP_PROXY", config.Proxy)
		_ = os.Setenv("HTTPS_PROXY", config.Proxy)
		log.Debug("set proxy ok", "proxy", config.Proxy)
	}

	if v := os.Getenv("COINPAPRIKA_BASE_URL"); v != "" {
		config.Upstream.BaseURL = v
	}

	httpClient := request.New(configs.Duration(config.Upstream.Timeout, request.DefaultTimeout))
	provider := coinpaprika.NewClient(config.Upstream.BaseURL, httpClient)

	log.Debug("init provider", "base_url", config.Upstream.BaseURL)

	service := cache.NewService(provider, &cache.Config{
		CoinsTTL:   configs.Duration(config.Cache.CoinsTTL, cache.DefaultCoinsTTL),
		TickersTTL: configs.Duration(config.Cache.TickersTTL, cache.DefaultTickersTTL),
		DetailTTL:  configs.Duration(config.Cache.DetailTTL, cache.DefaultDetailTTL),
		Backoff:    configs.Duration(config.Cache.Backoff, cache.DefaultBackoff),
	}, log)

	log.Debug("init service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(config, service)
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("System error", "err", err)
	}
}
