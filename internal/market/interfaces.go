package market

import (
	"context"

	"github.com/coinpulse/coinpulse/internal/models"
)

// BaseCurrency is the quote currency used when the caller does not name one
// and the fallback when a ticker misses the requested currency.
const BaseCurrency = "USD"

// Provider 负责从上游行情接口拉取原始数据
type Provider interface {
	// FetchCoins retrieves the full coin catalog.
	FetchCoins(ctx context.Context) ([]models.Coin, error)

	// FetchTickers retrieves all tickers quoted in the given currency.
	FetchTickers(ctx context.Context, currency string) ([]models.Ticker, error)

	// FetchCoinDetail retrieves description and supply data for one coin.
	FetchCoinDetail(ctx context.Context, coinID string) (*models.CoinDetail, error)

	// FetchTicker retrieves one coin's ticker quoted in the given currency.
	FetchTicker(ctx context.Context, coinID, currency string) (*models.Ticker, error)
}

// Service 对外提供带缓存的行情读取能力
type Service interface {
	// List returns a filtered, sorted, paginated page of the catalog.
	List(ctx context.Context, query models.ListQuery, currency string) (*models.ListResponse, error)

	// GetByID returns the full detail projection for one coin.
	GetByID(ctx context.Context, coinID, currency string) (*models.Detail, error)

	// GetByIDs projects the given coins in input order, silently dropping
	// unknown ids. An empty input returns an empty slice without any fetch.
	GetByIDs(ctx context.Context, ids []string, currency string) ([]models.ListItem, error)

	// HasCoinID reports whether the id exists in the coin catalog.
	HasCoinID(ctx context.Context, coinID string) (bool, error)

	// Warmup eagerly fetches and pre-sorts data for the given currency.
	Warmup(ctx context.Context, currency string) error
}

// Logger 精简日志接口，便于测试注入
type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// NopLogger discards everything. Used by tests and as a nil-safe default.
type NopLogger struct{}

func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
