package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coinpulse/coinpulse/internal/market"
	"github.com/coinpulse/coinpulse/internal/models"
)

// 各资源的默认生存期，可按需调整
const (
	DefaultCoinsTTL   = 5 * time.Minute
	DefaultTickersTTL = 2 * time.Minute
	DefaultDetailTTL  = 60 * time.Second
	DefaultBackoff    = 10 * time.Second

	// maxDetailEntries caps the per-coin detail map; expired entries are
	// pruned once the cap is crossed.
	maxDetailEntries = 512
)

// Config 缓存参数
type Config struct {
	CoinsTTL   time.Duration
	TickersTTL time.Duration
	DetailTTL  time.Duration
	Backoff    time.Duration
}

func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.CoinsTTL <= 0 {
		out.CoinsTTL = DefaultCoinsTTL
	}
	if out.TickersTTL <= 0 {
		out.TickersTTL = DefaultTickersTTL
	}
	if out.DetailTTL <= 0 {
		out.DetailTTL = DefaultDetailTTL
	}
	if out.Backoff <= 0 {
		out.Backoff = DefaultBackoff
	}
	return out
}

// Service implements market.Service over a market.Provider, shielding
// callers from upstream latency, duplicate fetches and transient failures.
type Service struct {
	provider market.Provider
	log      market.Logger
	cfg      Config
	now      func() time.Time // injectable for tests

	coins *resource[[]models.Coin]

	mu        sync.Mutex
	tickers   map[string]*resource[map[string]models.Ticker]
	details   map[string]*resource[*models.Detail]
	snapshots map[string]*listSnapshot
	index     *coinIndex
}

// coinIndex 按币种 id 的查找表，随 coins 代次失效
type coinIndex struct {
	gen  uint64
	byID map[string]models.Coin
}

func NewService(provider market.Provider, cfg *Config, log market.Logger) *Service {
	if log == nil {
		log = market.NopLogger{}
	}
	s := &Service{
		provider:  provider,
		log:       log,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		tickers:   make(map[string]*resource[map[string]models.Ticker]),
		details:   make(map[string]*resource[*models.Detail]),
		snapshots: make(map[string]*listSnapshot),
	}
	s.coins = newResource("coins", s.cfg.CoinsTTL, s.cfg.Backoff, func(ctx context.Context) ([]models.Coin, error) {
		return s.provider.FetchCoins(ctx)
	}, log)
	s.coins.now = s.now
	return s
}

// List implements market.Service
func (s *Service) List(ctx context.Context, query models.ListQuery, currency string) (*models.ListResponse, error) {
	if err := query.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrInvalidQuery, err)
	}
	cur := normalizeCurrency(currency)

	coins, coinsGen, tmap, tickersGen, err := s.bulk(ctx, cur)
	if err != nil {
		return nil, err
	}

	snap := s.snapshotFor(cur, coinsGen, tickersGen, coins, tmap)
	seq := snap.sortedBy(query.Sort)

	// Filtering runs over the sorted sequence so survivors keep their
	// relative order.
	filtered := seq
	if query.Type != "" || query.Search != "" {
		searchLower := strings.ToLower(query.Search)
		filtered = make([]record, 0, len(seq))
		for _, rec := range seq {
			if query.Type != "" && rec.coin.Type != query.Type {
				continue
			}
			if searchLower != "" &&
				!strings.Contains(rec.nameLower, searchLower) &&
				!strings.Contains(rec.symbolLower, searchLower) {
				continue
			}
			filtered = append(filtered, rec)
		}
	}

	total := len(filtered)
	offset := (query.Page - 1) * query.Limit
	end := offset + query.Limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	items := make([]models.ListItem, 0, end-offset)
	for _, rec := range filtered[offset:end] {
		items = append(items, rec.listItem(cur))
	}

	return &models.ListResponse{
		Data: items,
		Pagination: models.Pagination{
			Page:  query.Page,
			Limit: query.Limit,
			Total: total,
		},
	}, nil
}

// GetByID implements market.Service
func (s *Service) GetByID(ctx context.Context, coinID, currency string) (*models.Detail, error) {
	id := strings.TrimSpace(coinID)
	if id == "" {
		return nil, market.ErrNotFound
	}
	cur := normalizeCurrency(currency)

	detail, _, err := s.detailFor(id, cur).get(ctx)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// GetByIDs implements market.Service
func (s *Service) GetByIDs(ctx context.Context, ids []string, currency string) ([]models.ListItem, error) {
	if len(ids) == 0 {
		return []models.ListItem{}, nil
	}
	cur := normalizeCurrency(currency)

	coins, coinsGen, tmap, _, err := s.bulk(ctx, cur)
	if err != nil {
		return nil, err
	}
	byID := s.indexFor(coinsGen, coins)

	items := make([]models.ListItem, 0, len(ids))
	for _, id := range ids {
		coin, ok := byID[id]
		if !ok {
			continue // unknown ids are dropped, not an error
		}
		rec := record{
			coin:        coin,
			nameLower:   strings.ToLower(coin.Name),
			symbolLower: strings.ToLower(coin.Symbol),
		}
		if t, ok := tmap[id]; ok {
			t := t
			rec.ticker = &t
		}
		items = append(items, rec.listItem(cur))
	}
	return items, nil
}

// HasCoinID implements market.Service
func (s *Service) HasCoinID(ctx context.Context, coinID string) (bool, error) {
	id := strings.TrimSpace(coinID)
	if id == "" {
		return false, nil
	}
	coins, gen, err := s.coins.get(ctx)
	if err != nil {
		return false, err
	}
	_, ok := s.indexFor(gen, coins)[id]
	return ok, nil
}

// Warmup implements market.Service
func (s *Service) Warmup(ctx context.Context, currency string) error {
	cur := normalizeCurrency(currency)
	coins, coinsGen, tmap, tickersGen, err := s.bulk(ctx, cur)
	if err != nil {
		return err
	}
	snap := s.snapshotFor(cur, coinsGen, tickersGen, coins, tmap)
	snap.sortedBy(models.DefaultSort)
	snap.sortedBy(models.SortRankAsc)
	s.log.Info("warmup complete", "currency", cur, "coins", len(coins), "tickers", len(tmap))
	return nil
}

// bulk obtains the coin catalog and the currency's ticker map, issuing both
// fetches concurrently when either cache is not fresh.
func (s *Service) bulk(ctx context.Context, currency string) (coins []models.Coin, coinsGen uint64, tmap map[string]models.Ticker, tickersGen uint64, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		coins, coinsGen, err = s.coins.get(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tmap, tickersGen, err = s.tickersFor(currency).get(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, nil, 0, err
	}
	return coins, coinsGen, tmap, tickersGen, nil
}

func (s *Service) tickersFor(currency string) *resource[map[string]models.Ticker] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.tickers[currency]; ok {
		return r
	}
	r := newResource("tickers:"+currency, s.cfg.TickersTTL, s.cfg.Backoff, func(ctx context.Context) (map[string]models.Ticker, error) {
		tickers, err := s.provider.FetchTickers(ctx, currency)
		if err != nil {
			return nil, err
		}
		m := make(map[string]models.Ticker, len(tickers))
		for _, t := range tickers {
			m[t.ID] = t
		}
		return m, nil
	}, s.log)
	r.now = s.now
	s.tickers[currency] = r
	return r
}

func (s *Service) detailFor(coinID, currency string) *resource[*models.Detail] {
	key := coinID + "|" + currency

	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.details[key]; ok {
		return r
	}
	if len(s.details) >= maxDetailEntries {
		s.pruneDetailsLocked()
	}
	r := newResource("detail:"+key, s.cfg.DetailTTL, s.cfg.Backoff, func(ctx context.Context) (*models.Detail, error) {
		return s.fetchDetail(ctx, coinID, currency)
	}, s.log)
	r.now = s.now
	s.details[key] = r
	return r
}

func (s *Service) pruneDetailsLocked() {
	now := s.now()
	for key, r := range s.details {
		if r.expired(now) {
			delete(s.details, key)
		}
	}
}

// fetchDetail pulls the per-coin endpoints, independent of the bulk caches.
func (s *Service) fetchDetail(ctx context.Context, coinID, currency string) (*models.Detail, error) {
	var (
		cd *models.CoinDetail
		tk *models.Ticker
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cd, err = s.provider.FetchCoinDetail(gctx, coinID)
		return err
	})
	g.Go(func() error {
		var err error
		tk, err = s.provider.FetchTicker(gctx, coinID, currency)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail := &models.Detail{
		ID:                cd.ID,
		Name:              cd.Name,
		Symbol:            cd.Symbol,
		Type:              cd.Type,
		Description:       cd.Description,
		CirculatingSupply: cd.CirculatingSupply,
		MaxSupply:         cd.MaxSupply,
		LogoURL:           models.LogoURL(cd.ID),
	}
	if cd.Ranked() {
		rank := cd.Rank
		detail.Rank = &rank
	}
	if q := quoteFor(tk, currency); q != nil {
		detail.Price = q.Price
		detail.PercentChange1h = q.PercentChange1h
		detail.PercentChange24h = q.PercentChange24h
		detail.PercentChange7d = q.PercentChange7d
		detail.MarketCap = q.MarketCap
		detail.Volume24h = q.Volume24h
	}
	return detail, nil
}

func (s *Service) snapshotFor(currency string, coinsGen, tickersGen uint64, coins []models.Coin, tmap map[string]models.Ticker) *listSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.snapshots[currency]; ok && snap.matches(coinsGen, tickersGen) {
		return snap
	}
	snap := newListSnapshot(currency, coinsGen, tickersGen, coins, tmap)
	s.snapshots[currency] = snap
	return snap
}

func (s *Service) indexFor(gen uint64, coins []models.Coin) map[string]models.Coin {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil && s.index.gen == gen {
		return s.index.byID
	}
	byID := make(map[string]models.Coin, len(coins))
	for _, c := range coins {
		byID[c.ID] = c
	}
	s.index = &coinIndex{gen: gen, byID: byID}
	return byID
}

// quoteFor resolves a ticker's quote with base-currency fallback.
func quoteFor(t *models.Ticker, currency string) *models.Quote {
	if t == nil {
		return nil
	}
	if q, ok := t.Quotes[currency]; ok {
		return &q
	}
	if currency != market.BaseCurrency {
		if q, ok := t.Quotes[market.BaseCurrency]; ok {
			return &q
		}
	}
	return nil
}

func normalizeCurrency(currency string) string {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "" {
		return market.BaseCurrency
	}
	return cur
}
