package cache

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/coinpulse/coinpulse/internal/models"
)

// record 连接币种与其行情的列表行
type record struct {
	coin        models.Coin
	ticker      *models.Ticker // nil when no ticker matched the coin id
	nameLower   string
	symbolLower string
}

// quote resolves the record's quote for a currency, falling back to the
// base currency before reporting the quote as absent.
func (r record) quote(currency string) *models.Quote {
	return quoteFor(r.ticker, currency)
}

func (r record) listItem(currency string) models.ListItem {
	item := models.ListItem{
		ID:      r.coin.ID,
		Name:    r.coin.Name,
		Symbol:  r.coin.Symbol,
		Type:    r.coin.Type,
		LogoURL: models.LogoURL(r.coin.ID),
	}
	if r.coin.Ranked() {
		rank := r.coin.Rank
		item.Rank = &rank
	}
	if q := r.quote(currency); q != nil {
		item.Price = q.Price
		item.PercentChange24h = q.PercentChange24h
	}
	return item
}

// listSnapshot joins one coins generation with one tickers generation for a
// single currency. Orderings are computed lazily and memoized per sort key;
// the whole snapshot is discarded when either generation moves.
type listSnapshot struct {
	currency   string
	coinsGen   uint64
	tickersGen uint64
	records    []record

	mu     sync.Mutex
	sorted map[models.SortKey][]record
}

func newListSnapshot(currency string, coinsGen, tickersGen uint64, coins []models.Coin, tickers map[string]models.Ticker) *listSnapshot {
	records := make([]record, 0, len(coins))
	for _, c := range coins {
		rec := record{
			coin:        c,
			nameLower:   strings.ToLower(c.Name),
			symbolLower: strings.ToLower(c.Symbol),
		}
		if t, ok := tickers[c.ID]; ok {
			t := t
			rec.ticker = &t
		}
		records = append(records, rec)
	}
	return &listSnapshot{
		currency:   currency,
		coinsGen:   coinsGen,
		tickersGen: tickersGen,
		records:    records,
		sorted:     make(map[models.SortKey][]record),
	}
}

func (s *listSnapshot) matches(coinsGen, tickersGen uint64) bool {
	return s.coinsGen == coinsGen && s.tickersGen == tickersGen
}

// sortedBy returns the records ordered by key, computing the ordering once
// per key for the snapshot's lifetime.
func (s *listSnapshot) sortedBy(key models.SortKey) []record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq, ok := s.sorted[key]; ok {
		return seq
	}

	seq := make([]record, len(s.records))
	copy(seq, s.records)
	sort.SliceStable(seq, func(i, j int) bool {
		return compareRecords(seq[i], seq[j], key, s.currency)
	})
	s.sorted[key] = seq
	return seq
}

// compareRecords orders two records by the sort key. Missing or non-finite
// primary values sort last regardless of direction; ties break by ascending
// rank (missing rank last), then ascending lowercased name.
func compareRecords(a, b record, key models.SortKey, currency string) bool {
	switch key {
	case models.SortPriceAsc, models.SortPriceDesc:
		if less, decided := compareMetric(priceOf(a, currency), priceOf(b, currency), key == models.SortPriceDesc); decided {
			return less
		}
	case models.SortChange24hAsc, models.SortChange24hDesc:
		if less, decided := compareMetric(change24hOf(a, currency), change24hOf(b, currency), key == models.SortChange24hDesc); decided {
			return less
		}
	case models.SortNameAsc:
		if a.nameLower != b.nameLower {
			return a.nameLower < b.nameLower
		}
	case models.SortNameDesc:
		if a.nameLower != b.nameLower {
			return a.nameLower > b.nameLower
		}
	}

	// rank_asc lands here directly: rank then name is the base ordering.
	ar, br := a.coin.Rank, b.coin.Rank
	if ar <= 0 {
		ar = 0
	}
	if br <= 0 {
		br = 0
	}
	if ar != br {
		if ar == 0 {
			return false
		}
		if br == 0 {
			return true
		}
		return ar < br
	}
	return a.nameLower < b.nameLower
}

// compareMetric compares two optional metrics. decided is false when the
// values tie or are both absent, deferring to the rank/name tie-break.
func compareMetric(a, b *float64, desc bool) (less, decided bool) {
	av, aok := finite(a)
	bv, bok := finite(b)
	switch {
	case aok && !bok:
		return true, true
	case !aok && bok:
		return false, true
	case !aok && !bok:
		return false, false
	}
	if av == bv {
		return false, false
	}
	if desc {
		return av > bv, true
	}
	return av < bv, true
}

func finite(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func priceOf(r record, currency string) *float64 {
	if q := r.quote(currency); q != nil {
		return q.Price
	}
	return nil
}

func change24hOf(r record, currency string) *float64 {
	if q := r.quote(currency); q != nil {
		return q.PercentChange24h
	}
	return nil
}
