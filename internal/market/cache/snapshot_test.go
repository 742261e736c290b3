package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpulse/coinpulse/internal/models"
)

func f64(v float64) *float64 { return &v }

func makeRecord(id, name string, rank int, price, change *float64) record {
	rec := record{
		coin: models.Coin{
			ID:     id,
			Name:   name,
			Symbol: id,
			Rank:   rank,
			Type:   models.CoinTypeCoin,
		},
		nameLower:   name,
		symbolLower: id,
	}
	rec.ticker = &models.Ticker{
		ID: id,
		Quotes: map[string]models.Quote{
			"USD": {Price: price, PercentChange24h: change},
		},
	}
	return rec
}

func ids(seq []record) []string {
	out := make([]string, 0, len(seq))
	for _, r := range seq {
		out = append(out, r.coin.ID)
	}
	return out
}

func TestCompareRecords_Ordering(t *testing.T) {
	btc := makeRecord("btc", "bitcoin", 1, f64(65000), f64(-1.8))
	eth := makeRecord("eth", "ethereum", 2, f64(3200), f64(-0.6))
	usdt := makeRecord("usdt", "tether", 3, f64(1), f64(0))
	ghost := makeRecord("ghost", "ghostcoin", 4, nil, nil)
	unranked := makeRecord("zzz", "zetacoin", 0, f64(5), f64(1))

	tests := []struct {
		name string
		key  models.SortKey
		recs []record
		want []string
	}{
		{
			name: "price desc",
			key:  models.SortPriceDesc,
			recs: []record{usdt, btc, eth},
			want: []string{"btc", "eth", "usdt"},
		},
		{
			name: "price asc",
			key:  models.SortPriceAsc,
			recs: []record{btc, eth, usdt},
			want: []string{"usdt", "eth", "btc"},
		},
		{
			name: "missing price sorts last in both directions",
			key:  models.SortPriceDesc,
			recs: []record{ghost, btc, eth},
			want: []string{"btc", "eth", "ghost"},
		},
		{
			name: "missing price sorts last ascending too",
			key:  models.SortPriceAsc,
			recs: []record{ghost, btc, eth},
			want: []string{"eth", "btc", "ghost"},
		},
		{
			name: "change desc",
			key:  models.SortChange24hDesc,
			recs: []record{btc, eth, usdt},
			want: []string{"usdt", "eth", "btc"},
		},
		{
			name: "name desc",
			key:  models.SortNameDesc,
			recs: []record{btc, eth, usdt},
			want: []string{"usdt", "eth", "btc"},
		},
		{
			name: "rank asc is rank then name",
			key:  models.SortRankAsc,
			recs: []record{usdt, eth, btc},
			want: []string{"btc", "eth", "usdt"},
		},
		{
			name: "unranked sorts after ranked",
			key:  models.SortRankAsc,
			recs: []record{unranked, usdt, btc},
			want: []string{"btc", "usdt", "zzz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &listSnapshot{
				currency: "USD",
				records:  tt.recs,
				sorted:   make(map[models.SortKey][]record),
			}
			assert.Equal(t, tt.want, ids(snap.sortedBy(tt.key)))
		})
	}
}

func TestCompareRecords_TieBreaksByRankThenName(t *testing.T) {
	a := makeRecord("aaa", "acoin", 2, f64(100), nil)
	b := makeRecord("bbb", "bcoin", 1, f64(100), nil)
	c := makeRecord("ccc", "ccoin", 1, f64(100), nil)

	snap := &listSnapshot{
		currency: "USD",
		records:  []record{a, c, b},
		sorted:   make(map[models.SortKey][]record),
	}
	// Equal prices: rank ascending wins, names break the remaining tie.
	assert.Equal(t, []string{"bbb", "ccc", "aaa"}, ids(snap.sortedBy(models.SortPriceDesc)))
}

func TestListSnapshot_MemoizesPerSortKey(t *testing.T) {
	snap := newListSnapshot("USD", 1, 1,
		[]models.Coin{
			{ID: "btc", Name: "Bitcoin", Symbol: "BTC", Rank: 1, Type: models.CoinTypeCoin},
			{ID: "eth", Name: "Ethereum", Symbol: "ETH", Rank: 2, Type: models.CoinTypeCoin},
		},
		map[string]models.Ticker{
			"btc": {ID: "btc", Quotes: map[string]models.Quote{"USD": {Price: f64(65000)}}},
		},
	)

	first := snap.sortedBy(models.SortPriceDesc)
	second := snap.sortedBy(models.SortPriceDesc)
	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &second[0], "ordering is computed once per key")

	assert.True(t, snap.matches(1, 1))
	assert.False(t, snap.matches(2, 1), "a new coins generation invalidates the snapshot")
}

func TestRecord_QuoteFallsBackToBaseCurrency(t *testing.T) {
	rec := makeRecord("eth", "ethereum", 2, f64(3200), f64(-0.6))

	q := rec.quote("EUR")
	require.NotNil(t, q, "missing EUR quote falls back to USD")
	assert.Equal(t, 3200.0, *q.Price)

	rec.ticker.Quotes["EUR"] = models.Quote{Price: f64(2950)}
	q = rec.quote("EUR")
	require.NotNil(t, q)
	assert.Equal(t, 2950.0, *q.Price)

	rec.ticker = nil
	assert.Nil(t, rec.quote("EUR"))
}

func TestRecord_ListItemProjection(t *testing.T) {
	rec := makeRecord("btc", "bitcoin", 1, f64(65000), f64(-1.8))
	rec.coin.Name = "Bitcoin"

	item := rec.listItem("USD")
	assert.Equal(t, "btc", item.ID)
	assert.Equal(t, "Bitcoin", item.Name)
	require.NotNil(t, item.Rank)
	assert.Equal(t, 1, *item.Rank)
	require.NotNil(t, item.Price)
	assert.Equal(t, 65000.0, *item.Price)
	assert.Equal(t, "https://static.coinpaprika.com/coin/btc/logo.png", item.LogoURL)

	unranked := makeRecord("new", "newcoin", 0, nil, nil)
	item = unranked.listItem("USD")
	assert.Nil(t, item.Rank, "rank 0 projects as unknown")
	assert.Nil(t, item.Price)
	assert.Nil(t, item.PercentChange24h)
}
