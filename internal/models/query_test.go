package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQuery_NormalizeDefaults(t *testing.T) {
	q := ListQuery{}
	require.NoError(t, q.Normalize())
	assert.Equal(t, SortPriceDesc, q.Sort)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.Limit)
}

func TestListQuery_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		query   ListQuery
		wantErr bool
	}{
		{"full valid", ListQuery{Search: "bit", Type: CoinTypeCoin, Sort: SortRankAsc, Page: 3, Limit: 100}, false},
		{"token type", ListQuery{Type: CoinTypeToken}, false},
		{"unknown type", ListQuery{Type: "stablecoin"}, true},
		{"unknown sort", ListQuery{Sort: "volume_desc"}, true},
		{"negative page", ListQuery{Page: -1}, true},
		{"limit zero means default", ListQuery{Limit: 0}, false},
		{"limit over max", ListQuery{Limit: 101}, true},
		{"negative limit", ListQuery{Limit: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestListQuery_NormalizeTrimsSearch(t *testing.T) {
	q := ListQuery{Search: "  bit  "}
	require.NoError(t, q.Normalize())
	assert.Equal(t, "bit", q.Search)

	q = ListQuery{Search: "   "}
	require.NoError(t, q.Normalize())
	assert.Empty(t, q.Search, "blank search behaves as no search")
}

func TestLogoURL(t *testing.T) {
	assert.Equal(t, "https://static.coinpaprika.com/coin/btc-bitcoin/logo.png", LogoURL("btc-bitcoin"))
}

func TestCoinRanked(t *testing.T) {
	assert.True(t, Coin{Rank: 1}.Ranked())
	assert.False(t, Coin{Rank: 0}.Ranked())
	assert.False(t, Coin{Rank: -2}.Ranked())
}
