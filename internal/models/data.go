package models

import "fmt"

// CoinType 币种类型
type CoinType string

const (
	CoinTypeCoin  CoinType = "coin"
	CoinTypeToken CoinType = "token"
)

// Coin 币种基本信息，来自上游 /coins 列表
type Coin struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Symbol string   `json:"symbol"`
	Rank   int      `json:"rank"` // 0 表示未排名
	Type   CoinType `json:"type"`
}

// Ranked reports whether the coin carries a usable rank.
func (c Coin) Ranked() bool {
	return c.Rank > 0
}

// Quote 单一计价货币下的行情快照，缺失的指标保持为 nil
type Quote struct {
	Price            *float64 `json:"price,omitempty"`
	MarketCap        *float64 `json:"market_cap,omitempty"`
	Volume24h        *float64 `json:"volume_24h,omitempty"`
	PercentChange1h  *float64 `json:"percent_change_1h,omitempty"`
	PercentChange24h *float64 `json:"percent_change_24h,omitempty"`
	PercentChange7d  *float64 `json:"percent_change_7d,omitempty"`
}

// Ticker 行情数据，按计价货币索引
type Ticker struct {
	ID     string           `json:"id"`
	Quotes map[string]Quote `json:"quotes"`
}

// CoinDetail 上游 /coins/{id} 返回的详情
type CoinDetail struct {
	Coin
	Description       string   `json:"description,omitempty"`
	CirculatingSupply *float64 `json:"circulating_supply,omitempty"`
	MaxSupply         *float64 `json:"max_supply,omitempty"`
}

// ListItem 列表页投影
type ListItem struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Symbol           string   `json:"symbol"`
	Rank             *int     `json:"rank"`
	Type             CoinType `json:"type"`
	Price            *float64 `json:"price,omitempty"`
	PercentChange24h *float64 `json:"percentChange24h,omitempty"`
	LogoURL          string   `json:"logoUrl"`
}

// Detail 详情页投影
type Detail struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	Rank              *int     `json:"rank"`
	Type              CoinType `json:"type"`
	Description       string   `json:"description,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	PercentChange1h   *float64 `json:"percentChange1h,omitempty"`
	PercentChange24h  *float64 `json:"percentChange24h,omitempty"`
	PercentChange7d   *float64 `json:"percentChange7d,omitempty"`
	MarketCap         *float64 `json:"marketCap,omitempty"`
	Volume24h         *float64 `json:"volume24h,omitempty"`
	CirculatingSupply *float64 `json:"circulatingSupply,omitempty"`
	MaxSupply         *float64 `json:"maxSupply,omitempty"`
	LogoURL           string   `json:"logoUrl"`
}

// Pagination 分页信息
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListResponse 列表响应
type ListResponse struct {
	Data       []ListItem `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// LogoURL derives the deterministic logo location for a coin id.
// Presentation convenience only, never fetched or cached.
func LogoURL(coinID string) string {
	return fmt.Sprintf("https://static.coinpaprika.com/coin/%s/logo.png", coinID)
}
