package models

import (
	"fmt"
	"strings"
)

// SortKey 列表排序方式
type SortKey string

const (
	SortRankAsc       SortKey = "rank_asc"
	SortPriceAsc      SortKey = "price_asc"
	SortPriceDesc     SortKey = "price_desc"
	SortChange24hAsc  SortKey = "change24h_asc"
	SortChange24hDesc SortKey = "change24h_desc"
	SortNameAsc       SortKey = "name_asc"
	SortNameDesc      SortKey = "name_desc"
)

const (
	DefaultSort  = SortPriceDesc
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListQuery 列表查询参数，零值字段在 Normalize 时取默认值
type ListQuery struct {
	Search string   `json:"search,omitempty"`
	Type   CoinType `json:"type,omitempty"`
	Sort   SortKey  `json:"sort,omitempty"`
	Page   int      `json:"page,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// Normalize applies defaults and rejects out-of-range or unknown values.
// It must be called before the query reaches any upstream path.
func (q *ListQuery) Normalize() error {
	q.Search = strings.TrimSpace(q.Search)

	switch q.Type {
	case "", CoinTypeCoin, CoinTypeToken:
	default:
		return fmt.Errorf("unknown type %q", q.Type)
	}

	if q.Sort == "" {
		q.Sort = DefaultSort
	}
	switch q.Sort {
	case SortRankAsc, SortPriceAsc, SortPriceDesc,
		SortChange24hAsc, SortChange24hDesc, SortNameAsc, SortNameDesc:
	default:
		return fmt.Errorf("unknown sort %q", q.Sort)
	}

	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", q.Page)
	}

	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return fmt.Errorf("limit must be in [1,%d], got %d", MaxLimit, q.Limit)
	}

	return nil
}
