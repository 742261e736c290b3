package configs

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// 上游行情接口
	Upstream UpstreamConfig `json:"upstream" yaml:"upstream"`

	// 缓存参数
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// 预热与定时刷新
	Warmup WarmupConfig `json:"warmup" yaml:"warmup"`

	Proxy string `json:"proxy" yaml:"proxy"`
}

type UpstreamConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"` // 上游根地址
	Timeout string `json:"timeout" yaml:"timeout"`   // 单次请求超时
}

type CacheConfig struct {
	CoinsTTL   string `json:"coins_ttl" yaml:"coins_ttl"`     // 币种列表
	TickersTTL string `json:"tickers_ttl" yaml:"tickers_ttl"` // 行情列表
	DetailTTL  string `json:"detail_ttl" yaml:"detail_ttl"`   // 单币详情
	Backoff    string `json:"backoff" yaml:"backoff"`         // 失败退避窗口
}

type WarmupConfig struct {
	Currencies      []string `json:"currencies" yaml:"currencies"`             // 启动时预热的计价货币
	RefreshInterval string   `json:"refresh_interval" yaml:"refresh_interval"` // 周期性刷新间隔
}

// Load reads a JSON or YAML config file, selected by extension.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return config, nil
	}
	if err := json.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// Duration parses s, falling back to def when it is empty or malformed.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
