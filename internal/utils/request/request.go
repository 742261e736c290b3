package request

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every upstream call; the caller's context can
// shorten it but nothing extends it.
const DefaultTimeout = 10 * time.Second

// New builds a shared client honoring proxy environment variables.
func New(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
	}).SetRetryCount(3).SetTimeout(timeout)
}

var Request = New(DefaultTimeout)
