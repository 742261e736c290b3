package market

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 上游返回 404
	ErrNotFound = errors.New("coin not found")

	// ErrUpstream 上游不可用（非 2xx/404，或冷缓存处于退避窗口）
	ErrUpstream = errors.New("upstream unavailable")

	// ErrInvalidQuery 查询参数非法，在任何上游调用之前返回
	ErrInvalidQuery = errors.New("invalid query")
)

// UpstreamError carries the upstream HTTP status when one is known.
// Status 0 means the failure was synthesized locally (back-off window,
// transport error).
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream unavailable (status %d)", e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream unavailable: %v", e.Err)
	}
	return "upstream unavailable"
}

func (e *UpstreamError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUpstream
}

// Is lets errors.Is(err, ErrUpstream) match regardless of wrapped cause.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
