package fetcher

import (
	"net/http"
	"time"
)

// DefaultUserAgent 요청에 User-Agent가 없을 때 사용하는 값입니다.
const DefaultUserAgent = "bizyair-runner"

// HTTPFetcher 실제 네트워크 요청을 수행하는 최하위 Fetcher입니다.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*HTTPFetcher)(nil)

// Option HTTPFetcher 생성 옵션입니다.
type Option func(*HTTPFetcher)

// WithTimeout 요청 전체(본문 읽기 포함)에 대한 타임아웃을 설정합니다. 0이면 요청 Context에만 의존합니다.
func WithTimeout(timeout time.Duration) Option {
	return func(h *HTTPFetcher) {
		h.client.Timeout = timeout
	}
}

// WithTransport 사용할 RoundTripper를 지정합니다.
func WithTransport(rt http.RoundTripper) Option {
	return func(h *HTTPFetcher) {
		h.client.Transport = rt
	}
}

// WithUserAgent 기본 User-Agent를 변경합니다.
func WithUserAgent(ua string) Option {
	return func(h *HTTPFetcher) {
		h.userAgent = ua
	}
}

// NewHTTPFetcher 새로운 HTTPFetcher 인스턴스를 생성합니다.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	h := &HTTPFetcher{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Do HTTP 요청을 실행합니다.
func (h *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	return h.client.Do(req)
}
