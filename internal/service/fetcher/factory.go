package fetcher

import (
	"net/http"
	"time"
)

// Config 기본 Fetcher 체인 구성 설정입니다.
type Config struct {
	// Timeout 요청 전체 타임아웃 (0: 요청 Context에만 의존)
	Timeout time.Duration

	// Transport nil이면 http.DefaultTransport를 사용합니다.
	Transport http.RoundTripper

	// MaxBytes 응답 본문 최대 크기 (NoLimit: 제한 없음, 0: 기본값 10MB)
	MaxBytes int64

	// AllowedStatusCodes nil이면 상태 코드 검증을 하지 않습니다.
	AllowedStatusCodes []int

	MaxRetries    int
	MinRetryDelay time.Duration
	MaxRetryDelay time.Duration

	DisableLogging bool
}

// New 설정에 따라 데코레이터 체인을 조립합니다.
func New(cfg Config) Fetcher {
	opts := []Option{WithTimeout(cfg.Timeout)}
	if cfg.Transport != nil {
		opts = append(opts, WithTransport(cfg.Transport))
	}

	var f Fetcher = NewHTTPFetcher(opts...)

	f = NewMaxBytesFetcher(f, cfg.MaxBytes)

	if cfg.AllowedStatusCodes != nil {
		f = NewStatusCodeFetcher(f, cfg.AllowedStatusCodes...)
	}

	if cfg.MaxRetries > 0 {
		f = NewRetryFetcher(f, cfg.MaxRetries, cfg.MinRetryDelay, cfg.MaxRetryDelay)
	}

	if !cfg.DisableLogging {
		f = NewLoggingFetcher(f)
	}

	return f
}
