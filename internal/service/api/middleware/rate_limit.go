package middleware

import (
	"fmt"

	"github.com/darkkaiser/bizyair-runner/internal/service/api/constants"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	// maxIPRateLimiters 메모리에 유지할 최대 IP(Rate Limiter) 수입니다. 초과하면 가장 오래 사용하지 않은 IP부터 제거합니다.
	maxIPRateLimiters = 10000

	// retryAfter 클라이언트에게 재시도 시점을 알리는 헤더입니다 (RFC 7231, Section 7.1.3).
	retryAfter = "Retry-After"

	// retryAfterSeconds Rate Limit 초과 시 제안하는 대기 시간(초)입니다.
	retryAfterSeconds = "1"
)

// ipRateLimiter IP 주소별 Token Bucket Limiter를 LRU 캐시로 관리합니다.
type ipRateLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func newIPRateLimiter(requestsPerSecond float64, burst int) *ipRateLimiter {
	cache, err := lru.New[string, *rate.Limiter](maxIPRateLimiters)
	if err != nil {
		panic(err)
	}

	return &ipRateLimiter{
		limiters: cache,
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// getLimiter IP의 Limiter를 반환합니다. 없으면 새로 만들어 등록합니다.
func (i *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	if limiter, ok := i.limiters.Get(ip); ok {
		return limiter
	}

	limiter := rate.NewLimiter(i.rate, i.burst)
	if prev, ok, _ := i.limiters.PeekOrAdd(ip, limiter); ok {
		return prev
	}

	return limiter
}

// RateLimit IP 기반 Rate Limiting 미들웨어를 반환합니다.
//
// 제한 초과 시 HTTP 429 (Too Many Requests)와 Retry-After 헤더를 반환합니다.
//
// Panics:
//   - requestsPerSecond 또는 burst가 0 이하인 경우
func RateLimit(requestsPerSecond float64, burst int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		panic(fmt.Sprintf(constants.PanicMsgRateLimitRequestsPerSecondInvalid, requestsPerSecond))
	}
	if burst <= 0 {
		panic(fmt.Sprintf(constants.PanicMsgRateLimitBurstInvalid, burst))
	}

	limiter := newIPRateLimiter(requestsPerSecond, burst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if !limiter.getLimiter(ip).Allow() {
				applog.WithComponentAndFields(constants.ComponentMiddlewareRateLimit, applog.Fields{
					"remote_ip": ip,
					"path":      c.Request().URL.Path,
					"method":    c.Request().Method,
				}).Warn(constants.LogMsgRateLimitExceeded)

				c.Response().Header().Set(retryAfter, retryAfterSeconds)

				return ErrRateLimitExceeded
			}

			return next(c)
		}
	}
}
