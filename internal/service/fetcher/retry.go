package fetcher

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

const (
	maxAllowedRetries = 10

	defaultMinRetryDelay = 1 * time.Second
	defaultMaxRetryDelay = 30 * time.Second
)

// RetryFetcher 일시적인 실패에 대해 지수 백오프(Full Jitter)로 재시도하는 미들웨어입니다.
//
// 재시도 대상: 네트워크 오류, 408, 429, 5xx(501/505 제외)
// 비멱등 메서드(POST, PATCH)와 GetBody가 없는 본문 요청은 재시도하지 않습니다.
// 서버가 Retry-After(초)를 보내면 그 값을 따르며, maxRetryDelay를 초과하면 중단합니다.
type RetryFetcher struct {
	delegate Fetcher

	maxRetries    int
	minRetryDelay time.Duration
	maxRetryDelay time.Duration
}

var _ Fetcher = (*RetryFetcher)(nil)

// NewRetryFetcher 새로운 RetryFetcher 인스턴스를 생성합니다.
// maxRetries는 0~10으로, 대기 시간은 min ≤ max가 되도록 보정됩니다.
func NewRetryFetcher(delegate Fetcher, maxRetries int, minRetryDelay, maxRetryDelay time.Duration) *RetryFetcher {
	maxRetries = max(0, min(maxRetries, maxAllowedRetries))

	if minRetryDelay <= 0 {
		minRetryDelay = defaultMinRetryDelay
	}
	if maxRetryDelay <= 0 {
		maxRetryDelay = defaultMaxRetryDelay
	}
	if maxRetryDelay < minRetryDelay {
		maxRetryDelay = minRetryDelay
	}

	return &RetryFetcher{
		delegate:      delegate,
		maxRetries:    maxRetries,
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,
	}
}

func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	retries := f.maxRetries
	if !isIdempotentMethod(req.Method) {
		retries = 0
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		retries = 0
	}

	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay, err := f.nextDelay(attempt, lastResp, lastErr)
			if lastResp != nil {
				drainAndCloseBody(lastResp.Body)
				lastResp = nil
			}
			if err != nil {
				return nil, err
			}

			fields := applog.Fields{
				"url":         redactURL(req.URL),
				"attempt":     attempt,
				"max_retries": retries,
				"delay":       delay.String(),
			}
			if lastErr != nil {
				fields["error"] = lastErr.Error()
			}
			applog.WithComponentAndFields(component, fields).
				WithContext(req.Context()).
				Warn("일시적 오류로 요청을 재시도합니다")

			timer := time.NewTimer(delay)
			select {
			case <-req.Context().Done():
				timer.Stop()
				return nil, req.Context().Err()
			case <-timer.C:
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, newErrGetBodyFailed(err)
				}
				req = req.Clone(req.Context())
				req.Body = body
			}
		}

		resp, err := f.delegate.Do(req)
		lastResp, lastErr = resp, err

		if !shouldRetry(req.Context(), resp, err) {
			return resp, err
		}
	}

	return lastResp, lastErr
}

// nextDelay attempt번째 재시도 전 대기 시간을 계산합니다.
func (f *RetryFetcher) nextDelay(attempt int, lastResp *http.Response, lastErr error) (time.Duration, error) {
	var header http.Header
	if lastResp != nil {
		header = lastResp.Header
	} else {
		var statusErr *HTTPStatusError
		if errors.As(lastErr, &statusErr) {
			header = statusErr.Header
		}
	}

	if v := header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			d := time.Duration(seconds) * time.Second
			if d > f.maxRetryDelay {
				return 0, newErrRetryAfterExceeded(d.String(), f.maxRetryDelay.String())
			}
			return d, nil
		}
	}

	delay := f.minRetryDelay << (attempt - 1)
	if delay <= 0 || delay > f.maxRetryDelay {
		delay = f.maxRetryDelay
	}
	delay = time.Duration(rand.Int64N(int64(delay) + 1))
	if delay < time.Millisecond {
		delay = f.minRetryDelay
	}

	return delay, nil
}

func shouldRetry(ctx context.Context, resp *http.Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	if err != nil {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			return isRetriableStatus(statusErr.StatusCode)
		}
		return !errors.Is(err, context.Canceled)
	}

	return resp != nil && isRetriableStatus(resp.StatusCode)
}

func isRetriableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	case http.StatusNotImplemented, http.StatusHTTPVersionNotSupported:
		return false
	}
	return code >= 500
}

func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
