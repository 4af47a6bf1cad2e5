package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
)

// maxBodySnippetBytes HTTPStatusError에 담을 응답 본문의 최대 크기
const maxBodySnippetBytes = 1024

// HTTPStatusError 허용되지 않은 HTTP 상태 코드를 받았을 때 반환되는 에러입니다.
//
//	var statusErr *fetcher.HTTPStatusError
//	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound { ... }
type HTTPStatusError struct {
	StatusCode  int
	Status      string
	URL         string      // 민감 정보가 마스킹된 URL
	Header      http.Header // 민감 헤더가 마스킹된 응답 헤더
	BodySnippet string

	Cause error
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s)", e.StatusCode, e.Status)
	if e.URL != "" {
		msg += " URL: " + e.URL
	}
	if e.BodySnippet != "" {
		msg += ", Body: " + e.BodySnippet
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Cause
}

// newHTTPStatusError 응답으로부터 HTTPStatusError를 생성합니다. 응답 Body는 일부만 읽으며 닫지 않습니다.
func newHTTPStatusError(resp *http.Response) *HTTPStatusError {
	var snippet string
	if resp.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippetBytes))
		snippet = strings.TrimSpace(string(b))
	}

	errType := apperrors.Internal
	switch {
	case resp.StatusCode == http.StatusNotFound:
		errType = apperrors.NotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		errType = apperrors.Auth
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout:
		errType = apperrors.Unavailable
	}

	var url string
	if resp.Request != nil {
		url = redactURL(resp.Request.URL)
	}

	return &HTTPStatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		URL:         url,
		Header:      redactHeaders(resp.Header),
		BodySnippet: snippet,
		Cause:       apperrors.New(errType, fmt.Sprintf("허용되지 않은 HTTP 상태 코드입니다: %d", resp.StatusCode)),
	}
}

// StatusCodeFetcher 허용된 상태 코드의 응답만 통과시키는 미들웨어입니다.
type StatusCodeFetcher struct {
	delegate Fetcher

	// allowedStatusCodes 비어있으면 200 OK만 허용합니다.
	allowedStatusCodes []int
}

var _ Fetcher = (*StatusCodeFetcher)(nil)

// NewStatusCodeFetcher allowedStatusCodes가 없으면 200 OK만 허용합니다.
func NewStatusCodeFetcher(delegate Fetcher, allowedStatusCodes ...int) *StatusCodeFetcher {
	return &StatusCodeFetcher{
		delegate:           delegate,
		allowedStatusCodes: allowedStatusCodes,
	}
}

// Do 허용되지 않은 상태 코드면 Body를 정리하고 *HTTPStatusError를 반환합니다.
func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}

	if f.isAllowed(resp.StatusCode) {
		return resp, nil
	}

	statusErr := newHTTPStatusError(resp)
	drainAndCloseBody(resp.Body)

	return nil, statusErr
}

func (f *StatusCodeFetcher) isAllowed(code int) bool {
	if len(f.allowedStatusCodes) == 0 {
		return code == http.StatusOK
	}
	return slices.Contains(f.allowedStatusCodes, code)
}
