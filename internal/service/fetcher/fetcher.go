// Package fetcher 데코레이터 방식으로 조합 가능한 HTTP 요청 실행기를 제공합니다.
//
// 기본 체인 구성 (안쪽 → 바깥쪽):
//
//	HTTPFetcher → MaxBytesFetcher → StatusCodeFetcher → RetryFetcher → LoggingFetcher
package fetcher

import (
	"context"
	"io"
	"net/http"
)

// component 로깅용 컴포넌트 이름
const component = "fetcher"

// Fetcher HTTP 요청을 수행하는 핵심 인터페이스입니다.
//
// 반환된 응답의 Body는 호출자가 닫아야 합니다.
// 에러가 반환된 경우에는 각 구현체가 응답 Body를 정리합니다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Get 지정된 URL로 HTTP GET 요청을 전송합니다.
func Get(ctx context.Context, f Fetcher, url string, header http.Header) (*http.Response, error) {
	return Do(ctx, f, http.MethodGet, url, header, nil)
}

// Do 요청 객체를 생성하여 전송합니다.
func Do(ctx context.Context, f Fetcher, method, url string, header http.Header, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, newErrInvalidRequest(err, url)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := f.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}

	return resp, nil
}

// ReadAll 응답 본문을 모두 읽고 닫습니다.
func ReadAll(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
