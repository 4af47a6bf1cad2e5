package webapp

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/darkkaiser/bizyair-runner/internal/service/fetcher"
)

// 원격 서비스 엔드포인트 경로
const (
	pathUploadToken = "/x/v1/upload/token"
	pathWebAppInfo  = "/x/v1/webapp/"
	pathTaskCreate  = "/w/v1/webapp/task/openapi/create"
	pathTaskDetail  = "/w/v1/webapp/task/openapi/detail"
	pathTaskOutputs = "/w/v1/webapp/task/openapi/outputs"
	pathTaskCancel  = "/w/v1/webapp/task/openapi/cancel"
	pathTaskStop    = "/w/v1/webapp/task/openapi/interrupt"
)

// maxErrorBodySnippet 에러 메시지에 포함할 응답 본문의 최대 길이입니다.
const maxErrorBodySnippet = 512

// apiResponse 상태 코드와 관계없이 읽어들인 응답입니다.
type apiResponse struct {
	StatusCode int
	Body       []byte
}

// snippet 에러 메시지에 포함할 만큼 잘라낸 본문입니다.
func (r *apiResponse) snippet() string {
	s := strings.TrimSpace(string(r.Body))
	if len(s) > maxErrorBodySnippet {
		s = s[:maxErrorBodySnippet] + "..."
	}
	return s
}

// apiClient Bearer 인증이 필요한 원격 서비스 API 호출을 담당합니다.
//
// 상태 코드 해석은 엔드포인트마다 다르므로 호출자에게 맡기고, 전송 실패만 에러로 반환합니다.
type apiClient struct {
	baseURL string
	fetcher fetcher.Fetcher
}

func newAPIClient(baseURL string, f fetcher.Fetcher) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: f,
	}
}

func (c *apiClient) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func bearerHeader(apiKey string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+apiKey)
	return h
}

func (c *apiClient) call(ctx context.Context, method, path string, query url.Values, header http.Header, body io.Reader) (*apiResponse, error) {
	resp, err := fetcher.Do(ctx, c.fetcher, method, c.url(path, query), header, body)
	if err != nil {
		return nil, err
	}

	data, err := fetcher.ReadAll(resp)
	if err != nil {
		return nil, err
	}

	return &apiResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

func requestIDQuery(requestID string) url.Values {
	return url.Values{"requestId": []string{requestID}}
}
