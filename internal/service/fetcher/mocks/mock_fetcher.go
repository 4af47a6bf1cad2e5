// Package mocks fetcher 패키지의 테스트용 Mock 구현체를 제공합니다.
package mocks

import (
	"io"
	"net/http"
	"strings"

	"github.com/darkkaiser/bizyair-runner/internal/service/fetcher"
	"github.com/stretchr/testify/mock"
)

var _ fetcher.Fetcher = (*MockFetcher)(nil)

// MockFetcher testify/mock 기반 Fetcher 구현체입니다.
//
//	m := mocks.NewMockFetcher()
//	m.On("Do", mock.Anything).Return(mocks.NewResponse(200, `{"code":20000}`), nil)
type MockFetcher struct {
	mock.Mock
}

// NewMockFetcher 새로운 MockFetcher 인스턴스를 생성합니다.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

func (m *MockFetcher) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)

	var resp *http.Response
	if r := args.Get(0); r != nil {
		resp = r.(*http.Response)
		if resp.Request == nil {
			resp.Request = req
		}
	}

	return resp, args.Error(1)
}

// NewResponse 지정한 상태 코드와 본문을 가진 응답 객체를 생성합니다.
func NewResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode:    statusCode,
		Status:        http.StatusText(statusCode),
		Header:        make(http.Header),
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}
