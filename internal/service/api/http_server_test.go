package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/darkkaiser/bizyair-runner/internal/service/api/constants"
	appmiddleware "github.com/darkkaiser/bizyair-runner/internal/service/api/middleware"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/model/response"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPServer_Configuration(t *testing.T) {
	t.Parallel()

	for _, debug := range []bool{true, false} {
		e := NewHTTPServer(HTTPServerConfig{Debug: debug, AllowOrigins: []string{"*"}})

		require.NotNil(t, e)
		assert.Equal(t, debug, e.Debug)
		assert.True(t, e.HideBanner)
		assert.True(t, e.HidePort)
		assert.Equal(t, constants.DefaultReadHeaderTimeout, e.Server.ReadHeaderTimeout)
		assert.Equal(t, constants.DefaultIdleTimeout, e.Server.IdleTimeout)
		assert.Zero(t, e.Server.WriteTimeout, "작업 실행 응답이 잘리지 않도록 쓰기 타임아웃이 없어야 합니다")
		assert.IsType(t, appmiddleware.Logger{}, e.Logger)
		assert.NotNil(t, e.HTTPErrorHandler)
	}
}

func TestNewHTTPServer_CORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		allowOrigins  []string
		origin        string
		expectAllowed string
	}{
		{"와일드카드", []string{"*"}, "http://127.0.0.1:8188", "*"},
		{"허용된 Origin", []string{"http://127.0.0.1:8188"}, "http://127.0.0.1:8188", "http://127.0.0.1:8188"},
		{"허용되지 않은 Origin", []string{"http://127.0.0.1:8188"}, "http://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEcho(t, HTTPServerConfig{AllowOrigins: tt.allowOrigins})
			rec := serve(e, http.MethodOptions, "/bizyair_webapp/run", "", map[string]string{
				echo.HeaderOrigin:                     tt.origin,
				echo.HeaderAccessControlRequestMethod: http.MethodPost,
			})

			assert.Equal(t, tt.expectAllowed, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		})
	}
}

func TestNewHTTPServer_StandardHeaders(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, HTTPServerConfig{AllowOrigins: []string{"*"}})
	rec := serve(e, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Empty(t, rec.Header().Get(echo.HeaderServer))
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
}

func TestNewHTTPServer_PanicRecovery(t *testing.T) {
	t.Parallel()

	e := NewHTTPServer(HTTPServerConfig{AllowOrigins: []string{"*"}})
	e.GET("/panic", func(echo.Context) error {
		panic("boom")
	})

	rec := serve(e, http.MethodGet, "/panic", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, constants.ErrMsgInternalServer, resp.Message, "내부 오류 메시지는 노출하지 않아야 합니다")
	assert.Equal(t, "Internal", resp.ErrorType)
}

func TestNewHTTPServer_BodyLimit(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, HTTPServerConfig{AllowOrigins: []string{"*"}, BodyLimit: "1K"})
	body := `{"node_id":"1","app":"` + strings.Repeat("a", 2048) + `"}`

	rec := serve(e, http.MethodPost, "/bizyair_webapp/run", body, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, constants.ErrMsgRequestEntityTooLarge, resp.Message)
}

func TestNewHTTPServer_RateLimit(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t, HTTPServerConfig{AllowOrigins: []string{"*"}, RequestsPerSecond: 0.001, Burst: 1})
	header := map[string]string{echo.HeaderXRealIP: "10.1.2.3"}

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/version", "", header).Code)

	rec := serve(e, http.MethodGet, "/version", "", header)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
