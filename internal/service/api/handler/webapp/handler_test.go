package webapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/constants"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/model/response"
	model "github.com/darkkaiser/bizyair-runner/internal/service/api/model/webapp"
	"github.com/darkkaiser/bizyair-runner/internal/service/interrupt"
	"github.com/darkkaiser/bizyair-runner/internal/service/license"
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp"
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp/media"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Doubles
// =============================================================================

type fakeRunner struct {
	mu       sync.Mutex
	requests []webapp.RunRequest

	// started 설정되어 있으면 Run 진입 시 닫힙니다.
	started chan struct{}
	// release 설정되어 있으면 닫힐 때까지 Run이 블로킹합니다.
	release chan struct{}

	// interrupted Run 종료 직전 Interrupt 검사 결과입니다.
	interrupted bool

	result *webapp.RunResult
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, req webapp.RunRequest) (*webapp.RunResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	f.interrupted = req.Interrupt.IsInterruptRequested()
	f.mu.Unlock()

	return f.result, f.err
}

func (f *fakeRunner) OutputDir() string { return "/tmp/bizyair" }

func (f *fakeRunner) lastRequest(t *testing.T) webapp.RunRequest {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type fakeAPIKeys string

func (f fakeAPIKeys) APIKey() (string, bool) { return string(f), f != "" }

type fakeLicense struct {
	info      license.Info
	activated string
	err       error
}

func (f *fakeLicense) Info() license.Info { return f.info }

func (f *fakeLicense) Activate(key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if key != "VALID-KEY" {
		return false, nil
	}
	f.activated = key
	return true, nil
}

type fakeCatalog []string

func (f fakeCatalog) DefaultApps() []string { return f }

// =============================================================================
// Test Helpers
// =============================================================================

func newTestHandler(t *testing.T, runner *fakeRunner, modify func(*Dependencies)) (*Handler, *interrupt.Registry) {
	t.Helper()

	registry := interrupt.NewRegistry()
	deps := Dependencies{
		Runner:     runner,
		APIKeys:    fakeAPIKeys("sk-test"),
		Interrupts: registry,
	}
	if modify != nil {
		modify(&deps)
	}

	return NewHandler(deps), registry
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func requireHTTPError(t *testing.T, err error, code int) response.ErrorResponse {
	t.Helper()

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code)

	body, ok := he.Message.(response.ErrorResponse)
	require.True(t, ok)
	return body
}

func encodePNG(t *testing.T, h, w int) string {
	t.Helper()

	img := &media.Image{Height: h, Width: w, Channels: 3, Pixels: make([]float32, h*w*3)}
	for i := range img.Pixels {
		img.Pixels[i] = 0.5
	}

	var buf bytes.Buffer
	require.NoError(t, media.EncodePNG(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// =============================================================================
// Constructor
// =============================================================================

func TestNewHandler(t *testing.T) {
	t.Parallel()

	registry := interrupt.NewRegistry()

	assert.PanicsWithValue(t, constants.PanicMsgRunnerRequired, func() {
		NewHandler(Dependencies{APIKeys: fakeAPIKeys(""), Interrupts: registry})
	})
	assert.PanicsWithValue(t, constants.PanicMsgAPIKeySourceRequired, func() {
		NewHandler(Dependencies{Runner: &fakeRunner{}, Interrupts: registry})
	})
	assert.PanicsWithValue(t, constants.PanicMsgInterruptRegistryRequired, func() {
		NewHandler(Dependencies{Runner: &fakeRunner{}, APIKeys: fakeAPIKeys("")})
	})
}

// =============================================================================
// API Key / License / Catalog
// =============================================================================

func TestHandler_GetAPIKeyHandler(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"sk-test", ""} {
		h, _ := newTestHandler(t, &fakeRunner{}, func(d *Dependencies) { d.APIKeys = fakeAPIKeys(key) })
		c, rec := newContext(http.MethodGet, "/bizyair_webapp/get_api_key", "")

		require.NoError(t, h.GetAPIKeyHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"api_key":"`+key+`"}`, rec.Body.String())
	}
}

func TestHandler_LicenseInfoHandler(t *testing.T) {
	t.Parallel()

	t.Run("라이선스 관리자 없음", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(t, &fakeRunner{}, nil)
		c, _ := newContext(http.MethodGet, "/bizyair_webapp/license_info", "")

		body := requireHTTPError(t, h.LicenseInfoHandler(c), http.StatusServiceUnavailable)
		assert.Equal(t, constants.ErrMsgLicenseUnavailable, body.Message)
	})

	t.Run("정상", func(t *testing.T) {
		t.Parallel()

		lic := &fakeLicense{info: license.Info{IsActivated: true, MachineID: "m-1", StatusMsg: "今日剩余次数: 9/10", Allowed: true}}
		h, _ := newTestHandler(t, &fakeRunner{}, func(d *Dependencies) { d.Licenses = lic })
		c, rec := newContext(http.MethodGet, "/bizyair_webapp/license_info", "")

		require.NoError(t, h.LicenseInfoHandler(c))
		assert.JSONEq(t, `{"is_activated":true,"machine_id":"m-1","status_msg":"今日剩余次数: 9/10","allowed":true}`, rec.Body.String())
	})
}

func TestHandler_ActivateHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		lic      *fakeLicense
		code     int
		expected *model.ActivateResponse
		errType  apperrors.ErrorType
	}{
		{
			name:     "유효한 키",
			body:     `{"key":"VALID-KEY"}`,
			lic:      &fakeLicense{},
			code:     http.StatusOK,
			expected: &model.ActivateResponse{Success: true, Message: constants.MsgActivateSuccess},
		},
		{
			name:     "유효하지 않은 키",
			body:     `{"key":"nope"}`,
			lic:      &fakeLicense{},
			code:     http.StatusOK,
			expected: &model.ActivateResponse{Success: false, Message: constants.MsgActivateInvalid},
		},
		{
			name: "키 누락",
			body: `{}`,
			lic:  &fakeLicense{},
			code: http.StatusBadRequest,
		},
		{
			name: "JSON 파싱 실패",
			body: `{"key":`,
			lic:  &fakeLicense{},
			code: http.StatusBadRequest,
		},
		{
			name:    "상태 저장 실패",
			body:    `{"key":"VALID-KEY"}`,
			lic:     &fakeLicense{err: apperrors.New(apperrors.System, "disk full")},
			errType: apperrors.System,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newTestHandler(t, &fakeRunner{}, func(d *Dependencies) { d.Licenses = tt.lic })
			c, rec := newContext(http.MethodPost, "/bizyair_webapp/activate", tt.body)

			err := h.ActivateHandler(c)

			switch {
			case tt.errType != apperrors.Unknown:
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, tt.errType))
			case tt.expected != nil:
				require.NoError(t, err)
				assert.Equal(t, tt.code, rec.Code)

				var got model.ActivateResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, *tt.expected, got)
			default:
				requireHTTPError(t, err, tt.code)
			}
		})
	}
}

func TestHandler_DefaultAppListHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		catalog  AppCatalog
		expected string
	}{
		{"카탈로그 없음", nil, `{"default_apps":[]}`},
		{"목록 읽기 실패", fakeCatalog(nil), `{"default_apps":[]}`},
		{"정상", fakeCatalog{"42", "1001"}, `{"default_apps":["42","1001"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newTestHandler(t, &fakeRunner{}, func(d *Dependencies) { d.Catalog = tt.catalog })
			c, rec := newContext(http.MethodGet, "/bizyair_webapp/default_app_list", "")

			require.NoError(t, h.DefaultAppListHandler(c))
			assert.JSONEq(t, tt.expected, rec.Body.String())
		})
	}
}

// =============================================================================
// Interrupt
// =============================================================================

func TestHandler_InterruptHandler(t *testing.T) {
	t.Parallel()

	h, registry := newTestHandler(t, &fakeRunner{}, nil)

	c, rec := newContext(http.MethodPost, "/bizyair_webapp/interrupt", `{"node_id":"7"}`)
	require.NoError(t, h.InterruptHandler(c))
	assert.JSONEq(t, `{"success":true,"node_id":"7"}`, rec.Body.String())
	assert.True(t, registry.IsRequested("7"))
	assert.False(t, registry.IsRequested("8"))

	c, _ = newContext(http.MethodPost, "/bizyair_webapp/interrupt", `{}`)
	body := requireHTTPError(t, h.InterruptHandler(c), http.StatusBadRequest)
	assert.Equal(t, "노드 ID는 필수입니다", body.Message)
}

// =============================================================================
// Run
// =============================================================================

func TestHandler_RunHandler_Success(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		result: &webapp.RunResult{
			RequestID: "rid-1",
			WebAppID:  42,
			Outputs: []webapp.Result{
				&webapp.ImageResult{Path: "/tmp/bizyair/a.png", Image: &media.Image{Height: 2, Width: 3, Channels: 4}},
				&webapp.AudioResult{Path: "/tmp/bizyair/b.wav", Audio: &media.Audio{SampleRate: 44100, Waveform: [][]float32{{0, 0.5}, {0, -0.5}}}},
				&webapp.VideoResult{Path: "/tmp/bizyair/c.mp4"},
			},
		},
	}
	h, registry := newTestHandler(t, runner, nil)

	// 이전 실행 후 남은 중단 요청은 새 작업에 영향을 주지 않아야 합니다.
	registry.Request("12")

	png := encodePNG(t, 2, 2)
	body := `{
		"node_id": "12",
		"app": "42",
		"input_values_json": "{\"web_app_id\": 42}",
		"images": {"image": ["` + png + `", "data:image/png;base64,` + png + `"]},
		"values": {"prompt": "a cat"}
	}`
	c, rec := newContext(http.MethodPost, "/bizyair_webapp/run", body)

	require.NoError(t, h.RunHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := runner.lastRequest(t)
	assert.Equal(t, "12", req.NodeID)
	assert.Equal(t, "42", req.App)
	assert.Equal(t, `{"web_app_id": 42}`, req.InputValuesJSON)
	assert.Equal(t, map[string]any{"prompt": "a cat"}, req.Values)
	require.Len(t, req.Images["image"], 2)
	assert.Equal(t, [4]int{1, 2, 2, 3}, req.Images["image"][1].Shape())
	assert.False(t, runner.interrupted)
	assert.False(t, registry.IsRequested("12"))

	assert.JSONEq(t, `{
		"request_id": "rid-1",
		"web_app_id": 42,
		"output_dir": "/tmp/bizyair",
		"outputs": [
			{"kind": "image", "path": "/tmp/bizyair/a.png", "width": 3, "height": 2, "channels": 4},
			{"kind": "audio", "path": "/tmp/bizyair/b.wav", "channels": 2, "sample_rate": 44100, "samples": 2},
			{"kind": "video", "path": "/tmp/bizyair/c.mp4"}
		]
	}`, rec.Body.String())
}

func TestHandler_RunHandler_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"노드 ID 누락", `{"app":"42"}`, "노드 ID는 필수입니다"},
		{"잘못된 JSON", `{"node_id":`, constants.ErrMsgBadRequestInvalidBody},
		{"Base64 아님", `{"node_id":"1","images":{"image":["%%%"]}}`, "입력 이미지를 디코딩할 수 없습니다 (image #0)"},
		{"이미지 아님", `{"node_id":"1","images":{"mask":["` + base64.StdEncoding.EncodeToString([]byte("not an image")) + `"]}}`, "입력 이미지를 디코딩할 수 없습니다 (mask #0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{}
			h, _ := newTestHandler(t, runner, nil)
			c, _ := newContext(http.MethodPost, "/bizyair_webapp/run", tt.body)

			body := requireHTTPError(t, h.RunHandler(c), http.StatusBadRequest)
			assert.Equal(t, tt.message, body.Message)
			assert.Empty(t, runner.requests, "잘못된 요청은 실행되지 않아야 합니다")
		})
	}
}

func TestHandler_RunHandler_RunnerError(t *testing.T) {
	t.Parallel()

	runnerErr := apperrors.New(apperrors.Entitlement, "今日使用次数已达上限 (10/10)，请明天再试。")
	h, _ := newTestHandler(t, &fakeRunner{err: runnerErr}, nil)
	c, _ := newContext(http.MethodPost, "/bizyair_webapp/run", `{"node_id":"3","app":"42"}`)

	err := h.RunHandler(c)
	assert.ErrorIs(t, err, runnerErr)
	assert.Zero(t, h.nodeLocks.Len(), "실패 후에도 노드 락이 해제되어야 합니다")
}

func TestHandler_RunHandler_NodeBusyAndInterrupt(t *testing.T) {
	runner := &fakeRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
		err:     apperrors.New(apperrors.Interrupted, "Task interrupted by user."),
	}
	h, registry := newTestHandler(t, runner, nil)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		c, _ := newContext(http.MethodPost, "/bizyair_webapp/run", `{"node_id":"5","app":"42"}`)
		firstErr = h.RunHandler(c)
	}()

	<-runner.started

	// 같은 노드의 두 번째 요청은 거부됩니다.
	c, _ := newContext(http.MethodPost, "/bizyair_webapp/run", `{"node_id":"5","app":"42"}`)
	body := requireHTTPError(t, h.RunHandler(c), http.StatusConflict)
	assert.Equal(t, "이 노드에서 이미 작업이 실행 중입니다 (node_id: 5)", body.Message)

	// 실행 중인 작업에 중단을 요청합니다.
	c, _ = newContext(http.MethodPost, "/bizyair_webapp/interrupt", `{"node_id":"5"}`)
	require.NoError(t, h.InterruptHandler(c))

	close(runner.release)
	wg.Wait()

	assert.True(t, apperrors.Is(firstErr, apperrors.Interrupted))
	assert.True(t, runner.interrupted, "Runner가 중단 요청을 관찰해야 합니다")
	assert.False(t, registry.IsRequested("5"), "작업 종료 후 중단 요청이 지워져야 합니다")
	assert.Zero(t, h.nodeLocks.Len())
}

// =============================================================================
// Progress WebSocket
// =============================================================================

func TestHandler_ProgressHandler(t *testing.T) {
	t.Parallel()

	t.Run("Hub 없음", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(t, &fakeRunner{}, nil)
		c, _ := newContext(http.MethodGet, "/bizyair_webapp/ws", "")
		requireHTTPError(t, h.ProgressHandler(c), http.StatusNotFound)
	})

	t.Run("Hub로 위임", func(t *testing.T) {
		t.Parallel()

		called := false
		hub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusSwitchingProtocols)
		})
		h, _ := newTestHandler(t, &fakeRunner{}, func(d *Dependencies) { d.Progress = hub })
		c, rec := newContext(http.MethodGet, "/bizyair_webapp/ws", "")

		require.NoError(t, h.ProgressHandler(c))
		assert.True(t, called)
		assert.Equal(t, http.StatusSwitchingProtocols, rec.Code)
	})
}
