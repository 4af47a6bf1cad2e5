package webapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/config"
	"github.com/darkkaiser/bizyair-runner/internal/service/fetcher"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// recordedRequest fakeService가 받은 요청입니다.
type recordedRequest struct {
	Method string
	Path   string
	Host   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// fakeService 원격 추론 서비스, 오브젝트 스토리지, 결과물 CDN을 하나의 테스트 서버로 흉내냅니다.
//
// 모든 연결은 호스트 이름과 관계없이 테스트 서버로 전달되므로 가상 호스트 방식의 스토리지 URL도 그대로 사용할 수 있습니다.
type fakeService struct {
	srv *httptest.Server

	mu                sync.Mutex
	routes            map[string]http.HandlerFunc
	requests          []recordedRequest
	transportFailures map[string]int
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()

	f := &fakeService{
		routes:            make(map[string]http.HandlerFunc),
		transportFailures: make(map[string]int),
	}
	f.srv = httptest.NewServer(f)
	t.Cleanup(f.srv.Close)

	return f
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (f *fakeService) URL() string {
	return f.srv.URL
}

func (f *fakeService) handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[routeKey(method, path)] = h
}

// failTransport 다음 times번의 요청을 서버에 보내지 않고 전송 에러로 실패시킵니다.
func (f *fakeService) failTransport(method, path string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transportFailures[routeKey(method, path)] = times
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Host:   r.Host,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	h, ok := f.routes[routeKey(r.Method, r.URL.Path)]
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, `{"code":40400,"message":"not found"}`)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	h(w, r)
}

func (f *fakeService) requestsTo(method, path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeService) count(method, path string) int {
	return len(f.requestsTo(method, path))
}

// transport 모든 연결을 테스트 서버로 보내는 RoundTripper입니다.
func (f *fakeService) transport() http.RoundTripper {
	addr := f.srv.Listener.Addr().String()
	base := &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}

	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		key := routeKey(req.Method, req.URL.Path)

		f.mu.Lock()
		remaining := f.transportFailures[key]
		if remaining > 0 {
			f.transportFailures[key] = remaining - 1
		}
		f.mu.Unlock()

		if remaining > 0 {
			return nil, errors.New("simulated connection reset")
		}
		return base.RoundTrip(req)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	}
}

// sequence n번째 호출에 n번째 핸들러를 사용하고, 마지막 핸들러는 이후 호출에서 반복합니다.
func sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	n := 0

	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[min(n, len(handlers)-1)]
		n++
		mu.Unlock()

		h(w, r)
	}
}

func bytesHandler(data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

type staticKeySource string

func (s staticKeySource) APIKey() (string, bool) {
	return string(s), s != ""
}

func newTestConfig(t *testing.T, baseURL string) *config.AppConfig {
	t.Helper()

	return &config.AppConfig{
		API: config.APIConfig{
			BaseURL:        baseURL,
			ClientIDPrefix: "comfyui_",
			RequestTimeout: 5 * time.Second,
		},
		Upload: config.UploadConfig{Timeout: 5 * time.Second},
		Polling: config.PollingConfig{
			InitialDelay:   0,
			Interval:       5 * time.Millisecond,
			RequestTimeout: 2 * time.Second,
			SimulatedStart: 0.25,
			SimulatedStep:  0.01,
			SimulatedCap:   0.95,
			QueuingFloor:   0.1,
			PreparingFloor: 0.2,
		},
		Cancel: config.CancelConfig{Timeout: 2 * time.Second},
		Download: config.DownloadConfig{
			OutputDir:  t.TempDir(),
			Timeout:    5 * time.Second,
			MaxBytes:   -1,
			RetryDelay: 10 * time.Millisecond,
		},
		AppCache: config.AppCacheConfig{Size: 16},
	}
}

func newTestRunner(t *testing.T, svc *fakeService, deps Dependencies) *Runner {
	t.Helper()

	if deps.APIKeys == nil {
		deps.APIKeys = staticKeySource("test-key")
	}

	r := NewRunner(newTestConfig(t, svc.URL()), deps, WithTransport(svc.transport()))
	r.uploader.scheme = "http"

	return r
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testWAV(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           []int{0, 1000, -1000, 16384},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// outputsJSON URL 목록으로 outputs 배열 JSON을 만듭니다.
func outputsJSON(urls ...string) string {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, u := range urls {
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, `{"object_url":%q,"error_type":"NOT_ERROR"}`, u)
	}
	buf.WriteString("]")
	return buf.String()
}

// newTestAPIClient fakeService로 요청을 보내는 apiClient를 생성합니다.
func newTestAPIClient(svc *fakeService) *apiClient {
	return newAPIClient(svc.URL(), fetcher.NewHTTPFetcher(fetcher.WithTransport(svc.transport())))
}
