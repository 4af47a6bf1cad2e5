package webapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/service/fetcher"
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp/media"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/tidwall/gjson"
)

const materializerComponent = "webapp.materializer"

const (
	// outputSubdir 결과물을 저장하는 출력 디렉토리 하위 폴더명입니다.
	outputSubdir = "bizyair"

	downloadChunkSize = 8 * 1024
)

// Materializer 결과물을 다운로드하고 확장자에 따라 디코딩합니다.
type Materializer struct {
	api        *apiClient
	downloader fetcher.Fetcher

	outputDir      string
	timeout        time.Duration
	requestTimeout time.Duration

	decodeImage func(r io.Reader) (*media.Image, error)
	decodeAudio func(ext string, r io.Reader) (*media.Audio, error)
}

func newMaterializer(api *apiClient, downloader fetcher.Fetcher, outputDir string, timeout, requestTimeout time.Duration) *Materializer {
	return &Materializer{
		api:            api,
		downloader:     downloader,
		outputDir:      outputDir,
		timeout:        timeout,
		requestTimeout: requestTimeout,
		decodeImage:    media.DecodeImage,
		decodeAudio:    media.DecodeAudio,
	}
}

// FetchOutputs 결과물 목록 조회 엔드포인트를 한 번 호출합니다. 실패하면 빈 목록을 반환합니다.
func (m *Materializer) FetchOutputs(ctx context.Context, requestID, apiKey string) []OutputRef {
	ctx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	resp, err := m.api.call(ctx, http.MethodGet, pathTaskOutputs, requestIDQuery(requestID), bearerHeader(apiKey), nil)
	if err != nil || resp.StatusCode != http.StatusOK {
		fields := applog.Fields{"request_id": requestID}
		if err != nil {
			fields["error"] = err
		} else {
			fields["status_code"] = resp.StatusCode
		}
		applog.WithComponentAndFields(materializerComponent, fields).Warn("결과물 목록 조회 실패")

		return nil
	}

	body := gjson.ParseBytes(resp.Body)
	if body.Get("code").Int() != successCode {
		return nil
	}
	return parseOutputs(body.Get("data.outputs"))
}

// Dir 결과물이 저장되는 디렉토리입니다.
func (m *Materializer) Dir() string {
	return filepath.Join(m.outputDir, outputSubdir)
}

// Materialize 각 결과물을 다운로드하고 디코딩합니다.
//
// URL이 없는 결과물은 건너뛰며, 다운로드나 디코딩에 실패한 결과물은 기록만 하고 건너뜁니다.
// onDownload는 각 다운로드 직전에 (순번, 전체 개수)로 호출됩니다.
func (m *Materializer) Materialize(ctx context.Context, requestID string, webAppID int, outputs []OutputRef, onDownload func(i, n int)) ([]Result, error) {
	dir := m.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, newErrOutputDirFailed(err, dir)
	}

	var results []Result
	for idx, out := range outputs {
		if out.URL == "" {
			continue
		}
		if onDownload != nil {
			onDownload(idx+1, len(outputs))
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%d_%d%s", requestID, webAppID, idx, out.Extension()))

		res, err := m.materializeOne(ctx, out, idx, path)
		if err != nil {
			applog.WithComponentAndFields(materializerComponent, applog.Fields{
				"request_id": requestID,
				"index":      idx,
				"url":        fetcher.RedactURL(out.URL),
				"error":      err,
			}).Warn("결과물 처리 실패: 건너뜁니다")

			continue
		}

		results = append(results, res)
	}

	return results, nil
}

func (m *Materializer) materializeOne(ctx context.Context, out OutputRef, idx int, path string) (Result, error) {
	if err := m.download(ctx, out.URL, path); err != nil {
		return nil, newErrDownloadFailed(err, idx)
	}

	switch out.Kind() {
	case media.KindImage:
		img, err := decodeFile(path, m.decodeImage)
		if err != nil {
			return nil, err
		}
		return &ImageResult{Path: path, Image: img}, nil

	case media.KindAudio:
		ext := out.Extension()
		a, err := decodeFile(path, func(r io.Reader) (*media.Audio, error) {
			return m.decodeAudio(ext, r)
		})
		if err != nil {
			return nil, err
		}
		return &AudioResult{Path: path, Audio: a}, nil

	default:
		return &VideoResult{Path: path}, nil
	}
}

// download 응답 본문을 8 KiB 단위로 파일에 기록합니다. 실패하면 기록 중이던 파일을 지웁니다.
func (m *Materializer) download(ctx context.Context, rawURL, path string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := fetcher.Get(ctx, m.downloader, rawURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err = io.CopyBuffer(onlyWriter{f}, resp.Body, make([]byte, downloadChunkSize)); err != nil {
		return err
	}

	return nil
}

// onlyWriter *os.File의 ReadFrom을 숨겨 io.CopyBuffer가 지정한 버퍼를 사용하게 합니다.
type onlyWriter struct {
	w io.Writer
}

func (o onlyWriter) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

// decodeFile 디코더에서 발생한 패닉은 Decode 에러로 반환합니다.
func decodeFile[T any](path string, decode func(io.Reader) (T, error)) (_ T, err error) {
	var zero T

	defer func() {
		if p := recover(); p != nil {
			err = newErrDecodePanic(filepath.Base(path), p)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	v, err := decode(f)
	if err != nil {
		return zero, err
	}
	return v, nil
}
