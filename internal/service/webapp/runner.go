// Package webapp 클라우드 추론 서비스(BizyAir WebApp)의 작업 생명주기를 조율합니다.
//
// 입력 이미지 업로드, 작업 생성, 추정 진행률을 포함한 상태 폴링, 중단 신호 전송,
// 결과물 다운로드와 디코딩까지의 흐름을 Runner가 순서대로 실행합니다.
//
//	Uploader → Submitter → (즉시 완료 | Poller) → Canceller(중단 시) → Materializer
package webapp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/config"
	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	"github.com/darkkaiser/bizyair-runner/internal/service/fetcher"
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp/media"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/google/uuid"
)

const component = "webapp.runner"

// Dependencies Runner가 사용하는 외부 협력자입니다.
type Dependencies struct {
	APIKeys contract.APIKeySource

	// License nil이면 Pro 앱은 항상 미활성화 상태로 취급합니다.
	License contract.LicenseManager

	// Progress nil이면 진행률 이벤트를 버립니다.
	Progress contract.ProgressReporter
}

type options struct {
	transport http.RoundTripper
	newID     func() string
}

// Option Runner 생성 옵션입니다.
type Option func(*options)

// WithTransport 원격 서비스, 스토리지, 결과물 다운로드에 사용할 RoundTripper를 지정합니다.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// RunRequest 노드 한 번의 실행 요청입니다.
type RunRequest struct {
	// NodeID 진행률 이벤트를 받을 호스트 노드 ID입니다. 비어있으면 이벤트를 보내지 않습니다.
	NodeID string

	App             string
	InputValuesJSON string

	// Images 라벨별 입력 이미지 배치입니다. 포트 매핑에 있는 라벨만 업로드합니다.
	Images map[string][]*media.Image

	// Values 라벨별 일반 입력값입니다. 포트 매핑에 있는 라벨만 변수명으로 옮겨 전달합니다.
	Values map[string]any

	// Interrupt nil이면 ctx 취소만 중단으로 간주합니다.
	Interrupt contract.InterruptChecker
}

// RunResult 완료된 작업의 결과입니다.
type RunResult struct {
	RequestID string
	WebAppID  int
	Outputs   []Result
}

// Runner 작업 하나의 생명주기를 동기적으로 실행합니다.
//
// 실행 사이에 공유하는 가변 상태가 없으므로 여러 고루틴에서 동시에 Run을 호출해도 됩니다.
type Runner struct {
	apiKeys  contract.APIKeySource
	license  contract.LicenseManager
	progress contract.ProgressReporter

	clientIDPrefix string
	newID          func() string

	apps         *AppResolver
	uploader     *Uploader
	submitter    *Submitter
	canceller    *Canceller
	poller       *Poller
	materializer *Materializer
}

// NewRunner 설정과 협력자로 Runner를 생성합니다.
func NewRunner(cfg *config.AppConfig, deps Dependencies, opts ...Option) *Runner {
	if deps.APIKeys == nil {
		panic("webapp: APIKeySource는 필수입니다")
	}

	o := options{newID: newHexID}
	for _, opt := range opts {
		opt(&o)
	}

	progress := deps.Progress
	if progress == nil {
		progress = contract.DiscardProgress
	}

	api := newAPIClient(cfg.API.BaseURL, fetcher.New(fetcher.Config{Transport: o.transport}))
	storage := fetcher.New(fetcher.Config{Transport: o.transport})
	downloader := fetcher.New(fetcher.Config{
		Transport:          o.transport,
		MaxBytes:           cfg.Download.MaxBytes,
		AllowedStatusCodes: []int{http.StatusOK},
		MaxRetries:         cfg.Download.MaxRetries,
		MinRetryDelay:      cfg.Download.RetryDelay,
	})

	canceller := newCanceller(api, cfg.Cancel.Timeout)

	return &Runner{
		apiKeys:  deps.APIKeys,
		license:  deps.License,
		progress: progress,

		clientIDPrefix: cfg.API.ClientIDPrefix,
		newID:          o.newID,

		apps:      newAppResolver(api, cfg.API.RequestTimeout, cfg.AppCache.Size, cfg.AppCache.TTL),
		uploader:  newUploader(api, storage, cfg.Upload.Timeout),
		submitter: newSubmitter(api, cfg.API.RequestTimeout),
		canceller: canceller,
		poller: newPoller(api, canceller, PollSettings{
			InitialDelay:   cfg.Polling.InitialDelay,
			Interval:       cfg.Polling.Interval,
			RequestTimeout: cfg.Polling.RequestTimeout,
			MaxWait:        cfg.Polling.MaxWait,
			Progress: ProgressSettings{
				SimulatedStart: cfg.Polling.SimulatedStart,
				SimulatedStep:  cfg.Polling.SimulatedStep,
				SimulatedCap:   cfg.Polling.SimulatedCap,
				QueuingFloor:   cfg.Polling.QueuingFloor,
				PreparingFloor: cfg.Polling.PreparingFloor,
			},
		}),
		materializer: newMaterializer(api, downloader, cfg.Download.OutputDir, cfg.Download.Timeout, cfg.API.RequestTimeout),
	}
}

// newHexID UUID v4의 16진수 표기 앞 8자리를 반환합니다.
func newHexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// OutputDir 결과물이 저장되는 디렉토리입니다.
func (r *Runner) OutputDir() string {
	return r.materializer.Dir()
}

// Run 작업을 실행하고 디코딩된 결과물을 반환합니다.
//
// ctx가 취소되면 폴링 중인 작업에 중단 신호를 보낸 뒤 Interrupted 에러를 반환합니다.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	apiKey, ok := r.apiKeys.APIKey()
	if !ok || apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if req.App == "" || req.App == "None" {
		return nil, ErrNoAppSelected
	}

	values, portMap := ParseInputValues(req.InputValuesJSON)
	webAppID, err := parseWebAppID(values)
	if err != nil {
		return nil, err
	}

	if err := r.checkEntitlement(ctx, webAppID, apiKey); err != nil {
		return nil, err
	}

	report := r.reporter(req.NodeID)
	report(0.0, "Starting...", "")

	if err := r.resolveInputs(ctx, req, values, portMap, apiKey, report); err != nil {
		return nil, err
	}

	report(0.2, "Creating Cloud Task...", "")

	submitted, err := r.submitter.Submit(ctx, TaskRequest{
		WebAppID:    webAppID,
		BackendID:   0,
		ClientID:    r.clientIDPrefix + r.newID(),
		InputValues: values,
	}, apiKey)
	if err != nil {
		return nil, err
	}
	requestID := submitted.Handle.RequestID

	outputs := submitted.Outputs
	if submitted.Status != StatusSuccess {
		snap, err := r.poller.Poll(ctx, submitted.Handle, apiKey, req.Interrupt, report)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"node_id":    req.NodeID,
				"request_id": requestID,
				"error":      err,
			}).Warn("클라우드 작업이 완료되지 못했습니다")

			return nil, err
		}
		outputs = snap.Outputs
	}

	if len(outputs) == 0 {
		report(0.99, "Fetching Outputs...", "")
		outputs = r.materializer.FetchOutputs(ctx, requestID, apiKey)
	}

	report(0.99, "Downloading Results...", "")
	results, err := r.materializer.Materialize(ctx, requestID, webAppID, outputs, func(i, n int) {
		report(0.99, fmt.Sprintf("Downloading (%d/%d)...", i, n), "")
	})
	if err != nil {
		return nil, err
	}

	report(1.0, "Success", "Task Finished")

	applog.WithComponentAndFields(component, applog.Fields{
		"node_id":    req.NodeID,
		"request_id": requestID,
		"web_app_id": webAppID,
		"outputs":    len(outputs),
		"results":    len(results),
		"elapsed":    elapsedSince(submitted.Handle.CreatedAt),
	}).Info("작업 실행 완료")

	return &RunResult{
		RequestID: requestID,
		WebAppID:  webAppID,
		Outputs:   results,
	}, nil
}

// checkEntitlement Pro 앱이면 활성화 여부와 일일 한도를 확인한 뒤 사용 횟수를 1 증가시킵니다.
func (r *Runner) checkEntitlement(ctx context.Context, webAppID int, apiKey string) error {
	if !r.apps.IsRestricted(ctx, webAppID, apiKey) {
		return nil
	}

	if r.license == nil || !r.license.IsActivated() {
		return ErrProNotActivated
	}

	allowed, msg := r.license.CheckDailyLimit()
	if !allowed {
		return newErrDailyLimitReached(msg)
	}

	if err := r.license.IncrementUsage(); err != nil {
		return newErrUsageRecordFailed(err)
	}

	return nil
}

// resolveInputs 포트 매핑에 있는 입력 이미지를 업로드하고 일반 입력값과 함께 웹앱 변수에 채웁니다.
func (r *Runner) resolveInputs(ctx context.Context, req RunRequest, values map[string]any, portMap map[string]string, apiKey string, report progressFunc) error {
	for _, label := range sortedKeys(req.Images) {
		varName, ok := portMap[label]
		if !ok {
			continue
		}

		batch := req.Images[label]
		urls := make([]string, 0, len(batch))
		for i, img := range batch {
			report(0.1, fmt.Sprintf("Uploading %s (%d/%d)", label, i+1, len(batch)), "")

			var buf bytes.Buffer
			if err := media.EncodePNG(&buf, img); err != nil {
				return newErrImageEncodeFailed(err, label, i)
			}

			url, err := r.uploader.Upload(ctx, fmt.Sprintf("comfy_upload_%s_%d.png", r.newID(), i), buf.Bytes(), apiKey)
			if err != nil {
				return err
			}
			urls = append(urls, url)
		}

		switch len(urls) {
		case 0:
			values[varName] = nil
		case 1:
			values[varName] = urls[0]
		default:
			values[varName] = urls
		}
	}

	for _, label := range sortedKeys(req.Values) {
		if varName, ok := portMap[label]; ok {
			values[varName] = req.Values[label]
		}
	}

	return nil
}

// reporter 한 번의 실행 동안 사용할 진행률 보고 함수를 만듭니다.
//
// 보고하는 진행률은 이전 값보다 작아지지 않으며, 노드 ID가 없으면 이벤트를 보내지 않습니다.
func (r *Runner) reporter(nodeID string) progressFunc {
	var last float64
	return func(progress float64, status, msg string) {
		if nodeID == "" {
			return
		}
		progress = max(progress, last)
		last = progress
		if msg == "" {
			msg = status
		}
		r.progress.Report(contract.ProgressEvent{
			NodeID:   nodeID,
			Progress: progress,
			Status:   status,
			Message:  msg,
		})
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// elapsedSince 로그용 경과 시간 문자열입니다.
func elapsedSince(t time.Time) string {
	return time.Since(t).Truncate(time.Millisecond).String()
}
