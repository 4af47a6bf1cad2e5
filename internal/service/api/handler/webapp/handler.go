// Package webapp 호스트 UI(ComfyUI 노드)가 호출하는 /bizyair_webapp 엔드포인트 핸들러를 제공합니다.
package webapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/darkkaiser/bizyair-runner/internal/service/api/constants"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/handler"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/httputil"
	model "github.com/darkkaiser/bizyair-runner/internal/service/api/model/webapp"
	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	"github.com/darkkaiser/bizyair-runner/internal/service/license"
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp"
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp/media"
	"github.com/darkkaiser/bizyair-runner/pkg/concurrency"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/labstack/echo/v4"
)

// Runner 작업 하나의 생명주기를 실행합니다.
type Runner interface {
	Run(ctx context.Context, req webapp.RunRequest) (*webapp.RunResult, error)
	OutputDir() string
}

// LicenseService 라이선스 조회와 활성화를 처리합니다.
type LicenseService interface {
	Info() license.Info
	Activate(key string) (bool, error)
}

// AppCatalog 호스트 UI 드롭다운에 표시할 기본 앱 목록을 제공합니다.
type AppCatalog interface {
	DefaultApps() []string
}

// InterruptRegistry 노드별 중단 요청을 관리합니다.
type InterruptRegistry interface {
	Request(nodeID string)
	Clear(nodeID string)
	Checker(ctx context.Context, nodeID string) contract.InterruptChecker
}

// Dependencies Handler가 사용하는 협력자입니다. Licenses, Catalog, Progress는 nil일 수 있습니다.
type Dependencies struct {
	Runner     Runner
	APIKeys    contract.APIKeySource
	Interrupts InterruptRegistry

	Licenses LicenseService
	Catalog  AppCatalog

	// Progress 진행률 WebSocket 핸들러입니다.
	Progress http.Handler
}

// Handler /bizyair_webapp 엔드포인트 핸들러입니다.
type Handler struct {
	runner     Runner
	apiKeys    contract.APIKeySource
	interrupts InterruptRegistry
	licenses   LicenseService
	catalog    AppCatalog
	progress   http.Handler

	// nodeLocks 같은 노드에서 작업이 동시에 실행되지 않도록 합니다.
	nodeLocks *concurrency.KeyedMutex[string]
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(deps Dependencies) *Handler {
	if deps.Runner == nil {
		panic(constants.PanicMsgRunnerRequired)
	}
	if deps.APIKeys == nil {
		panic(constants.PanicMsgAPIKeySourceRequired)
	}
	if deps.Interrupts == nil {
		panic(constants.PanicMsgInterruptRegistryRequired)
	}

	return &Handler{
		runner:     deps.Runner,
		apiKeys:    deps.APIKeys,
		interrupts: deps.Interrupts,
		licenses:   deps.Licenses,
		catalog:    deps.Catalog,
		progress:   deps.Progress,

		nodeLocks: concurrency.NewKeyedMutex[string](),
	}
}

// GetAPIKeyHandler 설정된 API Key를 반환합니다. 키가 없으면 빈 문자열입니다.
func (h *Handler) GetAPIKeyHandler(c echo.Context) error {
	key, _ := h.apiKeys.APIKey()
	return c.JSON(http.StatusOK, model.APIKeyResponse{APIKey: key})
}

// LicenseInfoHandler 활성화 여부, 기기 식별자, 오늘의 사용 가능 여부를 반환합니다.
func (h *Handler) LicenseInfoHandler(c echo.Context) error {
	if h.licenses == nil {
		return httputil.NewServiceUnavailableError(constants.ErrMsgLicenseUnavailable)
	}
	return c.JSON(http.StatusOK, h.licenses.Info())
}

// ActivateHandler 활성화 키를 검증하고 저장합니다.
//
// 키가 유효하지 않으면 200과 함께 success=false를 반환합니다.
func (h *Handler) ActivateHandler(c echo.Context) error {
	if h.licenses == nil {
		return httputil.NewServiceUnavailableError(constants.ErrMsgLicenseUnavailable)
	}

	var req model.ActivateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.licenses.Activate(req.Key)
	if err != nil {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"remote_ip": c.RealIP(),
			"error":     err,
		}).Error(constants.LogMsgActivateFailed)

		return err
	}

	if !ok {
		return c.JSON(http.StatusOK, model.ActivateResponse{Success: false, Message: constants.MsgActivateInvalid})
	}
	return c.JSON(http.StatusOK, model.ActivateResponse{Success: true, Message: constants.MsgActivateSuccess})
}

// DefaultAppListHandler 기본 앱 목록을 반환합니다. 목록을 읽지 못하면 빈 목록입니다.
func (h *Handler) DefaultAppListHandler(c echo.Context) error {
	apps := []string{}
	if h.catalog != nil {
		if list := h.catalog.DefaultApps(); list != nil {
			apps = list
		}
	}
	return c.JSON(http.StatusOK, model.DefaultAppsResponse{DefaultApps: apps})
}

// InterruptHandler 노드의 실행 중인 작업에 중단을 요청합니다.
//
// 실행 중인 작업이 없어도 성공을 반환하며, 요청은 다음 실행이 시작될 때 지워집니다.
func (h *Handler) InterruptHandler(c echo.Context) error {
	var req model.InterruptRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	h.interrupts.Request(req.NodeID)

	return c.JSON(http.StatusOK, model.InterruptResponse{Success: true, NodeID: req.NodeID})
}

// RunHandler 작업을 실행하고 결과물 요약을 반환합니다. 작업이 끝날 때까지 블로킹합니다.
//
// 같은 노드에서 이미 작업이 실행 중이면 409를 반환합니다.
// 클라이언트 연결이 끊어지면 요청 Context가 취소되어 원격 작업에 중단 신호를 보냅니다.
func (h *Handler) RunHandler(c echo.Context) error {
	var req model.RunRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	images, err := decodeImages(req.Images)
	if err != nil {
		return err
	}

	if !h.nodeLocks.TryLock(req.NodeID) {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"node_id":   req.NodeID,
			"remote_ip": c.RealIP(),
		}).Warn(constants.LogMsgNodeBusy)

		return httputil.NewConflictError(fmt.Sprintf(constants.ErrMsgNodeBusy, req.NodeID))
	}
	defer h.nodeLocks.Unlock(req.NodeID)

	// 이전 실행이 끝난 뒤 도착한 중단 요청이 새 작업을 멈추지 않도록 지웁니다.
	h.interrupts.Clear(req.NodeID)
	defer h.interrupts.Clear(req.NodeID)

	fields := applog.Fields{
		"node_id": req.NodeID,
		"app":     req.App,
		"images":  len(images),
		"values":  len(req.Values),
	}
	applog.WithComponentAndFields(constants.ComponentHandler, fields).Info(constants.LogMsgRunStarted)

	ctx := c.Request().Context()
	result, err := h.runner.Run(ctx, webapp.RunRequest{
		NodeID:          req.NodeID,
		App:             req.App,
		InputValuesJSON: req.InputValuesJSON,
		Images:          images,
		Values:          req.Values,
		Interrupt:       h.interrupts.Checker(ctx, req.NodeID),
	})
	if err != nil {
		fields["error"] = err
		applog.WithComponentAndFields(constants.ComponentHandler, fields).Warn(constants.LogMsgRunFailed)

		return err
	}

	resp := model.RunResponse{
		RequestID: result.RequestID,
		WebAppID:  result.WebAppID,
		OutputDir: h.runner.OutputDir(),
		Outputs:   make([]model.OutputResponse, 0, len(result.Outputs)),
	}
	for _, out := range result.Outputs {
		resp.Outputs = append(resp.Outputs, toOutputResponse(out))
	}

	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"node_id":    req.NodeID,
		"request_id": result.RequestID,
		"outputs":    len(resp.Outputs),
	}).Info(constants.LogMsgRunFinished)

	return c.JSON(http.StatusOK, resp)
}

// ProgressHandler 진행률 이벤트를 받을 WebSocket 연결을 업그레이드합니다.
func (h *Handler) ProgressHandler(c echo.Context) error {
	if h.progress == nil {
		return httputil.NewNotFoundError(constants.ErrMsgNotFound)
	}
	h.progress.ServeHTTP(c.Response(), c.Request())
	return nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return httputil.NewBadRequestError(constants.ErrMsgBadRequestInvalidBody)
	}
	if err := handler.ValidateRequest(req); err != nil {
		return httputil.NewBadRequestError(handler.FormatValidationError(err))
	}
	return nil
}

// decodeImages 라벨별 Base64 이미지 배치를 텐서로 디코딩합니다. data URI 형식도 허용합니다.
func decodeImages(encoded map[string][]string) (map[string][]*media.Image, error) {
	if len(encoded) == 0 {
		return nil, nil
	}

	images := make(map[string][]*media.Image, len(encoded))
	for label, batch := range encoded {
		for i, s := range batch {
			if idx := strings.Index(s, ";base64,"); idx >= 0 && strings.HasPrefix(s, "data:") {
				s = s[idx+len(";base64,"):]
			}

			data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
			if err != nil {
				return nil, httputil.NewBadRequestError(fmt.Sprintf(constants.ErrMsgBadRequestInvalidImage, label, i))
			}

			img, err := media.DecodeImage(bytes.NewReader(data))
			if err != nil {
				return nil, httputil.NewBadRequestError(fmt.Sprintf(constants.ErrMsgBadRequestInvalidImage, label, i))
			}

			images[label] = append(images[label], img)
		}
	}

	return images, nil
}

func toOutputResponse(r webapp.Result) model.OutputResponse {
	resp := model.OutputResponse{
		Kind: string(r.Kind()),
		Path: r.FilePath(),
	}

	switch v := r.(type) {
	case *webapp.ImageResult:
		if v.Image != nil {
			resp.Width = v.Image.Width
			resp.Height = v.Image.Height
			resp.Channels = v.Image.Channels
		}
	case *webapp.AudioResult:
		if v.Audio != nil {
			resp.SampleRate = v.Audio.SampleRate
			resp.Channels = v.Audio.Channels()
			resp.Samples = v.Audio.Samples()
		}
	}

	return resp
}
