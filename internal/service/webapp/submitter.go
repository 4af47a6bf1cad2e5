package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/tidwall/gjson"
)

const submitterComponent = "webapp.submitter"

// SubmitResult 작업 생성 응답입니다. Status가 Success이면 Outputs가 채워져 있으며 폴링을 건너뜁니다.
type SubmitResult struct {
	Handle  TaskHandle
	Status  Status
	Outputs []OutputRef
}

// Submitter 비동기 작업 생성 요청을 보내고 즉시 결정된 상태를 해석합니다.
type Submitter struct {
	api     *apiClient
	timeout time.Duration
	now     func() time.Time
}

func newSubmitter(api *apiClient, timeout time.Duration) *Submitter {
	return &Submitter{
		api:     api,
		timeout: timeout,
		now:     time.Now,
	}
}

// Submit 작업을 한 번 생성 요청합니다.
//
// 응답이 200/202가 아니거나 requestId(request_id)가 없으면 Submission 에러를,
// 즉시 Failed 또는 Cancelled 상태이면 TaskFailed 에러를 반환합니다.
func (s *Submitter) Submit(ctx context.Context, req TaskRequest, apiKey string) (*SubmitResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, newErrSubmissionFailed(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	header := bearerHeader(apiKey)
	header.Set("Content-Type", "application/json")
	header.Set("X-Bizyair-Task-Async", "enable")

	resp, err := s.api.call(ctx, http.MethodPost, pathTaskCreate, nil, header, bytes.NewReader(payload))
	if err != nil {
		return nil, newErrSubmissionFailed(err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, newErrSubmissionRejected(resp.StatusCode, resp.snippet())
	}

	result := gjson.ParseBytes(resp.Body)
	requestID := findRequestID(result)
	if requestID == "" {
		// 일부 응답은 표준 봉투(code, data) 안에 작업 정보를 담아 보냅니다.
		if data := result.Get("data"); data.IsObject() {
			result = data
			requestID = findRequestID(result)
		}
	}
	if requestID == "" {
		return nil, newErrMissingRequestID(resp.snippet())
	}

	status := Status(result.Get("status").String())
	sr := &SubmitResult{
		Handle: TaskHandle{RequestID: requestID, CreatedAt: s.now(), InitialStatus: status},
		Status: status,
	}

	applog.WithComponentAndFields(submitterComponent, applog.Fields{
		"request_id":  requestID,
		"web_app_id":  req.WebAppID,
		"client_id":   req.ClientID,
		"status":      sr.Status,
		"status_code": resp.StatusCode,
	}).Info("클라우드 작업 생성 완료")

	switch sr.Status {
	case StatusSuccess:
		sr.Outputs = parseOutputs(result.Get("outputs"))
	case StatusFailed:
		return nil, newErrTaskFailedImmediately(extractError(result))
	case StatusCancelled:
		return nil, ErrCancelledImmediately
	}

	return sr, nil
}

func findRequestID(r gjson.Result) string {
	if id := r.Get("requestId").String(); id != "" {
		return id
	}
	return r.Get("request_id").String()
}
