package webapp

import (
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/service/webapp/media"
	"github.com/tidwall/gjson"
)

// successCode 원격 서비스 응답 본문의 code 필드가 성공을 나타내는 값입니다.
const successCode = 20000

// unknownErrorMessage 서버 응답에서 에러 원인을 찾지 못했을 때 사용하는 메시지입니다.
const unknownErrorMessage = "Unknown error (No detailed error message found)"

// Status 원격 작업의 상태입니다.
type Status string

const (
	StatusQueuing   Status = "Queuing"
	StatusPreparing Status = "Preparing"
	StatusRunning   Status = "Running"
	StatusSuccess   Status = "Success"
	StatusFailed    Status = "Failed"
	StatusError     Status = "Error"
	StatusCancelled Status = "Cancelled"
)

// IsTerminal 더 이상 폴링할 필요가 없는 상태인지 확인합니다.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusError, StatusCancelled:
		return true
	}
	return false
}

// IsFailure 서버가 작업 실패를 선언한 상태인지 확인합니다.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusError
}

// TaskRequest 작업 생성 요청 본문입니다. 제출 이후에는 변경하지 않습니다.
type TaskRequest struct {
	WebAppID    int            `json:"web_app_id"`
	BackendID   int            `json:"backend_id"`
	ClientID    string         `json:"client_id"`
	InputValues map[string]any `json:"input_values"`
}

// TaskHandle 폴링과 중단 요청에 사용하는 원격 작업 식별 정보입니다.
type TaskHandle struct {
	RequestID string
	CreatedAt time.Time

	// InitialStatus 작업 생성 응답이 보고한 상태입니다. 첫 조회 전에 중단되면 중단 신호 선택에 사용합니다.
	InitialStatus Status
}

// OutputRef 서버가 알려준 결과물 하나입니다.
type OutputRef struct {
	URL       string `json:"object_url"`
	ErrorType string `json:"error_type,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Extension URL 경로에서 얻은 소문자 확장자입니다. 확장자가 없으면 ".png"입니다.
func (o OutputRef) Extension() string {
	return media.ExtensionFromURL(o.URL)
}

// Kind 확장자로 판별한 결과물 종류입니다.
func (o OutputRef) Kind() media.Kind {
	return media.KindOf(o.Extension())
}

// PollSnapshot 상태 조회 한 번의 결과입니다. 매 조회마다 이전 값을 대체합니다.
type PollSnapshot struct {
	Status Status

	// Progress 서버가 보고한 진행률입니다. 1보다 큰 값은 백분율로 보고 100으로 나눕니다.
	Progress float64

	// Message 서버의 message_str 값입니다. 실패 원인 표시에 사용합니다.
	Message string

	// ProgressMsg 진행률 이벤트에 함께 보낼 서버 메시지입니다.
	ProgressMsg string

	// InferenceCost 서버가 보고한 추론 소요 시간(초)입니다. 없으면 빈 문자열입니다.
	InferenceCost string

	Outputs []OutputRef

	raw gjson.Result
}

// ErrorMessage 실패 원인 메시지를 반환합니다. message_str이 없으면 응답에서 에러를 추출합니다.
func (s *PollSnapshot) ErrorMessage() string {
	if s.Message != "" {
		return s.Message
	}
	return extractError(s.raw)
}

// unwrapEnvelope code가 20000이면 data를, 아니면 본문 자체를 반환합니다.
func unwrapEnvelope(body gjson.Result) gjson.Result {
	if body.Get("code").Int() == successCode {
		return body.Get("data")
	}
	return body
}

// parseSnapshot 상태 조회 응답을 해석합니다. 상태가 없으면 Queuing으로 간주합니다.
func parseSnapshot(data gjson.Result) *PollSnapshot {
	snap := &PollSnapshot{Status: StatusQueuing, raw: data}
	if !data.IsObject() {
		return snap
	}

	if s := data.Get("status").String(); s != "" {
		snap.Status = Status(s)
	}

	snap.Progress = normalizeServerProgress(data.Get("progress").Float())
	snap.Message = data.Get("message_str").String()
	snap.ProgressMsg = data.Get("progress_msg").String()
	if cost := data.Get("inference_cost_time"); cost.Exists() && cost.Type != gjson.Null {
		snap.InferenceCost = cost.String()
	}
	snap.Outputs = parseOutputs(data.Get("outputs"))

	return snap
}

// normalizeServerProgress 백분율(0~100)로 보고된 진행률을 0~1 범위로 변환합니다.
func normalizeServerProgress(p float64) float64 {
	if p > 1 {
		p /= 100
	}
	if p < 0 {
		p = 0
	}
	return p
}

func parseOutputs(arr gjson.Result) []OutputRef {
	if !arr.IsArray() {
		return nil
	}

	var outputs []OutputRef
	arr.ForEach(func(_, v gjson.Result) bool {
		outputs = append(outputs, OutputRef{
			URL:       v.Get("object_url").String(),
			ErrorType: v.Get("error_type").String(),
			ErrorMsg:  v.Get("error_msg").String(),
		})
		return true
	})
	return outputs
}

// extractError 응답에서 사람이 읽을 수 있는 에러 메시지를 찾습니다.
//
// 최상위 error 필드, error_type이 NOT_ERROR가 아닌 첫 번째 결과물의 error_msg 순서로 찾습니다.
func extractError(data gjson.Result) string {
	if e := data.Get("error"); e.Type != gjson.Null && e.Type != gjson.False && e.String() != "" {
		return e.String()
	}

	msg := ""
	data.Get("outputs").ForEach(func(_, out gjson.Result) bool {
		if out.Get("error_type").String() == "NOT_ERROR" {
			return true
		}
		if m := out.Get("error_msg").String(); m != "" {
			msg = m
			return false
		}
		return true
	})
	if msg != "" {
		return msg
	}

	return unknownErrorMessage
}
