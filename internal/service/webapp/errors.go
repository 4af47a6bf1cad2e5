package webapp

import (
	"fmt"
	"time"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
)

// 호스트 UI에 그대로 표시되는 에러입니다.
var (
	// ErrAPIKeyMissing API Key 파일이 없거나 키가 비어있을 때 반환됩니다.
	ErrAPIKeyMissing = apperrors.New(apperrors.Auth, "BizyAir API Key not found in api_key.ini")

	// ErrNoAppSelected 노드에 선택된 웹앱이 없을 때 반환됩니다.
	ErrNoAppSelected = apperrors.New(apperrors.Validation, "No App selected")

	// ErrMissingWebAppID 입력값에 web_app_id가 없을 때 반환됩니다.
	ErrMissingWebAppID = apperrors.New(apperrors.Validation, "Missing web_app_id. Please refresh the node.")

	// ErrProNotActivated 라이선스가 활성화되지 않은 상태에서 Pro 앱을 실행하려고 할 때 반환됩니다.
	ErrProNotActivated = apperrors.New(apperrors.Entitlement, "🔒 此功能涉及音视频处理 (Pro)。请联系作者激活授权以解锁。")

	// ErrCancelledImmediately 작업 생성 응답의 상태가 이미 Cancelled일 때 반환됩니다.
	ErrCancelledImmediately = apperrors.New(apperrors.TaskFailed, "Task was cancelled immediately")

	// ErrCancelledByServer 폴링 중 서버가 작업 취소를 보고했을 때 반환됩니다.
	ErrCancelledByServer = apperrors.New(apperrors.TaskFailed, "Task was cancelled by the server")
)

func newErrInvalidWebAppID(raw any) error {
	return apperrors.New(apperrors.Validation, fmt.Sprintf("Invalid web_app_id: %v", raw))
}

func newErrDailyLimitReached(msg string) error {
	return apperrors.New(apperrors.Entitlement, "🔒 "+msg)
}

func newErrDecodePanic(file string, p any) error {
	return apperrors.Newf(apperrors.Decode, "결과물 디코딩 중 패닉이 발생했습니다 (%s): %v", file, p)
}

func newErrUsageRecordFailed(err error) error {
	return apperrors.Wrap(err, apperrors.System, "Pro 기능 사용 횟수 기록에 실패했습니다")
}

func newErrCredentialRequestFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Credential, "Get token failed")
}

func newErrCredentialRejected(statusCode int, body string) error {
	return apperrors.New(apperrors.Credential, fmt.Sprintf("Get token failed: HTTP %d, Body: %s", statusCode, body))
}

func newErrCredentialErrorCode(message string) error {
	return apperrors.New(apperrors.Credential, fmt.Sprintf("Get token error: %s", message))
}

func newErrCredentialIncomplete(field string) error {
	return apperrors.New(apperrors.Credential, fmt.Sprintf("Get token error: missing %s", field))
}

func newErrUploadFailed(err error, filename string) error {
	return apperrors.Wrap(err, apperrors.Upload, fmt.Sprintf("OSS Upload failed: %s", filename))
}

func newErrUploadRejected(statusCode int, body string) error {
	return apperrors.New(apperrors.Upload, fmt.Sprintf("OSS Upload failed: HTTP %d, Body: %s", statusCode, body))
}

func newErrImageEncodeFailed(err error, label string, index int) error {
	return apperrors.Wrap(err, apperrors.Upload, fmt.Sprintf("입력 이미지 인코딩에 실패했습니다 (%s #%d)", label, index))
}

func newErrSubmissionFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Submission, "Create task request failed")
}

func newErrSubmissionRejected(statusCode int, body string) error {
	return apperrors.New(apperrors.Submission, fmt.Sprintf("HTTP Error: %d, Body: %s", statusCode, body))
}

func newErrMissingRequestID(body string) error {
	return apperrors.New(apperrors.Submission, fmt.Sprintf("No request_id found in response: %s", body))
}

func newErrTaskFailedImmediately(msg string) error {
	return apperrors.New(apperrors.TaskFailed, "Task failed immediately: "+msg)
}

func newErrTaskFailed(msg string) error {
	return apperrors.New(apperrors.TaskFailed, "Task Failed: "+msg)
}

func newErrPollTimeout(maxWait time.Duration) error {
	return apperrors.New(apperrors.Timeout, fmt.Sprintf("Task timed out or failed to return outputs. (max wait %s)", maxWait))
}

func newErrInterrupted(requestID string) error {
	return apperrors.New(apperrors.Interrupted, fmt.Sprintf("Task interrupted (request_id: %s)", requestID))
}

func newErrOutputDirFailed(err error, dir string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("결과물 저장 디렉토리를 만들 수 없습니다: '%s'", dir))
}

func newErrDownloadFailed(err error, index int) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("결과물 다운로드에 실패했습니다 (#%d)", index))
}
