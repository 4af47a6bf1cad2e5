package httputil

import (
	"errors"
	"net/http"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/constants"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/model/response"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/labstack/echo/v4"
)

// StatusCodeOf 작업 실행 에러의 분류를 HTTP 상태 코드로 변환합니다.
//
// 원격 서비스가 거부하거나 실패한 경우는 502, 제한 시간 초과는 504로 응답합니다.
func StatusCodeOf(errType apperrors.ErrorType) int {
	switch errType {
	case apperrors.Auth:
		return http.StatusUnauthorized
	case apperrors.Validation:
		return http.StatusBadRequest
	case apperrors.Entitlement:
		return http.StatusForbidden
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.Interrupted:
		return http.StatusConflict
	case apperrors.Credential, apperrors.Upload, apperrors.Submission, apperrors.TaskFailed:
		return http.StatusBadGateway
	case apperrors.Timeout:
		return http.StatusGatewayTimeout
	case apperrors.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// exposesMessage 내부 오류가 아니면 에러 메시지를 그대로 클라이언트에 전달합니다.
func exposesMessage(errType apperrors.ErrorType) bool {
	switch errType {
	case apperrors.Unknown, apperrors.Internal:
		return false
	default:
		return true
	}
}

// ErrorHandler Echo 프레임워크의 전역 에러 핸들러입니다.
//
// echo.HTTPError와 애플리케이션 에러(AppError)를 표준 ErrorResponse JSON 형식으로 변환하여 반환합니다.
func ErrorHandler(err error, c echo.Context) {
	resp := response.ErrorResponse{
		ResultCode: http.StatusInternalServerError,
		Message:    constants.ErrMsgInternalServer,
	}

	var causeFields applog.Fields

	var he *echo.HTTPError
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &he):
		resp.ResultCode = he.Code
		switch m := he.Message.(type) {
		case string:
			resp.Message = m
		case response.ErrorResponse:
			resp.Message = m.Message
		}
		if he.Code == http.StatusNotFound && resp.Message == http.StatusText(http.StatusNotFound) {
			resp.Message = constants.ErrMsgNotFound
		}
		if he.Code == http.StatusRequestEntityTooLarge {
			resp.Message = constants.ErrMsgRequestEntityTooLarge
		}

	case apperrors.As(err, &appErr):
		errType := apperrors.TypeOf(err)
		resp.ResultCode = StatusCodeOf(errType)
		resp.ErrorType = errType.String()
		if exposesMessage(errType) {
			resp.Message = appErr.Message()
		}
		causeFields = causeFieldsOf(err, errType)
	}

	fields := applog.Fields{
		"path":        c.Request().URL.Path,
		"method":      c.Request().Method,
		"status_code": resp.ResultCode,
		"error":       err,
		"remote_ip":   c.RealIP(),
		"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
	}
	for k, v := range causeFields {
		fields[k] = v
	}
	if resp.ResultCode >= http.StatusInternalServerError {
		applog.WithComponentAndFields(constants.ComponentErrorHandler, fields).Error(constants.LogMsgHTTP5xxServerError)
	} else if resp.ResultCode >= http.StatusBadRequest {
		applog.WithComponentAndFields(constants.ComponentErrorHandler, fields).Warn(constants.LogMsgHTTP4xxClientError)
	}

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(resp.ResultCode)
		return
	}

	_ = c.JSON(resp.ResultCode, resp)
}

// causeFieldsOf 래핑된 에러의 근본 원인과 가장 안쪽 분류를 로그 필드로 만듭니다.
func causeFieldsOf(err error, errType apperrors.ErrorType) applog.Fields {
	fields := applog.Fields{}
	if root := apperrors.RootCause(err); root != nil && root != err {
		fields["root_cause"] = root.Error()
	}
	if cause := apperrors.UnderlyingType(err); cause != errType {
		fields["cause_type"] = cause.String()
	}
	return fields
}
