// Package system 시스템 엔드포인트 핸들러를 제공합니다.
//
// 헬스체크, 버전 정보 등 호스트 UI와 무관한 시스템 수준의 API를 처리합니다.
package system

import (
	"net/http"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/pkg/version"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/constants"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/model/system"
	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/labstack/echo/v4"
)

// Handler 시스템 엔드포인트 핸들러 (헬스체크, 버전 정보)
type Handler struct {
	apiKeys  contract.APIKeySource
	licenses contract.LicenseManager

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler Handler 인스턴스를 생성합니다. licenses는 nil일 수 있습니다.
func NewHandler(apiKeys contract.APIKeySource, licenses contract.LicenseManager, buildInfo version.Info) *Handler {
	if apiKeys == nil {
		panic(constants.PanicMsgAPIKeySourceRequired)
	}

	return &Handler{
		apiKeys:  apiKeys,
		licenses: licenses,

		buildInfo: buildInfo,

		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler 서버와 의존성(API Key, 라이선스 관리자)의 상태를 반환합니다.
//
// 의존성이 하나라도 비정상이면 전체 상태는 unhealthy이지만 응답 코드는 항상 200입니다.
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  "/health",
		"method":    c.Request().Method,
		"remote_ip": c.RealIP(),
	}).Debug(constants.LogMsgHealthCheck)

	uptime := int64(time.Since(h.serverStartTime).Seconds())

	deps := make(map[string]system.DependencyStatus, 2)

	if _, ok := h.apiKeys.APIKey(); ok {
		deps[constants.DependencyAPIKey] = system.DependencyStatus{
			Status:  constants.HealthStatusHealthy,
			Message: constants.MsgDepStatusHealthy,
		}
	} else {
		deps[constants.DependencyAPIKey] = system.DependencyStatus{
			Status:  constants.HealthStatusUnhealthy,
			Message: constants.MsgDepStatusAPIKeyMissing,
		}
	}

	if h.licenses != nil {
		deps[constants.DependencyLicense] = system.DependencyStatus{
			Status:  constants.HealthStatusHealthy,
			Message: constants.MsgDepStatusHealthy,
		}
	} else {
		deps[constants.DependencyLicense] = system.DependencyStatus{
			Status:  constants.HealthStatusUnhealthy,
			Message: constants.MsgDepStatusNotInitialized,
		}
	}

	serverStatus := constants.HealthStatusHealthy
	for _, dep := range deps {
		if dep.Status != constants.HealthStatusHealthy {
			serverStatus = constants.HealthStatusUnhealthy
			break
		}
	}

	return c.JSON(http.StatusOK, system.HealthResponse{
		Status:       serverStatus,
		Uptime:       uptime,
		Dependencies: deps,
	})
}

// VersionHandler 빌드 정보(버전, 커밋, 빌드 날짜, Go 버전, 플랫폼)를 반환합니다.
func (h *Handler) VersionHandler(c echo.Context) error {
	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  "/version",
		"method":    c.Request().Method,
		"remote_ip": c.RealIP(),
	}).Debug(constants.LogMsgVersionInfo)

	return c.JSON(http.StatusOK, h.buildInfo)
}
