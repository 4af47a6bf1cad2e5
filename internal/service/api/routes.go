package api

import (
	"github.com/darkkaiser/bizyair-runner/internal/service/api/handler/system"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/handler/webapp"
	appmiddleware "github.com/darkkaiser/bizyair-runner/internal/service/api/middleware"
	"github.com/labstack/echo/v4"
)

// webappGroupPrefix 호스트 UI가 호출하는 엔드포인트의 경로 접두사입니다.
const webappGroupPrefix = "/bizyair_webapp"

// RegisterRoutes API 서비스의 모든 라우트를 등록합니다.
//
//   - 시스템 엔드포인트: /health, /version
//   - 호스트 연동 엔드포인트: /bizyair_webapp/*
func RegisterRoutes(e *echo.Echo, sh *system.Handler, wh *webapp.Handler) {
	registerSystemRoutes(e, sh)
	registerWebAppRoutes(e, wh)
}

func registerSystemRoutes(e *echo.Echo, h *system.Handler) {
	e.GET("/health", h.HealthCheckHandler)
	e.GET("/version", h.VersionHandler)
}

func registerWebAppRoutes(e *echo.Echo, h *webapp.Handler) {
	g := e.Group(webappGroupPrefix)

	requireJSON := appmiddleware.ValidateContentType(echo.MIMEApplicationJSON)

	g.GET("/get_api_key", h.GetAPIKeyHandler)
	g.GET("/license_info", h.LicenseInfoHandler)
	g.POST("/activate", h.ActivateHandler, requireJSON)
	g.GET("/default_app_list", h.DefaultAppListHandler)
	g.POST("/run", h.RunHandler, requireJSON)
	g.POST("/interrupt", h.InterruptHandler, requireJSON)
	g.GET("/ws", h.ProgressHandler)
}
