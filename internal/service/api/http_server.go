package api

import (
	"net/http"

	"github.com/darkkaiser/bizyair-runner/internal/service/api/constants"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/httputil"
	appmiddleware "github.com/darkkaiser/bizyair-runner/internal/service/api/middleware"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HTTPServerConfig HTTP 서버 생성에 필요한 설정을 정의합니다.
type HTTPServerConfig struct {
	// Debug Echo 프레임워크의 디버그 모드 활성화 여부
	Debug bool

	// AllowOrigins CORS에서 허용할 Origin 목록
	AllowOrigins []string

	// BodyLimit 요청 본문 최대 크기 (예: "32M"). Base64 이미지 배치를 담을 수 있어야 합니다.
	BodyLimit string

	// RequestsPerSecond, Burst IP별 Token Bucket 설정
	RequestsPerSecond float64
	Burst             int
}

// NewHTTPServer 설정된 미들웨어를 포함한 Echo 인스턴스를 생성합니다.
//
// 미들웨어는 다음 순서로 적용됩니다:
//
//  1. PanicRecovery - 다른 미들웨어의 panic까지 복구하도록 가장 먼저 적용
//  2. RequestID - 로그에 request_id가 포함되도록 로깅보다 먼저 적용
//  3. ServerHeader - Server 응답 헤더 제거
//  4. HTTPLogger - 429/413 응답도 기록되도록 제한 미들웨어보다 먼저 적용
//  5. RateLimit - IP별 요청 빈도 제한 (초과 시 429)
//  6. BodyLimit - 요청 본문 크기 제한 (초과 시 413)
//  7. CORS - 호스트 UI Origin 허용, Preflight 응답
//  8. Secure - 보안 헤더 추가
//
// 작업 실행 요청은 원격 작업이 끝날 때까지 블로킹하므로 Timeout 미들웨어는 사용하지 않습니다.
// 라우트는 반환된 Echo 인스턴스에 별도로 등록해야 합니다.
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	e.Server.IdleTimeout = constants.DefaultIdleTimeout

	// Echo 내부 로그를 애플리케이션 로거로 통합합니다.
	e.Logger = appmiddleware.Logger{Logger: applog.StandardLogger()}

	e.HTTPErrorHandler = httputil.ErrorHandler

	bodyLimit := cfg.BodyLimit
	if bodyLimit == "" {
		bodyLimit = constants.DefaultBodyLimit
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = constants.DefaultRateLimitPerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = constants.DefaultRateLimitBurst
	}

	e.Use(appmiddleware.PanicRecovery())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	e.Use(appmiddleware.HTTPLogger())
	e.Use(appmiddleware.RateLimit(rps, burst))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(middleware.Secure())

	return e
}
