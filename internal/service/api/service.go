package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/darkkaiser/bizyair-runner/internal/config"
	"github.com/darkkaiser/bizyair-runner/internal/pkg/version"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/constants"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/handler/system"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/handler/webapp"
	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/labstack/echo/v4"
)

// LicenseManager 헬스체크와 /bizyair_webapp 라이선스 엔드포인트가 함께 사용하는 라이선스 관리자입니다.
type LicenseManager interface {
	contract.LicenseManager
	webapp.LicenseService
}

// Dependencies API 서비스가 핸들러에 넘겨주는 협력자입니다.
//
// License, Catalog, Progress는 nil일 수 있으며 해당 엔드포인트는 503, 빈 목록, 404로 응답합니다.
type Dependencies struct {
	Runner     webapp.Runner
	APIKeys    contract.APIKeySource
	Interrupts webapp.InterruptRegistry

	License  LicenseManager
	Catalog  webapp.AppCatalog
	Progress http.Handler

	BuildInfo version.Info
}

// Service 호스트 연동용 HTTP 서버의 생명주기를 관리하는 서비스입니다.
//
// Start로 시작하면 고루틴에서 Echo 서버를 실행하고, serviceStopCtx가 취소되면
// Graceful Shutdown 후 serviceStopWG.Done()을 호출합니다.
type Service struct {
	appConfig *config.AppConfig

	deps Dependencies

	// addr 실제로 수신 중인 주소입니다. 포트 0으로 시작한 경우 할당된 포트를 알 수 있습니다.
	addr   net.Addr
	addrMu sync.RWMutex

	running   bool
	runningMu sync.Mutex
}

// NewService Service 인스턴스를 생성합니다.
func NewService(appConfig *config.AppConfig, deps Dependencies) *Service {
	if appConfig == nil {
		panic(constants.PanicMsgAppConfigRequired)
	}
	if deps.Runner == nil {
		panic(constants.PanicMsgRunnerRequired)
	}
	if deps.APIKeys == nil {
		panic(constants.PanicMsgAPIKeySourceRequired)
	}
	if deps.Interrupts == nil {
		panic(constants.PanicMsgInterruptRegistryRequired)
	}

	return &Service{
		appConfig: appConfig,
		deps:      deps,
	}
}

// Start API 서비스를 시작합니다. 즉시 반환되며 서버는 고루틴에서 실행됩니다.
//
// 이미 실행 중이면 serviceStopWG.Done()을 호출하고 ErrServiceAlreadyStarted를 반환합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStarting)

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(constants.ComponentService).Warn(constants.LogMsgServiceAlreadyStarted)
		return ErrServiceAlreadyStarted
	}

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStarted)

	return nil
}

// Addr 서버가 수신 중인 주소를 반환합니다. 아직 수신 전이면 nil입니다.
func (s *Service) Addr() net.Addr {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

// setupServer Handler를 만들고 미들웨어 체인과 라우트가 설정된 Echo 서버를 반환합니다.
func (s *Service) setupServer() *echo.Echo {
	systemHandler := system.NewHandler(s.deps.APIKeys, s.deps.License, s.deps.BuildInfo)
	webappHandler := webapp.NewHandler(webapp.Dependencies{
		Runner:     s.deps.Runner,
		APIKeys:    s.deps.APIKeys,
		Interrupts: s.deps.Interrupts,
		Licenses:   s.deps.License,
		Catalog:    s.deps.Catalog,
		Progress:   s.deps.Progress,
	})

	httpCfg := s.appConfig.HTTPServer
	e := NewHTTPServer(HTTPServerConfig{
		Debug:             s.appConfig.Debug,
		AllowOrigins:      httpCfg.AllowOrigins,
		BodyLimit:         httpCfg.BodyLimit,
		RequestsPerSecond: httpCfg.RateLimit.RequestsPerSecond,
		Burst:             httpCfg.RateLimit.Burst,
	})

	RegisterRoutes(e, systemHandler, webappHandler)

	return e
}

// startHTTPServer 서버를 시작하고 종료되면 done 채널을 닫습니다. 서버가 종료될 때까지 블로킹합니다.
func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	address := net.JoinHostPort(s.appConfig.HTTPServer.ListenHost, strconv.Itoa(s.appConfig.HTTPServer.ListenPort))
	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"address": address,
	}).Info(constants.LogMsgServiceHTTPServerStarting)

	ln, err := net.Listen("tcp", address)
	if err != nil {
		s.handleServerError(err)
		return
	}

	s.addrMu.Lock()
	s.addr = ln.Addr()
	s.addrMu.Unlock()

	e.Listener = ln
	s.handleServerError(e.Start(""))
}

// handleServerError 서버 종료 원인을 기록합니다. Graceful Shutdown에 의한 종료는 Info로 기록합니다.
func (s *Service) handleServerError(err error) {
	if err == nil {
		return
	}

	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceHTTPServerStopped)
		return
	}

	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"host":  s.appConfig.HTTPServer.ListenHost,
		"port":  s.appConfig.HTTPServer.ListenPort,
		"error": err,
	}).Error(constants.LogMsgServiceHTTPServerFatalError)
}

// waitForShutdown 종료 신호를 기다린 뒤 Graceful Shutdown을 수행합니다.
//
// 서버가 먼저 종료되면(포트 바인딩 실패 등) Shutdown 없이 상태만 정리합니다.
func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStopping)
	case <-httpServerDone:
		applog.WithComponent(constants.ComponentService).Error(constants.LogMsgServiceUnexpectedExit)

		s.cleanup()

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
			"error": err,
		}).Error(constants.LogMsgServiceHTTPServerShutdownError)
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	s.addrMu.Lock()
	s.addr = nil
	s.addrMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStopped)
}
