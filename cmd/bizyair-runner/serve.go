package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/bizyair-runner/internal/config"
	"github.com/darkkaiser/bizyair-runner/internal/pkg/version"
	"github.com/darkkaiser/bizyair-runner/internal/service"
	"github.com/darkkaiser/bizyair-runner/internal/service/api"
	"github.com/darkkaiser/bizyair-runner/internal/service/apikey"
	"github.com/darkkaiser/bizyair-runner/internal/service/catalog"
	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	"github.com/darkkaiser/bizyair-runner/internal/service/interrupt"
	"github.com/darkkaiser/bizyair-runner/internal/service/license"
	"github.com/darkkaiser/bizyair-runner/internal/service/progress"
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

// serveCommand 호스트 연동 HTTP 서버와 보조 서비스를 시작하고 종료 신호를 기다립니다.
func serveCommand(opts serveOptions, stdout, stderr io.Writer) int {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		return exitFailure
	}

	// 2. 로그 시스템 초기화
	logOpts := applog.NewProductionOptions(config.AppName)
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	}
	logCloser, err := setupLogging(appConfig, logOpts)
	if err != nil {
		fmt.Fprintf(stderr, "[FATAL] 로그 시스템 초기화 실패. 서버 구동을 중단합니다. (Cause: %v)\n", err)
		return exitFailure
	}
	defer logCloser.Close()

	fmt.Fprintf(stdout, banner, version.Get().Version)

	// 3. 서비스 구성
	services := buildServeServices(appConfig)

	serviceStopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serviceStopWG := &sync.WaitGroup{}

	// 4. 서비스 시작 (진행률 전달 서비스가 API보다 먼저 준비되어야 한다)
	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", applog.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			cancel()
			serviceStopWG.Wait()

			return exitFailure
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(termC)

	applog.WithComponentAndFields("main", applog.Fields{
		"host": appConfig.HTTPServer.ListenHost,
		"port": appConfig.HTTPServer.ListenPort,
	}).Info("서버 가동 완료")

	<-termC

	applog.WithComponent("main").Info("종료 신호 수신")
	cancel()
	serviceStopWG.Wait()

	return exitOK
}

// buildServeServices serve 모드의 서비스를 시작 순서대로 생성합니다.
//
// 라이선스 상태 파일을 읽지 못하면 Pro 앱은 잠긴 상태로 두고 나머지 기능은 계속 제공합니다.
func buildServeServices(appConfig *config.AppConfig) []service.Service {
	apiKeys := apikey.NewFileSource(appConfig.APIKeyFile)

	manager, err := license.NewManager(appConfig.License)
	if err != nil {
		applog.WithComponentAndFields("main", applog.Fields{
			"path":  appConfig.License.StateFile,
			"error": err,
		}).Warn("라이선스 관리자를 초기화하지 못했습니다. Pro 기능을 사용할 수 없습니다")
	}

	hub := progress.NewHub(progress.AllowOrigins(appConfig.HTTPServer.AllowOrigins))
	dispatcher := progress.NewDispatcher(appConfig.Progress.QueueSize, hub, progress.LogSink{})

	// *license.Manager nil 포인터를 인터페이스에 담지 않습니다.
	var runnerLicense contract.LicenseManager
	var apiLicense api.LicenseManager
	if manager != nil {
		runnerLicense = manager
		apiLicense = manager
	}

	runner := webapp.NewRunner(appConfig, webapp.Dependencies{
		APIKeys:  apiKeys,
		License:  runnerLicense,
		Progress: dispatcher,
	})

	apiService := api.NewService(appConfig, api.Dependencies{
		Runner:     runner,
		APIKeys:    apiKeys,
		Interrupts: interrupt.NewRegistry(),
		License:    apiLicense,
		Catalog:    catalog.NewFileCatalog(appConfig.DefaultAppsFile),
		Progress:   hub,
		BuildInfo:  version.Get(),
	})

	services := []service.Service{dispatcher, hub}
	if manager != nil {
		services = append(services, license.NewPruner(manager, appConfig.License.PruneSchedule, license.DefaultUsageRetention))
	}
	services = append(services, apiService)

	return services
}
