// Command bizyair-runner 클라우드 추론 서비스(BizyAir WebApp) 작업 실행기입니다.
//
//	bizyair-runner [serve] [--config bizyair-runner.json]
//	bizyair-runner run --app 42 --inputs '{"web_app_id":42}' --image image=in.png [--value prompt=cat] [--node cli]
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/darkkaiser/bizyair-runner/internal/config"
	"github.com/darkkaiser/bizyair-runner/internal/pkg/version"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

const (
	commandServe = "serve"
	commandRun   = "run"
)

const banner = `
--------------------------------------------------------------------------------
 bizyair-runner %s
--------------------------------------------------------------------------------
`

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

// realMain 하위 명령을 실행하고 프로세스 종료 코드를 반환합니다.
func realMain(args []string, stdout, stderr io.Writer) int {
	command := commandServe
	if len(args) > 0 && (args[0] == commandServe || args[0] == commandRun) {
		command, args = args[0], args[1:]
	}

	switch command {
	case commandRun:
		opts, err := parseRunOptions(args)
		if err != nil {
			fmt.Fprintf(stderr, "[ERROR] %v\n", err)
			return exitUsage
		}
		return runCommand(opts, stdout, stderr)

	default:
		opts, err := parseServeOptions(args)
		if err != nil {
			fmt.Fprintf(stderr, "[ERROR] %v\n", err)
			return exitUsage
		}
		return serveCommand(opts, stdout, stderr)
	}
}

// loadConfig 설정 파일을 읽습니다. 경로가 비어있으면 기본 설정 파일(없으면 기본값)을 사용합니다.
func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadWithFile(path)
}

// setupLogging 로그 시스템을 초기화하고 설정 권고 사항을 경고로 남깁니다.
func setupLogging(appConfig *config.AppConfig, opts applog.Options) (io.Closer, error) {
	closer, err := applog.Setup(opts)
	if err != nil {
		return nil, err
	}

	applog.SetDebugMode(appConfig.Debug)

	for _, w := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(w)
	}

	buildInfo := version.Get()
	applog.WithComponentAndFields("main", applog.Fields{
		"version": buildInfo.String(),
		"env":     map[bool]string{true: "development", false: "production"}[appConfig.Debug],
	}).Info("애플리케이션 초기화 시작")

	return closer, nil
}
