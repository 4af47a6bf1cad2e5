package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/darkkaiser/bizyair-runner/internal/config"
	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
	"github.com/darkkaiser/bizyair-runner/internal/service/apikey"
	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	"github.com/darkkaiser/bizyair-runner/internal/service/license"
	"github.com/darkkaiser/bizyair-runner/internal/service/progress"
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp"
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp/media"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

// runCommand 작업 하나를 실행하고 결과물 경로를 출력합니다.
//
// 첫 번째 SIGINT는 원격 작업 중단을 요청하고, 두 번째 SIGINT는 실행 컨텍스트를 취소합니다.
func runCommand(opts runOptions, stdout, stderr io.Writer) int {
	appConfig, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		return exitFailure
	}

	logCloser, err := setupLogging(appConfig, applog.NewCommandLineOptions(config.AppName))
	if err != nil {
		fmt.Fprintf(stderr, "[FATAL] 로그 시스템 초기화 실패: %v\n", err)
		return exitFailure
	}
	defer logCloser.Close()

	images, err := loadImages(opts)
	if err != nil {
		fmt.Fprintf(stderr, "[ERROR] %v\n", err)
		return exitUsage
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var interrupted atomic.Bool
	sigC := make(chan os.Signal, 2)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigC)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigC:
				if interrupted.CompareAndSwap(false, true) {
					fmt.Fprintln(stderr, "\n중단을 요청했습니다. 한 번 더 누르면 즉시 종료합니다.")
					continue
				}
				cancel()
				return
			}
		}
	}()

	// 진행률 표시 전용 디스패처입니다. 작업이 끝나면 별도로 정지시킵니다.
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcherWG := &sync.WaitGroup{}
	dispatcher := progress.NewDispatcher(appConfig.Progress.QueueSize, progress.NewTerminalSink(stderr))
	dispatcherWG.Add(1)
	if err := dispatcher.Start(dispatcherCtx, dispatcherWG); err != nil {
		stopDispatcher()
		fmt.Fprintf(stderr, "[ERROR] %v\n", err)
		return exitFailure
	}

	deps := webapp.Dependencies{
		APIKeys:  apikey.NewFileSource(appConfig.APIKeyFile),
		Progress: dispatcher,
	}
	if manager, err := license.NewManager(appConfig.License); err == nil {
		deps.License = manager
	} else {
		applog.WithComponentAndFields("main", applog.Fields{
			"error": err,
		}).Warn("라이선스 관리자를 초기화하지 못했습니다. Pro 기능을 사용할 수 없습니다")
	}

	runner := webapp.NewRunner(appConfig, deps)
	result, err := runner.Run(ctx, webapp.RunRequest{
		NodeID:          opts.nodeID,
		App:             opts.app,
		InputValuesJSON: opts.inputs,
		Images:          images,
		Values:          opts.values,
		Interrupt:       contract.InterruptCheckerFunc(interrupted.Load),
	})

	stopDispatcher()
	dispatcherWG.Wait()

	if err != nil {
		fmt.Fprintf(stderr, "[ERROR] %v\n", err)
		if apperrors.Is(err, apperrors.Interrupted) {
			return exitInterrupted
		}
		return exitFailure
	}

	fmt.Fprintf(stdout, "request_id: %s\n", result.RequestID)
	for _, out := range result.Outputs {
		fmt.Fprintf(stdout, "%s\t%s\n", out.Kind(), out.FilePath())
	}

	return exitOK
}

// loadImages 라벨별 이미지 파일을 지정한 순서대로 디코딩합니다.
func loadImages(opts runOptions) (map[string][]*media.Image, error) {
	if len(opts.images) == 0 {
		return nil, nil
	}

	images := make(map[string][]*media.Image, len(opts.images))
	for _, label := range opts.imageLabels {
		for _, path := range opts.images[label] {
			img, err := decodeImageFile(path)
			if err != nil {
				return nil, err
			}
			images[label] = append(images[label], img)
		}
	}

	return images, nil
}

func decodeImageFile(path string) (*media.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.NotFound, fmt.Sprintf("입력 이미지 파일을 열 수 없습니다: '%s'", path))
	}
	defer f.Close()

	img, err := media.DecodeImage(f)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Validation, fmt.Sprintf("입력 이미지를 디코딩할 수 없습니다: '%s'", path))
	}
	return img, nil
}
