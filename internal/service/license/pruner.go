package license

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/bizyair-runner/pkg/cronx"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/robfig/cron/v3"
)

const prunerComponent = "license.pruner"

const (
	// DefaultPruneSchedule 사용 기록 정리 작업의 기본 실행 주기입니다.
	DefaultPruneSchedule = "@daily"

	// DefaultUsageRetention 사용 기록 보존 기간입니다.
	DefaultUsageRetention = 30 * 24 * time.Hour
)

// Pruner 주기적으로 오래된 라이선스 사용 기록을 정리하는 서비스입니다.
type Pruner struct {
	manager   *Manager
	schedule  string
	retention time.Duration

	cron *cron.Cron

	running   bool
	runningMu sync.Mutex
}

// NewPruner 새로운 Pruner를 생성합니다. schedule이 비어있으면 DefaultPruneSchedule을 사용합니다.
func NewPruner(manager *Manager, schedule string, retention time.Duration) *Pruner {
	if manager == nil {
		panic("license.Manager는 필수입니다")
	}
	if schedule == "" {
		schedule = DefaultPruneSchedule
	}
	if retention <= 0 {
		retention = DefaultUsageRetention
	}

	return &Pruner{
		manager:   manager,
		schedule:  schedule,
		retention: retention,
	}
}

// Start Cron 엔진에 정리 작업을 등록하고 시작합니다.
func (p *Pruner) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()

	if p.running {
		serviceStopWG.Done()
		applog.WithComponent(prunerComponent).Warn("사용 기록 정리 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	c := cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
		),
	)

	if _, err := c.AddFunc(p.schedule, p.runOnce); err != nil {
		serviceStopWG.Done()
		return newErrInvalidSchedule(err, p.schedule)
	}

	p.cron = c
	p.cron.Start()
	p.running = true

	applog.WithComponentAndFields(prunerComponent, applog.Fields{
		"schedule":  p.schedule,
		"retention": p.retention.String(),
	}).Info("서비스 시작 완료: 라이선스 사용 기록 정리 작업이 등록되었습니다")

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		p.stop()
	}()

	return nil
}

func (p *Pruner) stop() {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()

	if !p.running {
		return
	}

	<-p.cron.Stop().Done()
	p.cron = nil
	p.running = false

	applog.WithComponent(prunerComponent).Info("라이선스 사용 기록 정리 서비스 종료 완료")
}

func (p *Pruner) runOnce() {
	if _, err := p.manager.PruneUsage(p.retention); err != nil {
		applog.WithComponentAndFields(prunerComponent, applog.Fields{
			"error": err,
		}).Error("라이선스 사용 기록 정리 실패")
	}
}
