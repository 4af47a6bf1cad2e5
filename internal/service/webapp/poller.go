package webapp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/tidwall/gjson"
)

const pollerComponent = "webapp.poller"

// PollSettings 상태 조회 주기와 시간 제한입니다.
type PollSettings struct {
	InitialDelay   time.Duration
	Interval       time.Duration
	RequestTimeout time.Duration

	// MaxWait 0이면 서버가 종료 상태를 보고할 때까지 기다립니다.
	MaxWait time.Duration

	Progress ProgressSettings
}

// progressFunc 폴링 중 진행률을 보고하는 콜백입니다.
type progressFunc func(progress float64, status, msg string)

// Poller 작업이 종료 상태가 될 때까지 상태를 조회합니다.
type Poller struct {
	api       *apiClient
	canceller *Canceller
	settings  PollSettings

	now func() time.Time
}

func newPoller(api *apiClient, canceller *Canceller, settings PollSettings) *Poller {
	return &Poller{
		api:       api,
		canceller: canceller,
		settings:  settings,
		now:       time.Now,
	}
}

// Poll 작업이 Success가 되면 마지막 조회 결과를 반환합니다.
//
// 중단 요청, 서버의 실패 또는 취소 보고, 최대 대기 시간 초과로 루프를 벗어날 때는
// 에러를 반환하기 전에 Canceller로 원격 작업 중단을 시도합니다.
// 중단 요청은 매 반복의 시작에서만 확인하며 진행 중인 조회 요청을 끊지 않습니다.
func (p *Poller) Poll(ctx context.Context, handle TaskHandle, apiKey string, interrupt contract.InterruptChecker, report progressFunc) (*PollSnapshot, error) {
	if interrupt == nil {
		interrupt = contract.NeverInterrupted
	}
	if report == nil {
		report = func(float64, string, string) {}
	}

	lastStatus := StatusQueuing
	if handle.InitialStatus != "" {
		lastStatus = handle.InitialStatus
	}
	snap, err := p.loop(ctx, handle, apiKey, interrupt, report, &lastStatus)
	if err != nil {
		p.canceller.Cancel(ctx, handle.RequestID, apiKey, lastStatus)
		return nil, err
	}

	return snap, nil
}

func (p *Poller) loop(ctx context.Context, handle TaskHandle, apiKey string, interrupt contract.InterruptChecker, report progressFunc, lastStatus *Status) (*PollSnapshot, error) {
	estimator := newProgressEstimator(p.settings.Progress)

	sleep(ctx, p.settings.InitialDelay)

	start := p.now()
	var snap *PollSnapshot

	for {
		if ctx.Err() != nil || interrupt.IsInterruptRequested() {
			return nil, newErrInterrupted(handle.RequestID)
		}
		if p.settings.MaxWait > 0 && p.now().Sub(start) >= p.settings.MaxWait {
			return nil, newErrPollTimeout(p.settings.MaxWait)
		}

		sleep(ctx, p.settings.Interval)
		if ctx.Err() != nil {
			return nil, newErrInterrupted(handle.RequestID)
		}

		if next, ok := p.fetch(ctx, handle.RequestID, apiKey); ok {
			snap = next
		}
		if snap == nil {
			snap = &PollSnapshot{Status: *lastStatus}
		}
		*lastStatus = snap.Status

		display := string(snap.Status)
		if snap.Status == StatusRunning {
			elapsed := snap.InferenceCost
			if elapsed == "" {
				elapsed = strconv.Itoa(int(p.now().Sub(start).Seconds()))
			}
			display = fmt.Sprintf("Running (%ss)", elapsed)
		}
		report(estimator.next(snap.Status, snap.Progress), display, snap.ProgressMsg)

		switch {
		case snap.Status == StatusSuccess:
			applog.WithComponentAndFields(pollerComponent, applog.Fields{
				"request_id": handle.RequestID,
				"outputs":    len(snap.Outputs),
				"elapsed":    p.now().Sub(handle.CreatedAt).String(),
			}).Info("클라우드 작업 완료")

			return snap, nil

		case snap.Status.IsFailure():
			return nil, newErrTaskFailed(snap.ErrorMessage())

		case snap.Status == StatusCancelled:
			return nil, ErrCancelledByServer
		}
	}
}

// fetch 상태를 한 번 조회합니다. 전송 실패나 해석할 수 없는 응답이면 false를 반환합니다.
func (p *Poller) fetch(ctx context.Context, requestID, apiKey string) (*PollSnapshot, bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.settings.RequestTimeout)
	defer cancel()

	resp, err := p.api.call(ctx, http.MethodGet, pathTaskDetail, requestIDQuery(requestID), bearerHeader(apiKey), nil)
	if err != nil {
		applog.WithComponentAndFields(pollerComponent, applog.Fields{
			"request_id": requestID,
			"error":      err,
		}).Debug("작업 상태 조회 실패: 다음 주기에 다시 조회합니다")

		return nil, false
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if !gjson.ValidBytes(resp.Body) {
			return nil, false
		}
		return parseSnapshot(unwrapEnvelope(gjson.ParseBytes(resp.Body))), true

	case http.StatusNotFound:
		// 생성 직후에는 작업이 아직 조회되지 않을 수 있습니다.
		return &PollSnapshot{Status: StatusQueuing}, true

	default:
		applog.WithComponentAndFields(pollerComponent, applog.Fields{
			"request_id":  requestID,
			"status_code": resp.StatusCode,
		}).Debug("작업 상태 조회가 예상하지 못한 응답을 받았습니다")

		return nil, false
	}
}

// sleep d만큼 기다립니다. ctx가 취소되면 즉시 반환합니다.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
