package webapp

import (
	"context"
	"net/http"
	"time"

	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

const cancellerComponent = "webapp.canceller"

// stopSignal 원격 작업을 멈추는 요청 하나입니다.
type stopSignal struct {
	name   string
	method string
	path   string
}

var (
	signalInterrupt = stopSignal{name: "Interrupt", method: http.MethodPut, path: pathTaskStop}
	signalCancel    = stopSignal{name: "Cancel", method: http.MethodDelete, path: pathTaskCancel}
)

// Canceller 원격 작업에 중단 신호를 보냅니다. 실패는 기록만 하고 호출자에게 전파하지 않습니다.
type Canceller struct {
	api     *apiClient
	timeout time.Duration
}

func newCanceller(api *apiClient, timeout time.Duration) *Canceller {
	return &Canceller{
		api:     api,
		timeout: timeout,
	}
}

// signalOrder 실행 중인 작업은 interrupt를, 그 외에는 cancel을 먼저 보냅니다.
func signalOrder(lastKnown Status) (primary, fallback stopSignal) {
	if lastKnown == StatusRunning {
		return signalInterrupt, signalCancel
	}
	return signalCancel, signalInterrupt
}

// Cancel 마지막으로 확인된 상태에 맞는 중단 신호를 보내고, 404이면 다른 신호를 한 번 더 보냅니다.
//
// 호출자의 ctx가 이미 취소된 상태일 수 있으므로 요청은 ctx의 취소와 분리하여 보냅니다.
func (c *Canceller) Cancel(ctx context.Context, requestID, apiKey string, lastKnown Status) {
	if requestID == "" {
		return
	}

	primary, fallback := signalOrder(lastKnown)

	applog.WithComponentAndFields(cancellerComponent, applog.Fields{
		"request_id": requestID,
		"status":     lastKnown,
		"signal":     primary.name,
	}).Info("작업 중단 요청을 전송합니다")

	statusCode, ok := c.send(ctx, primary, requestID, apiKey)
	if !ok {
		return
	}

	switch statusCode {
	case http.StatusNotFound:
		applog.WithComponentAndFields(cancellerComponent, applog.Fields{
			"request_id": requestID,
			"signal":     primary.name,
			"fallback":   fallback.name,
		}).Info("중단 요청이 404를 반환하여 대체 신호를 전송합니다")

		c.send(ctx, fallback, requestID, apiKey)

	case http.StatusOK, http.StatusNoContent:
		applog.WithComponentAndFields(cancellerComponent, applog.Fields{
			"request_id": requestID,
			"signal":     primary.name,
		}).Info("작업 중단 신호 전송 완료")
	}
}

func (c *Canceller) send(ctx context.Context, sig stopSignal, requestID, apiKey string) (int, bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	resp, err := c.api.call(ctx, sig.method, sig.path, requestIDQuery(requestID), bearerHeader(apiKey), nil)
	if err != nil {
		applog.WithComponentAndFields(cancellerComponent, applog.Fields{
			"request_id": requestID,
			"signal":     sig.name,
			"error":      err,
		}).Warn("작업 중단 요청 전송 실패")

		return 0, false
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		applog.WithComponentAndFields(cancellerComponent, applog.Fields{
			"request_id":  requestID,
			"signal":      sig.name,
			"status_code": resp.StatusCode,
		}).Warn("작업 중단 요청이 예상하지 못한 응답을 받았습니다")
	}

	return resp.StatusCode, true
}
