package webapp

// progressCeiling 종료 상태가 아닐 때 보고할 수 있는 진행률의 상한입니다.
const progressCeiling = 0.99

// ProgressSettings 서버 진행률이 없을 때 사용하는 추정 진행률 상수입니다.
type ProgressSettings struct {
	SimulatedStart float64
	SimulatedStep  float64
	SimulatedCap   float64
	QueuingFloor   float64
	PreparingFloor float64
}

// progressEstimator 폴링 결과로부터 보고할 진행률을 계산합니다.
//
// 보고 값은 한 번의 실행 안에서 감소하지 않으며, 종료 상태 전에는 1에 도달하지 않습니다.
type progressEstimator struct {
	settings  ProgressSettings
	simulated float64
	reported  float64
}

func newProgressEstimator(s ProgressSettings) *progressEstimator {
	return &progressEstimator{
		settings:  s,
		simulated: s.SimulatedStart,
	}
}

// next 이번 상태 조회 결과에 대한 진행률을 반환합니다.
func (e *progressEstimator) next(status Status, serverProgress float64) float64 {
	candidate := e.reported

	switch status {
	case StatusRunning:
		if serverProgress > 0 {
			e.simulated = serverProgress
		} else {
			e.simulated = min(e.simulated+e.settings.SimulatedStep, e.settings.SimulatedCap)
		}
		candidate = e.simulated
	case StatusQueuing:
		candidate = e.settings.QueuingFloor
	case StatusPreparing:
		candidate = e.settings.PreparingFloor
	}

	candidate = min(candidate, progressCeiling)
	if candidate > e.reported {
		e.reported = candidate
	}

	return e.reported
}
