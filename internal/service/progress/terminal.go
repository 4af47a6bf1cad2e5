package progress

import (
	"io"
	"math"
	"strings"
	"sync"

	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	"github.com/schollz/progressbar/v3"
)

// terminalResolution 진행률 [0, 1]을 표시할 막대의 눈금 수입니다.
const terminalResolution = 1000

// TerminalSink 진행률 이벤트를 터미널 진행률 막대로 그립니다. run 명령에서 사용합니다.
//
// 진행률은 감소하지 않으며, 1.0에 도달하면 막대를 완료 상태로 바꿉니다.
type TerminalSink struct {
	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	current  int
	finished bool
}

// NewTerminalSink w에 진행률 막대를 그리는 TerminalSink를 생성합니다.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{
		bar: progressbar.NewOptions(terminalResolution,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("⏳ Starting..."),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		),
	}
}

func (s *TerminalSink) Deliver(ev contract.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return nil
	}

	s.bar.Describe(describe(ev))

	value := int(math.Round(clamp01(ev.Progress) * terminalResolution))
	if value < s.current {
		value = s.current
	}
	s.current = value

	if value >= terminalResolution {
		s.finished = true
		return s.bar.Finish()
	}

	return s.bar.Set(value)
}

func describe(ev contract.ProgressEvent) string {
	parts := make([]string, 0, 2)
	if ev.Status != "" {
		parts = append(parts, ev.Status)
	}
	if ev.Message != "" && ev.Message != ev.Status {
		parts = append(parts, ev.Message)
	}
	if len(parts) == 0 {
		return "⏳"
	}
	return "⏳ " + strings.Join(parts, " | ")
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
