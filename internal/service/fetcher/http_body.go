package fetcher

import (
	"io"
)

// maxDrainBytes 커넥션 재사용을 위해 버릴 최대 바이트 수 (64KB)
const maxDrainBytes = 64 * 1024

// drainAndCloseBody 커넥션이 Keep-Alive 풀로 돌아갈 수 있도록 Body를 일정량 비운 뒤 닫습니다.
// maxDrainBytes를 넘는 응답의 커넥션은 재사용되지 않습니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	defer body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
}
