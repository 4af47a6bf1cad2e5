package progress

import (
	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
)

var (
	// ErrHubClosed 종료된 Hub에 새 WebSocket 연결을 등록하려고 할 때 반환됩니다.
	ErrHubClosed = apperrors.New(apperrors.Unavailable, "진행률 브로드캐스트 Hub가 종료되어 새 연결을 받을 수 없습니다")

	// ErrSinkPanicked Sink 실행 중 패닉이 발생하여 복구되었을 때 기록됩니다.
	ErrSinkPanicked = apperrors.New(apperrors.Internal, "진행률 Sink 실행 중 패닉이 발생했습니다")
)

// ErrDispatcherClosed 이미 종료된 Dispatcher를 다시 시작하려고 할 때 반환됩니다.
var ErrDispatcherClosed = apperrors.New(apperrors.Internal, "진행률 Dispatcher가 이미 종료되었습니다")
