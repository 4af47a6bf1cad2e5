package api

import (
	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
)

var (
	// ErrServiceAlreadyStarted 이미 실행 중인 서비스를 다시 시작하려 할 때 반환하는 에러입니다.
	ErrServiceAlreadyStarted = apperrors.New(apperrors.Internal, "API 서비스가 이미 실행 중입니다")
)
