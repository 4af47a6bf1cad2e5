package license

import (
	"fmt"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
)

func newErrStateReadFailed(err error, path string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("라이선스 상태 파일을 읽을 수 없습니다: '%s'", path))
}

func newErrStateSaveFailed(err error, path string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("라이선스 상태 파일 저장에 실패했습니다: '%s'", path))
}

func newErrStateMarshalFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "라이선스 상태 직렬화에 실패했습니다")
}

func newErrInvalidSchedule(err error, schedule string) error {
	return apperrors.Wrap(err, apperrors.Validation, fmt.Sprintf("사용 기록 정리 주기 형식이 올바르지 않습니다: '%s'", schedule))
}
