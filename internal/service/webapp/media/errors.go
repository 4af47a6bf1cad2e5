package media

import (
	"errors"
	"fmt"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
)

// ErrEmptyImage 디코딩한 이미지의 크기가 0일 때 반환됩니다.
var ErrEmptyImage = apperrors.New(apperrors.Decode, "이미지 크기가 0입니다")

func newErrUnsupportedCodec(ext string) error {
	return apperrors.New(apperrors.Decode, fmt.Sprintf("지원하지 않는 오디오 코덱입니다: '%s'", ext))
}

func newErrDecodeFailed(err error, kind string) error {
	return apperrors.Wrapf(err, apperrors.Decode, "%s 디코딩에 실패했습니다", kind)
}

func newErrTooManySamples(kind string, samples uint64) error {
	return apperrors.Newf(apperrors.Decode, "%s 샘플 수가 허용 범위를 넘었습니다 (%d > %d)", kind, samples, uint64(maxAudioSamples))
}

// recoverDecodePanic 디코더 내부의 패닉을 Decode 에러로 바꿉니다. defer로 직접 호출해야 합니다.
func recoverDecodePanic(kind string, err *error) {
	p := recover()
	if p == nil {
		return
	}

	cause, ok := p.(error)
	if !ok {
		cause = errors.New(fmt.Sprint(p))
	}
	*err = apperrors.Wrapf(cause, apperrors.Decode, "%s 디코딩 중 패닉이 발생했습니다", kind)
}

func newErrInvalidImageShape(height, width, channels, pixels int) error {
	return apperrors.New(apperrors.Validation, fmt.Sprintf("이미지 텐서 형상이 올바르지 않습니다 (H=%d, W=%d, C=%d, 값 개수=%d)", height, width, channels, pixels))
}
