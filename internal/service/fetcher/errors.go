package fetcher

import (
	"fmt"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
)

func newErrInvalidRequest(err error, url string) error {
	return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("HTTP 요청 객체를 생성할 수 없습니다 (URL: %s)", url))
}

func newErrResponseBodyTooLarge(limit int64) error {
	return apperrors.New(apperrors.Unavailable, fmt.Sprintf("응답 본문의 크기가 허용 한도(%d 바이트)를 초과했습니다", limit))
}

func newErrResponseBodyTooLargeByContentLength(contentLength, limit int64) error {
	return apperrors.New(apperrors.Unavailable, fmt.Sprintf("응답 본문의 크기(Content-Length: %d)가 허용 한도(%d 바이트)를 초과했습니다", contentLength, limit))
}

func newErrGetBodyFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "재시도를 위한 요청 본문 재생성에 실패했습니다")
}

func newErrRetryAfterExceeded(retryAfter, maxDelay string) error {
	return apperrors.New(apperrors.Unavailable, fmt.Sprintf("서버가 요구한 재시도 대기 시간(%s)이 허용 최대값(%s)을 초과하여 요청을 중단합니다", retryAfter, maxDelay))
}
