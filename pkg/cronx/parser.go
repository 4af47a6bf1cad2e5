// Package cronx robfig/cron 표현식 파싱과 검증을 애플리케이션 표준 형식으로 통일합니다.
package cronx

import (
	"fmt"
	"strings"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
	"github.com/robfig/cron/v3"
)

// StandardParser 초 단위를 포함하는 6필드 형식과 Descriptor(@daily, @every 1h 등)를 지원하는 파서를 반환합니다.
//
//   - 필드 순서: [초] [분] [시] [일] [월] [요일]
//   - "0 0 4 * * *" : 매일 04:00:00
//   - "@daily"      : 매일 자정
func StandardParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Validate 표현식이 StandardParser로 해석 가능한지 검증합니다.
func Validate(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return apperrors.New(apperrors.Validation, "Cron 표현식이 비어있습니다")
	}

	if _, err := StandardParser().Parse(spec); err != nil {
		return apperrors.Wrap(err, apperrors.Validation, fmt.Sprintf("Cron 표현식 형식이 올바르지 않습니다: '%s' (형식: 초 분 시 일 월 요일)", spec))
	}

	return nil
}
