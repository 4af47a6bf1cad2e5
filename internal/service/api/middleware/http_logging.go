package middleware

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/service/api/constants"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/labstack/echo/v4"
)

// defaultBytesIn Content-Length 헤더가 없을 때(Chunked 전송 등) bytes_in 필드에 기록할 값입니다.
const defaultBytesIn = "0"

// sensitiveQueryParams 로그에 남기기 전에 값을 마스킹할 쿼리 파라미터 목록입니다 (대소문자 무시).
var sensitiveQueryParams = []string{
	"api_key",
	"key",
	"token",
	"secret",
	"password",
}

// HTTPLogger HTTP 요청/응답을 구조화된 로그로 기록하는 미들웨어를 반환합니다.
//
// 요청(IP, 메서드, URI, User-Agent), 응답(상태 코드, 크기, Request ID), 처리 시간을 기록하며
// 민감한 쿼리 파라미터는 마스킹합니다.
func HTTPLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			// 패닉이 발생해도 로그가 남도록 defer로 기록합니다.
			defer func() {
				latency := time.Since(start)

				path := req.URL.Path
				if path == "" {
					path = "/"
				}

				bytesIn := req.Header.Get(echo.HeaderContentLength)
				if bytesIn == "" {
					bytesIn = defaultBytesIn
				}

				applog.WithComponentAndFields(constants.ComponentMiddlewareHTTPLogger, applog.Fields{
					"method":   req.Method,
					"path":     path,
					"uri":      maskSensitiveQueryParams(req.RequestURI),
					"host":     req.Host,
					"protocol": req.Proto,

					"remote_ip":  c.RealIP(),
					"user_agent": req.UserAgent(),

					"status":    res.Status,
					"bytes_in":  bytesIn,
					"bytes_out": strconv.FormatInt(res.Size, 10),

					"latency":       strconv.FormatInt(latency.Microseconds(), 10),
					"latency_human": latency.String(),

					"request_id": res.Header().Get(echo.HeaderXRequestID),
				}).Info(constants.LogMsgHTTPRequest)
			}()

			// 에러를 여기서 에러 핸들러로 넘겨야 로그의 상태 코드가 실제 응답과 일치합니다.
			if err := next(c); err != nil {
				c.Error(err)
			}

			return nil
		}
	}
}

// maskSensitiveQueryParams URI의 민감한 쿼리 파라미터 값을 마스킹합니다. 파싱에 실패하면 원본을 반환합니다.
//
//	"/bizyair_webapp/run?api_key=sk-1234567890abcdef&id=1" → "/bizyair_webapp/run?api_key=sk-1%2A%2A%2Acdef&id=1"
func maskSensitiveQueryParams(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}

	q := u.Query()
	masked := false
	for key, values := range q {
		if !isSensitiveParam(key) {
			continue
		}
		for i, v := range values {
			values[i] = applog.MaskSensitiveData(v)
		}
		masked = true
	}

	if !masked {
		return uri
	}

	u.RawQuery = q.Encode()
	return u.String()
}

func isSensitiveParam(key string) bool {
	for _, p := range sensitiveQueryParams {
		if strings.EqualFold(key, p) {
			return true
		}
	}
	return false
}
