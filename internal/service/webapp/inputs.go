package webapp

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

const inputsComponent = "webapp.inputs"

// portMapKey 입력값 JSON 안에서 노드 입력 라벨 → 웹앱 변수명 매핑을 담는 키입니다.
const portMapKey = "_port_map"

// webAppIDKey 입력값 JSON 안의 웹앱 식별자 키입니다.
const webAppIDKey = "web_app_id"

// ParseInputValues 노드의 입력값 JSON을 해석하여 입력값과 포트 매핑을 분리합니다.
//
// JSON이 비어있거나 해석할 수 없으면 두 맵 모두 비어있는 상태로 반환합니다.
// 숫자는 원래 표기를 유지하도록 json.Number로 보존합니다.
func ParseInputValues(raw string) (map[string]any, map[string]string) {
	values := map[string]any{}
	portMap := map[string]string{}

	if strings.TrimSpace(raw) == "" {
		return values, portMap
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var parsed map[string]any
	if err := dec.Decode(&parsed); err != nil || parsed == nil {
		applog.WithComponentAndFields(inputsComponent, applog.Fields{
			"error": err,
		}).Warn("입력값 JSON을 해석할 수 없어 빈 입력값으로 진행합니다")

		return values, portMap
	}

	if m, ok := parsed[portMapKey].(map[string]any); ok {
		for label, v := range m {
			if name, ok := v.(string); ok && name != "" {
				portMap[label] = name
			}
		}
	}
	delete(parsed, portMapKey)

	return parsed, portMap
}

// parseWebAppID 입력값의 web_app_id를 정수로 변환합니다. 없거나 0이면 ErrMissingWebAppID를 반환합니다.
func parseWebAppID(values map[string]any) (int, error) {
	raw, ok := values[webAppIDKey]
	if !ok || raw == nil {
		return 0, ErrMissingWebAppID
	}

	var id int64
	var err error
	switch v := raw.(type) {
	case json.Number:
		if id, err = v.Int64(); err != nil {
			f, ferr := v.Float64()
			if ferr != nil || f != float64(int64(f)) {
				return 0, newErrInvalidWebAppID(raw)
			}
			id, err = int64(f), nil
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, ErrMissingWebAppID
		}
		id, err = strconv.ParseInt(s, 10, 64)
	case float64:
		id = int64(v)
		if float64(id) != v {
			return 0, newErrInvalidWebAppID(raw)
		}
	case int:
		id = int64(v)
	case bool:
		if !v {
			return 0, ErrMissingWebAppID
		}
		return 0, newErrInvalidWebAppID(raw)
	default:
		return 0, newErrInvalidWebAppID(raw)
	}

	if err != nil {
		return 0, newErrInvalidWebAppID(raw)
	}
	if id == 0 {
		return 0, ErrMissingWebAppID
	}

	return int(id), nil
}
