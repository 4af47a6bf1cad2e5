package webapp

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
)

const appInfoComponent = "webapp.appinfo"

var (
	// restrictedNameKeywords 이름에 포함되면 Pro 앱으로 분류하는 키워드입니다.
	restrictedNameKeywords = []string{"video", "视频", "audio", "音频"}

	// restrictedNodeTypes 입력 노드 타입에 포함되면 Pro 앱으로 분류하는 키워드입니다.
	restrictedNodeTypes = []string{"loadvideo", "loadaudio"}
)

// AppInfo 웹앱 상세 정보 중 Pro 분류에 필요한 부분입니다.
type AppInfo struct {
	ID             int
	Name           string
	InputNodeTypes []string
}

// Restricted 오디오나 비디오를 다루는 Pro 앱인지 판단합니다.
func (a *AppInfo) Restricted() bool {
	fold := cases.Fold()

	name := fold.String(a.Name)
	for _, kw := range restrictedNameKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}

	for _, nodeType := range a.InputNodeTypes {
		t := fold.String(nodeType)
		for _, kw := range restrictedNodeTypes {
			if strings.Contains(t, kw) {
				return true
			}
		}
	}

	return false
}

// AppResolver 웹앱 상세 정보를 조회하고 만료 시간이 있는 LRU 캐시에 보관합니다.
type AppResolver struct {
	api     *apiClient
	timeout time.Duration
	cache   *expirable.LRU[int, *AppInfo]
}

func newAppResolver(api *apiClient, timeout time.Duration, size int, ttl time.Duration) *AppResolver {
	return &AppResolver{
		api:     api,
		timeout: timeout,
		cache:   expirable.NewLRU[int, *AppInfo](size, nil, ttl),
	}
}

// Lookup 웹앱 상세 정보를 반환합니다. 조회에 실패하면 false를 반환하며 실패한 결과는 캐시하지 않습니다.
func (r *AppResolver) Lookup(ctx context.Context, webAppID int, apiKey string) (*AppInfo, bool) {
	if info, ok := r.cache.Get(webAppID); ok {
		return info, true
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fields := applog.Fields{"web_app_id": webAppID}

	resp, err := r.api.call(ctx, http.MethodGet, pathWebAppInfo+strconv.Itoa(webAppID), nil, bearerHeader(apiKey), nil)
	if err != nil {
		fields["error"] = err
		applog.WithComponentAndFields(appInfoComponent, fields).Warn("웹앱 정보 조회 실패: 일반 앱으로 처리합니다")
		return nil, false
	}
	if resp.StatusCode != http.StatusOK || !gjson.ValidBytes(resp.Body) {
		fields["status_code"] = resp.StatusCode
		applog.WithComponentAndFields(appInfoComponent, fields).Warn("웹앱 정보 조회 실패: 일반 앱으로 처리합니다")
		return nil, false
	}

	data := gjson.GetBytes(resp.Body, "data")
	info := &AppInfo{
		ID:   webAppID,
		Name: data.Get("name").String(),
	}
	data.Get("input_nodes").ForEach(func(_, node gjson.Result) bool {
		info.InputNodeTypes = append(info.InputNodeTypes, node.Get("node_type").String())
		return true
	})

	r.cache.Add(webAppID, info)

	return info, true
}

// IsRestricted 웹앱이 Pro 앱인지 확인합니다. 정보를 조회할 수 없으면 일반 앱으로 취급합니다.
func (r *AppResolver) IsRestricted(ctx context.Context, webAppID int, apiKey string) bool {
	info, ok := r.Lookup(ctx, webAppID, apiKey)
	if !ok {
		return false
	}
	return info.Restricted()
}
