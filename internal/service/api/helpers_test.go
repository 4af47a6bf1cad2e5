package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/darkkaiser/bizyair-runner/internal/pkg/version"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/handler/system"
	"github.com/darkkaiser/bizyair-runner/internal/service/api/handler/webapp"
	"github.com/darkkaiser/bizyair-runner/internal/service/interrupt"
	"github.com/darkkaiser/bizyair-runner/internal/service/license"
	svcwebapp "github.com/darkkaiser/bizyair-runner/internal/service/webapp"
	"github.com/labstack/echo/v4"
)

type fakeRunner struct{}

func (fakeRunner) Run(context.Context, svcwebapp.RunRequest) (*svcwebapp.RunResult, error) {
	return &svcwebapp.RunResult{
		RequestID: "rid-1",
		WebAppID:  42,
		Outputs:   []svcwebapp.Result{&svcwebapp.VideoResult{Path: "/tmp/out/a.mp4"}},
	}, nil
}

func (fakeRunner) OutputDir() string { return "/tmp/out" }

type fakeAPIKeys string

func (f fakeAPIKeys) APIKey() (string, bool) { return string(f), f != "" }

type fakeLicense struct{}

func (fakeLicense) IsActivated() bool               { return false }
func (fakeLicense) CheckDailyLimit() (bool, string) { return true, "" }
func (fakeLicense) IncrementUsage() error           { return nil }
func (fakeLicense) Activate(key string) (bool, error) {
	return key == "VALID", nil
}
func (fakeLicense) Info() license.Info {
	return license.Info{MachineID: "m-1", StatusMsg: "未激活 (Pro 功能不可用)", Allowed: true}
}

type fakeCatalog []string

func (f fakeCatalog) DefaultApps() []string { return f }

func newTestDependencies() Dependencies {
	return Dependencies{
		Runner:     fakeRunner{},
		APIKeys:    fakeAPIKeys("sk-test"),
		Interrupts: interrupt.NewRegistry(),
		License:    fakeLicense{},
		Catalog:    fakeCatalog{"42"},
		BuildInfo:  version.Info{Version: "1.0.0", Commit: "abc1234"},
	}
}

// newTestEcho 미들웨어 체인과 모든 라우트가 등록된 Echo 인스턴스를 생성합니다.
func newTestEcho(t *testing.T, cfg HTTPServerConfig) *echo.Echo {
	t.Helper()

	deps := newTestDependencies()
	e := NewHTTPServer(cfg)
	RegisterRoutes(e,
		system.NewHandler(deps.APIKeys, deps.License, deps.BuildInfo),
		webapp.NewHandler(webapp.Dependencies{
			Runner:     deps.Runner,
			APIKeys:    deps.APIKeys,
			Interrupts: deps.Interrupts,
			Licenses:   deps.License,
			Catalog:    deps.Catalog,
		}),
	)
	return e
}

func serve(e *echo.Echo, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
