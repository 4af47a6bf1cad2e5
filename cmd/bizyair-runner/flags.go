package main

import (
	"io"
	"strings"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
	"github.com/spf13/pflag"
)

// 종료 코드
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// defaultCLINodeID run 명령의 진행률 이벤트에 사용하는 노드 ID입니다.
const defaultCLINodeID = "cli"

type serveOptions struct {
	configPath string
}

type runOptions struct {
	configPath string

	app    string
	inputs string
	nodeID string

	// images 라벨별 입력 이미지 파일 경로입니다. 같은 라벨을 반복하면 배치가 됩니다.
	images map[string][]string
	values map[string]any

	// imageLabels 라벨이 처음 등장한 순서입니다.
	imageLabels []string
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	return fs
}

func parseServeOptions(args []string) (serveOptions, error) {
	var opts serveOptions

	fs := newFlagSet("serve")
	fs.StringVarP(&opts.configPath, "config", "c", "", "설정 파일 경로")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, apperrors.Newf(apperrors.Validation, "알 수 없는 인자입니다: %s", strings.Join(fs.Args(), " "))
	}

	return opts, nil
}

func parseRunOptions(args []string) (runOptions, error) {
	opts := runOptions{
		images: make(map[string][]string),
		values: make(map[string]any),
	}

	var images, values []string

	fs := newFlagSet("run")
	fs.StringVarP(&opts.configPath, "config", "c", "", "설정 파일 경로")
	fs.StringVarP(&opts.app, "app", "a", "", "실행할 앱 이름 또는 ID")
	fs.StringVarP(&opts.inputs, "inputs", "i", "", "입력값 JSON (web_app_id, _port_map 포함)")
	fs.StringVarP(&opts.nodeID, "node", "n", defaultCLINodeID, "진행률 이벤트에 사용할 노드 ID")
	fs.StringArrayVar(&images, "image", nil, "입력 이미지 (label=path, 반복 가능)")
	fs.StringArrayVar(&values, "value", nil, "일반 입력값 (label=value, 반복 가능)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, apperrors.Newf(apperrors.Validation, "알 수 없는 인자입니다: %s", strings.Join(fs.Args(), " "))
	}
	if opts.app == "" {
		return opts, apperrors.New(apperrors.Validation, "--app은 필수입니다")
	}

	for _, kv := range images {
		label, path, err := splitLabel(kv, "--image")
		if err != nil {
			return opts, err
		}
		if _, ok := opts.images[label]; !ok {
			opts.imageLabels = append(opts.imageLabels, label)
		}
		opts.images[label] = append(opts.images[label], path)
	}

	for _, kv := range values {
		label, value, err := splitLabel(kv, "--value")
		if err != nil {
			return opts, err
		}
		opts.values[label] = value
	}

	return opts, nil
}

func splitLabel(kv, flagName string) (string, string, error) {
	label, value, ok := strings.Cut(kv, "=")
	label = strings.TrimSpace(label)
	if !ok || label == "" || value == "" {
		return "", "", apperrors.Newf(apperrors.Validation, "%s 값은 label=value 형식이어야 합니다: %q", flagName, kv)
	}
	return label, value, nil
}
