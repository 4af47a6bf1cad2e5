package middleware

import (
	"io"

	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/labstack/gommon/log"
)

// echoComponent Echo 내부 로그의 컴포넌트 이름입니다.
const echoComponent = "api.echo"

// Logger Echo 내부 로그(gommon/log.Logger)를 애플리케이션 로거로 보내는 어댑터입니다.
//
// 모든 로그에 api.echo 컴포넌트 필드를 붙여 애플리케이션 로그와 구분합니다.
type Logger struct {
	*applog.Logger
}

func (l Logger) entry() *applog.Entry {
	return l.Logger.WithField("component", echoComponent)
}

func (l Logger) entryj(j log.JSON) *applog.Entry {
	return l.entry().WithFields(applog.Fields(j))
}

// Output 현재 출력 Writer를 반환합니다.
func (l Logger) Output() io.Writer {
	return l.Logger.Out
}

func (l Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

func (l Logger) Prefix() string {
	return ""
}

func (l Logger) SetPrefix(string) {}

func (l Logger) SetHeader(string) {}

// Level 애플리케이션 로그 레벨을 Echo 로그 레벨로 변환합니다. 대응하는 레벨이 없으면 OFF입니다.
func (l Logger) Level() log.Lvl {
	switch l.Logger.Level {
	case applog.TraceLevel, applog.DebugLevel:
		return log.DEBUG
	case applog.InfoLevel:
		return log.INFO
	case applog.WarnLevel:
		return log.WARN
	case applog.ErrorLevel:
		return log.ERROR
	default:
		return log.OFF
	}
}

// SetLevel Echo 로그 레벨을 애플리케이션 로그 레벨로 변환하여 설정합니다. OFF는 무시합니다.
func (l Logger) SetLevel(lvl log.Lvl) {
	switch lvl {
	case log.DEBUG:
		l.Logger.SetLevel(applog.DebugLevel)
	case log.INFO:
		l.Logger.SetLevel(applog.InfoLevel)
	case log.WARN:
		l.Logger.SetLevel(applog.WarnLevel)
	case log.ERROR:
		l.Logger.SetLevel(applog.ErrorLevel)
	}
}

func (l Logger) Print(i ...any)                 { l.entry().Print(i...) }
func (l Logger) Printf(format string, a ...any) { l.entry().Printf(format, a...) }
func (l Logger) Printj(j log.JSON)              { l.entryj(j).Print() }
func (l Logger) Debug(i ...any)                 { l.entry().Debug(i...) }
func (l Logger) Debugf(format string, a ...any) { l.entry().Debugf(format, a...) }
func (l Logger) Debugj(j log.JSON)              { l.entryj(j).Debug() }
func (l Logger) Info(i ...any)                  { l.entry().Info(i...) }
func (l Logger) Infof(format string, a ...any)  { l.entry().Infof(format, a...) }
func (l Logger) Infoj(j log.JSON)               { l.entryj(j).Info() }
func (l Logger) Warn(i ...any)                  { l.entry().Warn(i...) }
func (l Logger) Warnf(format string, a ...any)  { l.entry().Warnf(format, a...) }
func (l Logger) Warnj(j log.JSON)               { l.entryj(j).Warn() }
func (l Logger) Error(i ...any)                 { l.entry().Error(i...) }
func (l Logger) Errorf(format string, a ...any) { l.entry().Errorf(format, a...) }
func (l Logger) Errorj(j log.JSON)              { l.entryj(j).Error() }
func (l Logger) Fatal(i ...any)                 { l.entry().Fatal(i...) }
func (l Logger) Fatalf(format string, a ...any) { l.entry().Fatalf(format, a...) }
func (l Logger) Fatalj(j log.JSON)              { l.entryj(j).Fatal() }
func (l Logger) Panic(i ...any)                 { l.entry().Panic(i...) }
func (l Logger) Panicf(format string, a ...any) { l.entry().Panicf(format, a...) }
func (l Logger) Panicj(j log.JSON)              { l.entryj(j).Panic() }
