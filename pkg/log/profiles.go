package log

// callerPathPrefix 호출자 경로 축약에 사용하는 모듈 경로입니다.
const callerPathPrefix = "github.com/darkkaiser/bizyair-runner"

// NewProductionOptions 서버(serve) 모드에 맞는 로그 설정을 반환합니다.
func NewProductionOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: InfoLevel,

		MaxAge:     30,
		MaxSizeMB:  100,
		MaxBackups: 20,

		EnableCriticalLog: true,
		EnableVerboseLog:  true,
		EnableConsoleLog:  false,

		ReportCaller:     true,
		CallerPathPrefix: callerPathPrefix,
	}
}

// NewDevelopmentOptions 개발 환경에 맞는 로그 설정을 반환합니다.
func NewDevelopmentOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: TraceLevel,

		MaxAge:     1,
		MaxSizeMB:  50,
		MaxBackups: 5,

		EnableCriticalLog: false,
		EnableVerboseLog:  false,
		EnableConsoleLog:  true,

		ReportCaller:     true,
		CallerPathPrefix: callerPathPrefix,
	}
}

// NewCommandLineOptions 단발성 실행(run) 명령에 맞는 로그 설정을 반환합니다.
// 터미널은 진행률 표시에 사용하므로 콘솔 출력은 끄고 파일에만 기록합니다.
func NewCommandLineOptions(appName string) Options {
	return Options{
		Name:  appName + ".cli",
		Level: InfoLevel,

		MaxAge:     7,
		MaxSizeMB:  20,
		MaxBackups: 3,

		EnableCriticalLog: false,
		EnableVerboseLog:  false,
		EnableConsoleLog:  false,

		ReportCaller:     false,
		CallerPathPrefix: callerPathPrefix,
	}
}
