package log

import "path/filepath"

// DefaultLogDir and LogFile describe where the adaptive seelog receiver
// writes when no override configuration is supplied to New.
const (
	DefaultLogDir = "/var/log/backgroundworker"
	LogFile       = "scheduler.log"
	ErrorFile     = "scheduler-error.log"
)

func defaultConfig() []byte {
	return loadLog(DefaultLogDir, LogFile)
}

func loadLog(logDir, logFile string) []byte {
	logFilePath := filepath.Join(logDir, logFile)
	errorFilePath := filepath.Join(logDir, ErrorFile)

	cfg := `
<seelog type="adaptive" mininterval="2000000" maxinterval="100000000" critmsgcount="500" minlevel="debug">
    <exceptions>
        <exception filepattern="test*" minlevel="error"/>
    </exceptions>
    <outputs formatid="all">
        <console formatid="all"/>
        `
	cfg += `<file path="` + logFilePath + `"/>`
	cfg += `
        <filter levels="error,critical" formatid="fmterror">
        `
	cfg += `<file path="` + errorFilePath + `"/>`
	cfg += `
        </filter>
    </outputs>
    <formats>
        <format id="fmterror" format="%Date %Time %LEVEL [%FuncShort @ %File.%Line] %Msg%n"/>
        <format id="all" format="%Date %Time %LEVEL [%FuncShort @ %File.%Line] %Msg%n"/>
    </formats>
</seelog>
`
	return []byte(cfg)
}
