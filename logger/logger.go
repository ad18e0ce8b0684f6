package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/op/go-logging"
)

const (
	moduleName    = "tunnel-panel"
	maxBufferSize = 500
)

type entry struct {
	time  time.Time
	level logging.Level
	msg   string
}

var (
	logger *logging.Logger

	bufMu     sync.Mutex
	logBuffer []entry
)

func init() {
	InitLogger(logging.INFO)
}

func InitLogger(level logging.Level) {
	newLogger := logging.MustGetLogger(moduleName)
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(`%{time:2006/01/02 15:04:05} %{level} - %{message}`)

	backendFormatter := logging.NewBackendFormatter(backend, format)
	backendLeveled := logging.AddModuleLevel(backendFormatter)
	backendLeveled.SetLevel(level, moduleName)
	newLogger.SetBackend(backendLeveled)

	logger = newLogger
}

func Debug(args ...interface{}) {
	logger.Debug(args...)
	addToBuffer(logging.DEBUG, fmt.Sprint(args...))
}

func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
	addToBuffer(logging.DEBUG, fmt.Sprintf(format, args...))
}

func Info(args ...interface{}) {
	logger.Info(args...)
	addToBuffer(logging.INFO, fmt.Sprint(args...))
}

func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
	addToBuffer(logging.INFO, fmt.Sprintf(format, args...))
}

func Warning(args ...interface{}) {
	logger.Warning(args...)
	addToBuffer(logging.WARNING, fmt.Sprint(args...))
}

func Warningf(format string, args ...interface{}) {
	logger.Warningf(format, args...)
	addToBuffer(logging.WARNING, fmt.Sprintf(format, args...))
}

func Error(args ...interface{}) {
	logger.Error(args...)
	addToBuffer(logging.ERROR, fmt.Sprint(args...))
}

func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
	addToBuffer(logging.ERROR, fmt.Sprintf(format, args...))
}

func addToBuffer(level logging.Level, newLog string) {
	bufMu.Lock()
	defer bufMu.Unlock()
	if len(logBuffer) >= maxBufferSize {
		logBuffer = logBuffer[1:]
	}
	logBuffer = append(logBuffer, entry{
		time:  time.Now(),
		level: level,
		msg:   newLog,
	})
}

// GetLogs returns up to c of the newest buffered lines at or above the given
// level, newest first.
func GetLogs(c int, level string) []string {
	if strings.EqualFold(level, "warn") {
		level = "warning"
	}
	minLevel, err := logging.LogLevel(level)
	if err != nil {
		minLevel = logging.DEBUG
	}

	bufMu.Lock()
	defer bufMu.Unlock()
	var output []string
	for i := len(logBuffer) - 1; i >= 0 && len(output) < c; i-- {
		e := logBuffer[i]
		// go-logging orders levels from CRITICAL (0) to DEBUG (5).
		if e.level <= minLevel {
			output = append(output, fmt.Sprintf("%s %s - %s", e.time.Format("2006/01/02 15:04:05"), e.level.String(), e.msg))
		}
	}
	return output
}
