package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// logNode is prepended to every line once set, so the output of several
// servers sharing a terminal or a log collector can be told apart.
var logNode atomic.Pointer[string]

// SetLogNode sets the node tag printed in every log line. An empty tag removes it.
func SetLogNode(tag string) {
	logNode.Store(&tag)
}

func nodeTag() string {
	if tag := logNode.Load(); tag != nil {
		return *tag
	}
	return ""
}

// metaLogger implements the ILogger interface with custom formatting.
// The level is atomic because InitLoggers may change it while other
// goroutines log.
type metaLogger struct {
	name   string
	level  atomic.Int32
	logger *log.Logger
}

func newMetaLogger(name string, out io.Writer) *metaLogger {
	l := &metaLogger{
		name:   name,
		logger: log.New(out, "", log.Ldate|log.Ltime),
	}
	l.level.Store(int32(logger.INFO))
	return l
}

func (l *metaLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *metaLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) >= level
}

func (l *metaLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.log("DEBUG", format, args...)
	}
}

func (l *metaLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.log("INFO", format, args...)
	}
}

func (l *metaLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.log("WARN", format, args...)
	}
}

func (l *metaLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.log("ERROR", format, args...)
	}
}

func (l *metaLogger) Panicf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.log("PANIC", "%s", message)
	panic(message)
}

// log writes one line as "LEVEL | [node |] package | message"
func (l *metaLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if tag := nodeTag(); tag != "" {
		l.logger.Printf("%-5s | %s | %-15s | %s", levelStr, tag, l.name, message)
		return
	}
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger implements dragonboat's logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return newMetaLogger(pkgName, os.Stdout)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// dragonboat internals
var raftLoggers = []string{"raft", "raftdb", "rsm", "transport", "dragonboat", "grpc", "util", "logdb"}

// our own packages
var appLoggers = []string{"statemachine", "store", "lockmgr", "rpc", "transport/rpc"}

// dragonboat allows the factory to be set only once per process
var factoryOnce sync.Once

// InitLoggers installs the custom logger factory and sets the level of all
// known loggers. It may be called any number of times; only the levels change
// after the first call.
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})

	for _, name := range raftLoggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	for _, name := range appLoggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
