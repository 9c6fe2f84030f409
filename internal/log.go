package internal

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jeffrom/greedyhisto/config"
)

var logger = logrus.New()

func init() {
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006/01/02 15:04:05.000"})
	logger.SetLevel(logrus.DebugLevel)
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	return logger
}

func getFileLine(distance int) (string, int) {
	_, file, line, ok := runtime.Caller(1 + distance)
	if !ok {
		file = "???"
		line = 0
	}

	parts := strings.Split(file, "/")
	file = parts[len(parts)-1]

	return file, line
}

func withCaller(distance int) *logrus.Entry {
	file, line := getFileLine(distance + 1)
	return logger.WithField("caller", fmt.Sprintf("%s:%d", file, line))
}

// Debugf prints a debug log message when conf.Verbose is set
func Debugf(conf *config.Config, s string, args ...interface{}) {
	if conf == nil || !conf.Verbose {
		return
	}

	withCaller(1).Debugf(s, args...)
}

// Logf logs at info level
func Logf(s string, args ...interface{}) {
	withCaller(1).Infof(s, args...)
}

// PanicOnError panics if an error is passed.
func PanicOnError(err error) {
	if err != nil {
		panic(err)
	}
}

// IgnoreError logs the error if one occurred
func IgnoreError(err error) {
	if err != nil {
		withCaller(1).Warnf("error ignored: %+v", err)
	}
}
