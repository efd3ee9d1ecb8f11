package logger

import (
	"os"
	"sync"

	"github.com/gruntwork-io/go-commons/logging"
	"github.com/sirupsen/logrus"
)

// BinaryName prefixes every log line.
const BinaryName = "tempomap"

var (
	projectLogger     *logrus.Logger
	projectLoggerOnce sync.Once
)

// GetProjectLogger returns the logger shared by every package in the project.
func GetProjectLogger() *logrus.Logger {
	projectLoggerOnce.Do(func() {
		projectLogger = logging.GetLogger(BinaryName)
		projectLogger.SetOutput(os.Stderr)
	})
	return projectLogger
}

// SetLevel parses a level name such as "debug" or "warn" and applies it to the project logger and to any logger
// created through go-commons afterwards.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logging.SetGlobalLogLevel(lvl)
	GetProjectLogger().SetLevel(lvl)
	return nil
}
