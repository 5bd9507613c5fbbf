package seed

import (
	"fmt"
	"time"

	"github.com/expanders360/vendormatch/pkg/logger"
)

// SetupLogging sends logs to stdout and to logFile. If logFile is empty, a
// timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) (string, error) {
	if logFile == "" {
		logFile = "seed_log_" + time.Now().Format("20060102_150405") + ".log"
	}
	if err := logger.Init(logger.WithOutputPaths("stdout", logFile)); err != nil {
		return "", fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return logFile, nil
}
