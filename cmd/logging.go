package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/crytic/solcexport/export/config"
	"github.com/crytic/solcexport/logging"
	"github.com/crytic/solcexport/utils"
	"github.com/google/uuid"
)

// setupGlobalLogger creates the global logger described by the logging config. Console output goes to stdout and, if
// a log directory is configured, structured logs are written to a new file in it. Every event carries the run id.
// Returns a function which closes the log file, if any.
func setupGlobalLogger(loggingConfig config.LoggingConfig) (string, func(), error) {
	runId := uuid.NewString()
	logger := logging.NewLogger(loggingConfig.Level)
	logger.AddWriter(os.Stdout, logging.UNSTRUCTURED, !loggingConfig.NoColor)

	closeLog := func() {}
	if loggingConfig.LogDirectory != "" {
		fileName := fmt.Sprintf("solcexport-%s-%s.log", time.Now().UTC().Format("20060102T150405Z"), runId[:8])
		file, err := utils.CreateFile(loggingConfig.LogDirectory, fileName)
		if err != nil {
			return "", closeLog, err
		}
		logger.AddWriter(file, logging.STRUCTURED, false)
		closeLog = func() {
			logger.RemoveWriter(file, logging.STRUCTURED, false)
			_ = file.Close()
		}
	}

	logging.GlobalLogger = logger.NewSubLogger(logging.RUN_ID_KEY, runId)
	cmdLogger.SetLevel(loggingConfig.Level)
	return runId, closeLog, nil
}
