// Package logger owns the process-wide arbor logger.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// Options selects log outputs and level.
type Options struct {
	Level   string // trace, debug, info, warn, error
	Console bool
	File    string // log file path; empty disables file output
}

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		OutputType:       models.OutputFormatLogfmt,
		DisableTimestamp: false,
	}
}

// Get returns the global logger, creating a console logger on first use.
func Get() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter())
	}
	return globalLogger
}

// Init configures the global logger and returns it.
func Init(opts Options) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	logger := arbor.NewLogger()

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create log directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         opts.File,
				TimeFormat:       "15:04:05",
				MaxSize:          100 * 1024 * 1024,
				MaxBackups:       3,
				OutputType:       models.OutputFormatLogfmt,
				DisableTimestamp: false,
			})
		}
	}
	if opts.Console || opts.File == "" {
		logger = logger.WithConsoleWriter(consoleWriter())
	}

	level := opts.Level
	if level == "" {
		level = "info"
	}
	logger = logger.WithLevelFromString(level)

	globalLogger = logger
	return logger
}
