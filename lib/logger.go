package awsivy

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Logger struct {
	*zap.Logger
}

func NewLogger(outputPath string, debug bool) (logger *Logger, err error) {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	if outputPath != "" {
		config.OutputPaths = []string{outputPath}
	}
	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	logger = &Logger{
		Logger: zapLogger,
	}

	return logger, nil
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// For aws log library
func (l *Logger) Log(input ...interface{}) {
	l.Sugar().Debug(strings.TrimSpace(fmt.Sprintln(input...)))
}
