//go:build debug

package engine

import (
	"log"

	"go.uber.org/zap"

	"github.com/rlange/anneal/sched"
)

// newLogger returns a new logger with default options.
func newLogger() *sched.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Cannot create new logger:", err)
	}
	return sched.NewLogger(l.Sugar(), "engine")
}

// newFileLogger returns a new logger and also writes the log output to files.
func newFileLogger(files ...string) *sched.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = append(cfg.OutputPaths, files...)
	l, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot create new logger:", err)
	}
	return sched.NewLogger(l.Sugar(), "engine")
}
