package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/microsoft/ApplicationInsights-Go/appinsights"
	"github.com/microsoft/ApplicationInsights-Go/appinsights/contracts"
)

// Logger provides structured, leveled logging throughout the application.
// Warnings and errors are also forwarded to Application Insights when a
// telemetry client is attached.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger

	telemetry appinsights.TelemetryClient
}

// NewLogger creates a new Logger writing to stdout/stderr.
func NewLogger() *Logger {
	return NewLoggerWithWriters(os.Stdout, os.Stderr)
}

// NewLoggerWithWriters creates a Logger writing info/warn/debug lines to out
// and error lines to errOut.
func NewLoggerWithWriters(out, errOut io.Writer) *Logger {
	flags := 0
	return &Logger{
		info:  log.New(out, "", flags),
		warn:  log.New(out, "", flags),
		err:   log.New(errOut, "", flags),
		debug: log.New(out, "", flags),
	}
}

// AttachTelemetry forwards warnings, errors and events to client.
func (l *Logger) AttachTelemetry(client appinsights.TelemetryClient) {
	l.telemetry = client
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(fmt.Sprintf("[%s] \033[32mINFO\033[0m  %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(fmt.Sprintf("[%s] \033[33mWARN\033[0m  %s\n", l.timestamp(), format), args...)
	l.trace(appinsights.Warning, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(fmt.Sprintf("[%s] \033[31mERROR\033[0m %s\n", l.timestamp(), format), args...)
	l.trace(appinsights.Error, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.debug.Printf(fmt.Sprintf("[%s] \033[36mDEBUG\033[0m %s\n", l.timestamp(), format), args...)
}

// Event records a named run milestone in telemetry. It is a no-op without
// an attached client.
func (l *Logger) Event(name string, props map[string]string) {
	if l.telemetry == nil {
		return
	}
	e := appinsights.NewEventTelemetry(name)
	for k, v := range props {
		e.Properties[k] = v
	}
	l.telemetry.Track(e)
}

// Flush submits buffered telemetry, waiting at most timeout.
func (l *Logger) Flush(timeout time.Duration) {
	if l.telemetry == nil {
		return
	}
	select {
	case <-l.telemetry.Channel().Close(timeout):
	case <-time.After(timeout + time.Second):
		l.warn.Printf("[%s] \033[33mWARN\033[0m  telemetry flush timed out after %v\n", l.timestamp(), timeout)
	}
}

func (l *Logger) trace(level contracts.SeverityLevel, format string, args ...any) {
	if l.telemetry == nil {
		return
	}
	l.telemetry.TrackTrace(fmt.Sprintf(format, args...), level)
}
