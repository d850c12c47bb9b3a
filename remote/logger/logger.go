//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

// Package logger provides logging functionality.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
)

// LogLevel defines a set of logging levels that used to control logging output.
//
// The logging levels are ordered. The available levels in ascending order are:
//
//   Fine
//   Debug
//   Info
//   Warn
//   Error
//
// Enabling logging at a given level also enables logging at all higher levels.
// For example, if desired logging level for the logger is set to Debug, the
// messages of Debug level, as well as Info, Warn and Error levels are all logged.
//
// In addition there is a level Off that can be used to turn off logging.
type LogLevel int

const (
	// Fine represents a level used to log tracing messages, such as the
	// details of every attempt of a request.
	Fine LogLevel = 10

	// Debug represents a level used to log debug messages.
	Debug LogLevel = 20

	// Info represents a level used to log informative messages, such as retries.
	Info LogLevel = 30

	// Warn represents a level used to log warning messages, such as the use
	// of deprecated configuration.
	Warn LogLevel = 40

	// Error represents a level used to log error messages.
	Error LogLevel = 50

	// Off turns off logging.
	Off LogLevel = 99
)

// String returns a string representation for the log level.
//
// This implements the fmt.Stringer interface.
func (level LogLevel) String() string {
	switch level {
	case Fine:
		return "Fine"
	case Debug:
		return "Debug"
	case Info:
		return "Info"
	case Warn:
		return "Warn"
	case Error:
		return "Error"
	case Off:
		return "Off"
	default:
		return "N/A"
	}
}

// logrusLevel maps a LogLevel to the logrus level its entries are written at.
func (level LogLevel) logrusLevel() logrus.Level {
	switch level {
	case Fine:
		return logrus.TraceLevel
	case Debug:
		return logrus.DebugLevel
	case Info:
		return logrus.InfoLevel
	case Warn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// Logger represents a logging object that is a wrapper for logrus.Logger,
// adding capabilities to control the desired level of messages to log and
// whether the log entry time is displayed in local time zone or UTC.
type Logger struct {
	// logger represents a logrus.Logger.
	logger *logrus.Logger

	// level specifies the desired logging level.
	level LogLevel

	// fields are attached to every entry written by the logger.
	fields logrus.Fields

	// timezone specifies the suffix that is displayed for log entry time.
	// This is an empty string if using local time zone, is "UTC " if using UTC time.
	timezone string
}

// New creates a logger that writes messages of the specified logging level to the specified io.Writer.
// If useLocalTime is set to false, the log entry displays UTC time.
//
// If specified level is set to Off or a not available value, returns nil that
// represents logging is disabled.
func New(out io.Writer, level LogLevel, useLocalTime bool) *Logger {
	if out == nil {
		return nil
	}

	switch level {
	case Fine, Debug, Info, Warn, Error:
	default:
		return nil
	}

	var tz string
	if !useLocalTime {
		tz = "UTC "
	}

	lr := logrus.New()
	lr.SetOutput(out)
	// Level filtering is done by Logger.Log.
	lr.SetLevel(logrus.TraceLevel)
	lr.SetFormatter(&entryFormatter{utc: !useLocalTime, timezone: tz})

	return &Logger{
		level:    level,
		logger:   lr,
		timezone: tz,
	}
}

// WithField returns a logger that attaches the specified key/value pair to
// every entry it writes. The returned logger shares the output and level of l.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	if l == nil {
		return nil
	}

	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value

	return &Logger{
		logger:   l.logger,
		level:    l.level,
		fields:   fields,
		timezone: l.timezone,
	}
}

// Enabled reports whether messages of the specified level are logged.
func (l *Logger) Enabled(level LogLevel) bool {
	return l != nil && level != Off && l.level <= level
}

// Fine writes the specified message to the logger if the desired logging level is set to Fine.
//
// The arguments for the logging message are handled in the manner of fmt.Printf.
func (l *Logger) Fine(messageFormat string, messageArgs ...interface{}) {
	l.Log(Fine, messageFormat, messageArgs...)
}

// Debug writes the specified message to the logger if the desired logging level
// is set to Debug or a value lower than Debug such as Fine.
//
// The arguments for the logging message are handled in the manner of fmt.Printf.
func (l *Logger) Debug(messageFormat string, messageArgs ...interface{}) {
	l.Log(Debug, messageFormat, messageArgs...)
}

// Info writes the specified message to the logger if the desired logging level
// is set to Info or a value lower than Info such as Debug or Fine.
//
// The arguments for the logging message are handled in the manner of fmt.Printf.
func (l *Logger) Info(messageFormat string, messageArgs ...interface{}) {
	l.Log(Info, messageFormat, messageArgs...)
}

// Warn writes the specified message to the logger if the desired logging level
// is set to Warn or a value lower than Warn such as Info, Debug or Fine.
//
// The arguments for the logging message are handled in the manner of fmt.Printf.
func (l *Logger) Warn(messageFormat string, messageArgs ...interface{}) {
	l.Log(Warn, messageFormat, messageArgs...)
}

// Error writes the specified message to the logger if the desired logging level
// is set to Error or a value lower than Error such as Warn, Info, Debug or Fine.
//
// The arguments for the logging message are handled in the manner of fmt.Printf.
func (l *Logger) Error(messageFormat string, messageArgs ...interface{}) {
	l.Log(Error, messageFormat, messageArgs...)
}

// Log writes the specified message to logger if the specified logging level is
// the same as or higher than logger's desired level.
//
// The arguments for the logging message are handled in the manner of fmt.Printf.
func (l *Logger) Log(level LogLevel, messageFormat string, messageArgs ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	l.write(level, fmt.Sprintf(messageFormat, messageArgs...))
}

// LogWithFn calls the function fn if the specified logging level is the same as
// or higher than logger's desired level, writes the message returned from fn to
// the logger.
func (l *Logger) LogWithFn(level LogLevel, fn func() string) {
	if !l.Enabled(level) {
		return
	}

	l.write(level, fn())
}

func (l *Logger) write(level LogLevel, msg string) {
	entry := logrus.NewEntry(l.logger)
	if len(l.fields) > 0 {
		entry = entry.WithFields(l.fields)
	}
	entry.Log(level.logrusLevel(), msg)
}

// entryFormatter renders entries as
//
//   2006/01/02 15:04:05.000000 UTC [WARN]  message key=value
type entryFormatter struct {
	utc      bool
	timezone string
}

// Format implements the logrus.Formatter interface.
func (f *entryFormatter) Format(e *logrus.Entry) ([]byte, error) {
	t := e.Time
	if f.utc {
		t = t.UTC()
	}

	var b bytes.Buffer
	b.WriteString(t.Format("2006/01/02 15:04:05.000000 "))
	b.WriteString(f.timezone)
	b.WriteString(label(e.Level))
	b.WriteString(e.Message)

	if len(e.Data) > 0 {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// label returns a label for the specified logging level used to display in log entry.
func label(level logrus.Level) string {
	switch level {
	case logrus.TraceLevel:
		return "[FINE]  "
	case logrus.DebugLevel:
		return "[DEBUG] "
	case logrus.InfoLevel:
		return "[INFO]  "
	case logrus.WarnLevel:
		return "[WARN]  "
	case logrus.ErrorLevel:
		return "[ERROR] "
	default:
		return ""
	}
}

// DefaultLogger represents a default logger that writes warning and higher priority events to stderr.
var DefaultLogger *Logger = New(os.Stderr, Warn, false)
