// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package log

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navwar/gomirror/pkg/ts"
)

const (
	FormatJSONL = "jsonl"
	FormatText  = "text"
)

// SimpleLogger writes one structured line per event.
type SimpleLogger struct {
	logger *logrus.Logger
}

func (s *SimpleLogger) entry(fields []map[string]interface{}) *logrus.Entry {
	f := logrus.Fields{}
	for _, m := range fields {
		for k, v := range m {
			f[k] = v
		}
	}
	return s.logger.WithFields(f)
}

// Log writes an informational event.
func (s *SimpleLogger) Log(msg string, fields ...map[string]interface{}) error {
	s.entry(fields).Info(msg)
	return nil
}

// Error writes an error event.
func (s *SimpleLogger) Error(msg string, fields ...map[string]interface{}) error {
	s.entry(fields).Error(msg)
	return nil
}

// Debug writes a debug event, which is dropped unless the logger was created in debug mode.
func (s *SimpleLogger) Debug(msg string, fields ...map[string]interface{}) error {
	s.entry(fields).Debug(msg)
	return nil
}

type locationFormatter struct {
	formatter logrus.Formatter
	location  *time.Location
}

func (lf *locationFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.In(lf.location)
	return lf.formatter.Format(entry)
}

type SimpleLoggerInput struct {
	Writer   io.Writer
	Format   string
	Layout   ts.Layout
	Location *time.Location
	Debug    bool
}

func NewSimpleLoggerWithInput(input *SimpleLoggerInput) (*SimpleLogger, error) {
	layout := input.Layout
	if len(layout) == 0 {
		layout = ts.Layout(time.RFC3339Nano)
	}

	var formatter logrus.Formatter
	switch input.Format {
	case "", FormatJSONL:
		formatter = &logrus.JSONFormatter{
			TimestampFormat: string(layout),
		}
	case FormatText:
		formatter = &logrus.TextFormatter{
			DisableColors:    true,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
			TimestampFormat:  string(layout),
		}
	default:
		return nil, fmt.Errorf("unknown log format %q, expecting %q or %q", input.Format, FormatJSONL, FormatText)
	}

	if input.Location != nil {
		formatter = &locationFormatter{formatter: formatter, location: input.Location}
	}

	level := logrus.InfoLevel
	if input.Debug {
		level = logrus.DebugLevel
	}

	logger := logrus.New()
	logger.SetOutput(input.Writer)
	logger.SetFormatter(formatter)
	logger.SetLevel(level)

	return &SimpleLogger{logger: logger}, nil
}

// NewSimpleLogger returns a logger writing json lines to w.
func NewSimpleLogger(w io.Writer) *SimpleLogger {
	s, _ := NewSimpleLoggerWithInput(&SimpleLoggerInput{Writer: w})
	return s
}
