package transport

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

// LoggerHelper accumulates logrus fields for one transport call site.
// Every entry carries "function" and "package" keys.
type LoggerHelper struct {
	fields logrus.Fields
}

// NewLogger starts a field set for function.
func NewLogger(function string) *LoggerHelper {
	return &LoggerHelper{
		fields: logrus.Fields{
			"function": function,
			"package":  "transport",
		},
	}
}

// WithCaller records the file, line and function of the code that called
// the helper's caller.
func (l *LoggerHelper) WithCaller() *LoggerHelper {
	pc, file, line, ok := runtime.Caller(2)
	if !ok {
		return l
	}
	l.fields["caller"] = fmt.Sprintf("%s:%d", file, line)
	if fn := runtime.FuncForPC(pc); fn != nil {
		name := fn.Name()
		l.fields["caller_func"] = name[strings.LastIndex(name, "/")+1:]
	}
	return l
}

// WithFD tags the entry with an OS descriptor.
func (l *LoggerHelper) WithFD(fd int) *LoggerHelper {
	l.fields["fd"] = fd
	return l
}

func (l *LoggerHelper) WithField(key string, value interface{}) *LoggerHelper {
	l.fields[key] = value
	return l
}

func (l *LoggerHelper) WithFields(fields logrus.Fields) *LoggerHelper {
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

// WithError records err and the operation that produced it. An OS errno
// found in the chain is logged by number under "errno".
func (l *LoggerHelper) WithError(err error, operation string) *LoggerHelper {
	l.fields["error"] = err.Error()
	l.fields["operation"] = operation
	var errno syscall.Errno
	if errors.As(err, &errno) {
		l.fields["errno"] = uintptr(errno)
	}
	return l
}

func (l *LoggerHelper) Debug(message string) {
	logrus.WithFields(l.fields).Debug(message)
}

func (l *LoggerHelper) Error(message string) {
	logrus.WithFields(l.fields).Error(message)
}
