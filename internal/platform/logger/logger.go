package logger

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/ohmynofan/tipverse/internal/domain/model"
	"github.com/ohmynofan/tipverse/internal/platform/ui"
	"github.com/ohmynofan/tipverse/pkg/utils"
)

var (
	fileLogger *log.Logger
	once       sync.Once
	logFile    *os.File
)

func Init(path string) error {
	var err error
	once.Do(func() {
		os.Remove(path)
		if err = os.MkdirAll(dirOf(path), 0o755); err != nil {
			return
		}
		logFile, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		fileLogger = log.New(logFile, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	})
	return err
}

func Close() error {
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

func dirOf(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "."
	}
	return path[:i]
}

type ClassLogger struct {
	class string
	label string
}

func NewLogger(v interface{}, session *model.Session) *ClassLogger {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return &ClassLogger{class: t.Name(), label: sessionLabel(session)}
}

func NewNamed(name string, session *model.Session) *ClassLogger {
	return &ClassLogger{class: name, label: sessionLabel(session)}
}

func sessionLabel(session *model.Session) string {
	if session == nil || session.Address == "" {
		return ""
	}
	return fmt.Sprintf("Wallet %s", utils.ShortenAddress(session.Address))
}

// Log writes msg to the log file and the status line. With a duration it
// holds the status on screen with a countdown before returning.
func (l *ClassLogger) Log(msg string, durationMs ...int) {
	l.write(msg)

	label := l.label
	if label == "" {
		label = l.class
	}
	displayMsg := shortenForDisplay(msg)

	if len(durationMs) > 0 && durationMs[0] > 0 {
		interval := 1 * time.Second
		for remaining := time.Duration(durationMs[0]) * time.Millisecond; remaining > 0; remaining -= interval {
			ui.UpdateStatus(label, displayMsg, remaining)

			sleepTime := interval
			if remaining < interval {
				sleepTime = remaining
			}
			time.Sleep(sleepTime)
		}
	}

	ui.UpdateStatus(label, displayMsg, 0)
}

func (l *ClassLogger) JustLog(msg string) {
	l.write(msg)
}

func (l *ClassLogger) LogObject(msg string, obj interface{}) {
	if fileLogger != nil {
		formattedString, err := utils.FormatObject(obj)
		if err != nil {
			l.JustLog(fmt.Sprintf("Error formatting object: %v", err))
			return
		}
		l.JustLog(fmt.Sprintf("%s : \n%v", msg, formattedString))
	}
}

func (l *ClassLogger) write(msg string) {
	if fileLogger == nil {
		return
	}
	funcName := callerFunc(3)
	if l.label != "" {
		fileLogger.Printf("[%s][%s.%s] %s", l.label, l.class, funcName, msg)
		return
	}
	fileLogger.Printf("[%s][%s] %s", l.class, funcName, msg)
}

func callerFunc(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	parts := strings.Split(fn.Name(), ".")
	return parts[len(parts)-1]
}

func shortenForDisplay(msg string) string {
	const maxLen = 140
	runes := []rune(msg)
	if len(runes) <= maxLen {
		return msg
	}
	return string(runes[:maxLen-1]) + "…"
}
