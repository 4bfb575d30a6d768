package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
	level            = logrus.InfoLevel
	asJSON bool
)

// Setup points logrus at stdout plus a rotating log file.
// An empty file path keeps logging on stdout only.
func Setup(levelName, file string, json bool) {
	lvl, err := logrus.ParseLevel(levelName)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	var out io.Writer = os.Stdout
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			logrus.WithError(err).Warn("Failed to create log directory, logging to stdout only")
		} else {
			rotator := &lumberjack.Logger{
				Filename:   file,
				MaxSize:    10, // megabytes
				MaxBackups: 7,
				MaxAge:     7, // days
				Compress:   true,
			}
			out = io.MultiWriter(os.Stdout, rotator)
		}
	}

	mu.Lock()
	output, level, asJSON = out, lvl, json
	mu.Unlock()

	configure(logrus.StandardLogger())
}

// New returns a component logger sharing the configured output and level.
func New() *logrus.Logger {
	l := logrus.New()
	configure(l)
	return l
}

func configure(l *logrus.Logger) {
	mu.RLock()
	defer mu.RUnlock()

	l.SetOutput(output)
	l.SetLevel(level)
	if asJSON {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
		return
	}
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}
