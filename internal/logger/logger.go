package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	// OutputFile adds a rotated file next to stdout when set.
	OutputFile string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// New builds a logger from cfg. The returned closer flushes the log file,
// if any.
func New(cfg Config) (*logrus.Logger, io.Closer, error) {
	return newWithStdout(cfg, os.Stdout)
}

func newWithStdout(cfg Config, stdout io.Writer) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "06-01-02 15:04:05",
		})
	}

	if cfg.OutputFile == "" {
		log.SetOutput(stdout)
		return log, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "create log directory")
	}
	file := &lumberjack.Logger{
		Filename:   cfg.OutputFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(stdout, file))
	return log, file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
